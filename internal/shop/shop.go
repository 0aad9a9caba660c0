// Package shop holds the premium-store catalog: fixed-price resource
// packs exchanged between the two currencies and experience.
package shop

// Item is one purchasable catalog entry. Costs are debited together;
// a purchase needs both balances to cover.
type Item struct {
	ID          string
	Name        string
	Description string

	GoldCost int
	GemCost  int

	GoldGrant int
	GemGrant  int
	ExpGrant  int
}

var catalog = []Item{
	{
		ID: "gem_pack_small", Name: "小宝石包", Description: "获得10个宝石",
		GoldCost: 5000,
		GemGrant: 10,
	},
	{
		ID: "gold_pack_large", Name: "大金币包", Description: "获得10000金币",
		GemCost:   3,
		GoldGrant: 10000,
	},
	{
		ID: "experience_potion", Name: "经验药水", Description: "立即获得500经验值",
		GoldCost: 1500,
		ExpGrant: 500,
	},
}

// Items returns the full catalog in display order.
func Items() []Item {
	return append([]Item(nil), catalog...)
}

// ItemByID looks up a catalog entry.
func ItemByID(id string) (Item, bool) {
	for _, item := range catalog {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}
