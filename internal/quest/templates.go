package quest

// Target describes what a quest counts and how much of it.
type Target struct {
	Type        string `json:"type"`
	Amount      int    `json:"amount"`
	TimeLimitMs int64  `json:"timeLimit,omitempty"`
}

// Reward is applied once on claim.
type Reward struct {
	Gold       int    `json:"gold,omitempty"`
	Gems       int    `json:"gems,omitempty"`
	Exp        int    `json:"exp,omitempty"`
	Reputation int    `json:"reputation,omitempty"`
	Unlock     string `json:"unlock,omitempty"`
	Special    string `json:"special,omitempty"`
	Title      string `json:"title,omitempty"`
}

// Template is an immutable quest definition. Instances reference it by
// id and carry only mutable progress.
type Template struct {
	ID          string
	Kind        string
	Title       string
	Description string
	Target      Target
	Reward      Reward
	Difficulty  string
	Tier        string
	UnlockLevel int
	NextQuest   string
}

var dailyTemplates = []Template{
	{
		ID: "daily_produce_potions", Kind: "produce",
		Title: "制作药水", Description: "制作10瓶药水",
		Target:     Target{Type: "potions", Amount: 10},
		Reward:     Reward{Gold: 500, Exp: 100},
		Difficulty: "简单",
	},
	{
		ID: "daily_serve_customers", Kind: "serve",
		Title: "服务顾客", Description: "服务5位顾客",
		Target:     Target{Type: "customers", Amount: 5},
		Reward:     Reward{Gold: 300, Reputation: 50},
		Difficulty: "简单",
	},
	{
		ID: "daily_earn_gold", Kind: "earn",
		Title: "赚取金币", Description: "赚取1000金币",
		Target:     Target{Type: "gold", Amount: 1000},
		Reward:     Reward{Gems: 5, Exp: 80},
		Difficulty: "中等",
	},
	{
		ID: "daily_upgrade_workshop", Kind: "upgrade",
		Title: "升级设施", Description: "升级任意工作台1次",
		Target:     Target{Type: "workshop_upgrade", Amount: 1},
		Reward:     Reward{Gold: 800, Gems: 3},
		Difficulty: "中等",
	},
	{
		ID: "daily_collect_fast", Kind: "collect",
		Title: "快速收集", Description: "在30秒内收集5次生产",
		Target:     Target{Type: "fast_collect", Amount: 5, TimeLimitMs: 30000},
		Reward:     Reward{Gold: 600, Exp: 120},
		Difficulty: "困难",
	},
}

var weeklyTemplates = []Template{
	{
		ID: "weekly_total_production", Kind: "produce",
		Title: "大量生产", Description: "制作100个物品",
		Target:     Target{Type: "total_items", Amount: 100},
		Reward:     Reward{Gold: 5000, Gems: 20, Exp: 500},
		Difficulty: "困难",
	},
	{
		ID: "weekly_vip_customers", Kind: "serve",
		Title: "VIP服务", Description: "服务10位贵族或急客",
		Target:     Target{Type: "vip_customers", Amount: 10},
		Reward:     Reward{Gold: 3000, Reputation: 200, Gems: 15},
		Difficulty: "困难",
	},
	{
		ID: "weekly_reputation", Kind: "reputation",
		Title: "声望提升", Description: "获得500声望",
		Target:     Target{Type: "reputation", Amount: 500},
		Reward:     Reward{Gold: 4000, Gems: 25},
		Difficulty: "中等",
	},
	{
		ID: "weekly_no_angry_customers", Kind: "patience",
		Title: "完美服务", Description: "7天内不让任何顾客生气离开",
		Target:     Target{Type: "no_angry", Amount: 0},
		Reward:     Reward{Gold: 6000, Gems: 30, Special: "patience_boost"},
		Difficulty: "专家",
	},
}

var storyTemplates = []Template{
	{
		ID: "story_first_workshop", Kind: "tutorial",
		Title: "魔法商店的开始", Description: "解锁第一个工作台",
		Target:      Target{Type: "unlock_workshop", Amount: 1},
		Reward:      Reward{Gold: 200, Exp: 50},
		UnlockLevel: 1,
		NextQuest:   "story_first_customer",
	},
	{
		ID: "story_first_customer", Kind: "tutorial",
		Title: "第一位顾客", Description: "成功服务第一位顾客",
		Target:      Target{Type: "serve_customer", Amount: 1},
		Reward:      Reward{Gold: 300, Exp: 75},
		UnlockLevel: 1,
		NextQuest:   "story_reputation_100",
	},
	{
		ID: "story_reputation_100", Kind: "milestone",
		Title: "小有名气", Description: "达到100声望",
		Target:      Target{Type: "reputation", Amount: 100},
		Reward:      Reward{Gold: 1000, Gems: 5, Unlock: "auto_sell"},
		UnlockLevel: 2,
		NextQuest:   "story_all_workshops",
	},
	{
		ID: "story_all_workshops", Kind: "milestone",
		Title: "全能法师", Description: "解锁所有工作台",
		Target:      Target{Type: "unlock_all_workshops", Amount: 3},
		Reward:      Reward{Gold: 2000, Gems: 10, Unlock: "workshop_sync"},
		UnlockLevel: 5,
		NextQuest:   "story_master_crafter",
	},
	{
		ID: "story_master_crafter", Kind: "endgame",
		Title: "大师工匠", Description: "将任意工作台升级到10级",
		Target:      Target{Type: "workshop_level", Amount: 10},
		Reward:      Reward{Gold: 5000, Gems: 25, Unlock: "master_recipes"},
		UnlockLevel: 10,
	},
}

var achievementTemplates = []Template{
	{
		ID:    "ach_first_million",
		Title: "百万富翁", Description: "累计赚取100万金币",
		Target: Target{Type: "total_gold_earned", Amount: 1000000},
		Reward: Reward{Gems: 50, Title: "百万富翁"},
		Tier:   "legendary",
	},
	{
		ID:    "ach_speed_demon",
		Title: "速度恶魔", Description: "在10秒内服务3位顾客",
		Target: Target{Type: "speed_serve", Amount: 3, TimeLimitMs: 10000},
		Reward: Reward{Gems: 20, Unlock: "speed_boost"},
		Tier:   "epic",
	},
	{
		ID:    "ach_customer_favorite",
		Title: "顾客最爱", Description: "连续50位顾客满意离开",
		Target: Target{Type: "consecutive_happy", Amount: 50},
		Reward: Reward{Gems: 30, Reputation: 500},
		Tier:   "epic",
	},
	{
		ID:    "ach_workshop_master",
		Title: "工作台大师", Description: "所有工作台达到5级",
		Target: Target{Type: "all_workshops_level", Amount: 5},
		Reward: Reward{Gems: 40, Unlock: "master_efficiency"},
		Tier:   "legendary",
	},
	{
		ID:    "ach_patience_saint",
		Title: "耐心圣人", Description: "让100位顾客在最后一秒被服务",
		Target: Target{Type: "last_second_serve", Amount: 100},
		Reward: Reward{Gems: 35, Unlock: "patience_vision"},
		Tier:   "epic",
	},
}

// TemplateByID searches every pool.
func TemplateByID(id string) (Template, bool) {
	for _, pool := range [][]Template{dailyTemplates, weeklyTemplates, storyTemplates, achievementTemplates} {
		for _, t := range pool {
			if t.ID == id {
				return t, true
			}
		}
	}
	return Template{}, false
}

// predecessor returns the story template whose NextQuest links to id.
func predecessor(id string) (Template, bool) {
	for _, t := range storyTemplates {
		if t.NextQuest == id {
			return t, true
		}
	}
	return Template{}, false
}
