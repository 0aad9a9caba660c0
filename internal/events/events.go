package events

import "time"

// Type identifies a domain event. Quest predicates and the telemetry
// log switch on these values, so they are part of the save-compatible
// vocabulary.
type Type string

const (
	ItemProduced         Type = "item_produced"
	ProductionCollected  Type = "production_collected"
	CustomerServed       Type = "customer_served"
	CustomerAngry        Type = "customer_angry"
	GoldEarned           Type = "gold_earned"
	GoldSpent            Type = "gold_spent"
	GemsSpent            Type = "gems_spent"
	ReputationGained     Type = "reputation_gained"
	WorkshopUpgraded     Type = "workshop_upgraded"
	WorkshopUnlocked     Type = "workshop_unlocked"
	AllWorkshopsUnlocked Type = "all_workshops_unlocked"
	// AllWorkshopsLevel fires after an upgrade when every workshop has
	// reached the new minimum level; NewLevel carries that minimum.
	AllWorkshopsLevel Type = "all_workshops_level_reached"
)

// Event is the flat payload shared by every type. Only the fields
// relevant to a given Type are populated; consumers must not assume
// the rest carry meaning.
type Event struct {
	Type Type      `json:"type"`
	At   time.Time `json:"at"`

	ItemType string `json:"itemType,omitempty"`
	Amount   int    `json:"amount,omitempty"`

	WorkshopID   string `json:"workshopId,omitempty"`
	WorkshopName string `json:"workshopName,omitempty"`
	OldLevel     int    `json:"oldLevel,omitempty"`
	NewLevel     int    `json:"newLevel,omitempty"`

	CustomerType string `json:"customerType,omitempty"`
	GoldEarned   int    `json:"goldEarned,omitempty"`
	AutoSell     bool   `json:"autoSell,omitempty"`
	Satisfied    bool   `json:"satisfied,omitempty"`
	// LastSecond marks a serve that landed within the final second of
	// the customer's patience window.
	LastSecond bool `json:"lastSecond,omitempty"`

	Source  string `json:"source,omitempty"`
	Purpose string `json:"purpose,omitempty"`
}
