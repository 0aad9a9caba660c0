package state

// migration lifts a save from one version to the next. Transforms are
// pure, additive, and run in declaration order so a very old save walks
// the whole chain in one Load.
type migration struct {
	from, to string
	apply    func(*GameData)
}

var migrations = []migration{
	{
		// 1.0.0 saves predate quest persistence and the settings block
		// gaining the auto-sell toggle. Zero values already cover the
		// new fields; this step normalizes the version stamp and seeds
		// refresh timestamps so the quest engine does not refresh on
		// every load of an old profile.
		from: "1.0.0", to: "1.1.0",
		apply: func(d *GameData) {
			if d.QuestData.LastDailyRefresh == 0 {
				d.QuestData.LastDailyRefresh = d.SaveTime
			}
			if d.QuestData.LastWeeklyRefresh == 0 {
				d.QuestData.LastWeeklyRefresh = d.SaveTime
			}
			if d.CustomerSatisfaction == 0 {
				d.CustomerSatisfaction = 100
			}
		},
	},
}

// Migrate walks the version chain until the tree reaches
// CurrentVersion. Returns whether anything ran and how many steps.
// Unknown versions are left alone; merge-over-defaults already made the
// tree structurally valid.
func Migrate(d *GameData) (bool, int) {
	if d.Version == "" {
		d.Version = "1.0.0"
	}
	steps := 0
	for d.Version != CurrentVersion {
		advanced := false
		for _, m := range migrations {
			if m.from == d.Version {
				m.apply(d)
				d.Version = m.to
				steps++
				advanced = true
				break
			}
		}
		if !advanced {
			break
		}
	}
	return steps > 0, steps
}
