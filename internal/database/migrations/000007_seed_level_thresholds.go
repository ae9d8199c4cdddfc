package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// SeedLevelThresholds inserts the default level ladder. Operators can
// reshape it later; points_required must stay strictly increasing.
func SeedLevelThresholds() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000007_seed_level_thresholds",
		Migrate: func(tx *gorm.DB) error {
			return tx.Exec(`
				INSERT INTO level_thresholds (level, points_required, title) VALUES
					(1, 0, 'Seedling'),
					(2, 100, 'Sprout'),
					(3, 250, 'Sapling'),
					(4, 500, 'Grove Keeper'),
					(5, 1000, 'Forest Guardian'),
					(6, 2000, 'Earth Steward'),
					(7, 3500, 'Climate Champion'),
					(8, 5000, 'Planet Hero')
				ON CONFLICT (level) DO NOTHING;
			`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec(`DELETE FROM level_thresholds WHERE level BETWEEN 1 AND 8;`).Error
		},
	}
}
