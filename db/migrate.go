package db

import (
	"cyberslate/esports-api/internal/model"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type migration struct {
	name string
	up   func(tx *gorm.DB) error
}

// Applied in order, each at most once. Never rename or reorder an entry
// that has shipped.
var migrations = []migration{
	{
		name: "0001_users_commands",
		up: func(tx *gorm.DB) error {
			return tx.AutoMigrate(model.User{}, model.Command{})
		},
	},
	{
		name: "0002_commands_name_lower_idx",
		up: func(tx *gorm.DB) error {
			return tx.Exec("CREATE INDEX IF NOT EXISTS idx_commands_name_lower ON commands (LOWER(name))").Error
		},
	},
}

// Migrate runs every migration that isn't recorded in the migrations table
// yet and returns how many were applied
func Migrate(db *gorm.DB) (int, error) {
	if err := db.AutoMigrate(model.Migration{}); err != nil {
		return 0, fmt.Errorf("failed to create migrations table, %w", err)
	}

	var done []string
	if err := db.Model(model.Migration{}).Pluck("name", &done).Error; err != nil {
		return 0, fmt.Errorf("failed to load applied migrations, %w", err)
	}

	applied := make(map[string]bool, len(done))
	for _, name := range done {
		applied[name] = true
	}

	n := 0
	for _, m := range migrations {
		if applied[m.name] {
			continue
		}

		err := db.Transaction(func(tx *gorm.DB) error {
			if err := m.up(tx); err != nil {
				return err
			}

			return tx.Create(&model.Migration{Name: m.name}).Error
		})
		if err != nil {
			return n, fmt.Errorf("migration %s failed, %w", m.name, err)
		}

		zap.L().Info("Applied migration", zap.String("name", m.name))
		n++
	}

	return n, nil
}
