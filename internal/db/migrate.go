package db

import (
	"fmt"
	"strings"

	"github.com/diewo77/facturo/internal/models"
	"gorm.io/gorm"
)

// Migrate runs AutoMigrate for all models, including the unique
// (user_id, number) index invoice numbering relies on.
// Call this at application startup or as part of a migration step.
func Migrate(db *gorm.DB) error {
	if db.Dialector.Name() == "sqlite" {
		if err := decimalsAsText(db); err != nil {
			return err
		}
	}
	return db.AutoMigrate(models.All()...)
}

// decimalsAsText declares decimal columns as TEXT on SQLite. A DECIMAL
// column gets NUMERIC affinity there, which stores values as 8-byte floats
// and drops digits past the 15th.
func decimalsAsText(db *gorm.DB) error {
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return fmt.Errorf("parse %T: %w", model, err)
		}
		for _, field := range stmt.Schema.Fields {
			if strings.HasPrefix(strings.ToLower(string(field.DataType)), "decimal") {
				field.DataType = "text"
			}
		}
	}
	return nil
}
