// internals/features/wordpress/repository/options_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	wpModel "propertytools_backend/internals/features/wordpress/model"
)

// OptionsRepository reads and writes rows of the options table.
type OptionsRepository struct {
	DB     *gorm.DB
	Tables wpModel.Tables
}

func NewOptionsRepository(db *gorm.DB, t wpModel.Tables) *OptionsRepository {
	return &OptionsRepository{DB: db, Tables: t}
}

// Get returns the option value and whether the row exists.
func (r *OptionsRepository) Get(ctx context.Context, name string) (string, bool, error) {
	return getOption(r.DB.WithContext(ctx), r.Tables, name, false)
}

// Set upserts an option value.
func (r *OptionsRepository) Set(ctx context.Context, name, value string, autoload bool) error {
	return setOption(r.DB.WithContext(ctx), r.Tables, name, value, autoload)
}

// GetForUpdate reads an option inside tx, locking the row.
func GetForUpdate(tx *gorm.DB, t wpModel.Tables, name string) (string, bool, error) {
	return getOption(tx, t, name, true)
}

// DeleteTx removes options inside tx.
func DeleteTx(tx *gorm.DB, t wpModel.Tables, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if err := tx.Table(t.Options()).
		Where("option_name IN ?", names).
		Delete(&wpModel.OptionModel{}).Error; err != nil {
		return fmt.Errorf("delete options: %w", err)
	}
	return nil
}

// SetTx upserts an option inside tx.
func SetTx(tx *gorm.DB, t wpModel.Tables, name, value string, autoload bool) error {
	return setOption(tx, t, name, value, autoload)
}

func getOption(db *gorm.DB, t wpModel.Tables, name string, lock bool) (string, bool, error) {
	var row wpModel.OptionModel
	q := db.Table(t.Options()).Where("option_name = ?", name)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get option %q: %w", name, err)
	}
	return row.OptionValue, true, nil
}

func setOption(db *gorm.DB, t wpModel.Tables, name, value string, autoload bool) error {
	al := "off"
	if autoload {
		al = "on"
	}
	row := wpModel.OptionModel{OptionName: name, OptionValue: value, Autoload: al}
	err := db.Table(t.Options()).
		Omit("option_id").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "option_name"}},
			DoUpdates: clause.AssignmentColumns([]string{"option_value"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("set option %q: %w", name, err)
	}
	return nil
}
