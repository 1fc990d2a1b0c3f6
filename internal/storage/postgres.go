package storage

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// entry is the GORM model for one key-value pair.
type entry struct {
	Key       string `gorm:"primaryKey;size:200"`
	Value     string `gorm:"not null"`
	UpdatedAt time.Time
}

func (entry) TableName() string { return "kv" }

// Postgres is a Store backed by a Postgres database through GORM.
type Postgres struct {
	db *gorm.DB
}

var _ Store = (*Postgres)(nil)

// OpenPostgres connects to dsn and migrates the kv table.
func OpenPostgres(dsn string) (*Postgres, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate postgres schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Get(key string) (string, bool, error) {
	var e entry
	err := p.db.Where("key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get key %s: %w", key, err)
	}
	return e.Value, true, nil
}

func (p *Postgres) Set(key, value string) error {
	e := entry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := p.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Remove(key string) error {
	if err := p.db.Where("key = ?", key).Delete(&entry{}).Error; err != nil {
		return fmt.Errorf("failed to remove key %s: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
