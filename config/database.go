package config

import (
	"fmt"

	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/judyrop/viara-backend/models"
)

// DSN builds the postgres connection string unless DATABASE_URL overrides it.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

// Dialector picks the gorm driver. "pq" keeps the postgres dialect but runs
// over lib/pq instead of pgx.
func (c *Config) Dialector() (gorm.Dialector, error) {
	switch c.DBDriver {
	case "", "postgres":
		return postgres.Open(c.DSN()), nil
	case "pq":
		return postgres.New(postgres.Config{DriverName: "postgres", DSN: c.DSN()}), nil
	case "sqlite":
		return sqlite.Open(c.SQLitePath + "?_foreign_keys=on"), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
}

// OpenDatabase connects and migrates every model.
func OpenDatabase(c *Config) (*gorm.DB, error) {
	dialector, err := c.Dialector()
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}
