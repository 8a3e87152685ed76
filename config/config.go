package config

import (
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Airtable configuration
	Airtable AirtableConfig

	// Storage configuration
	Storage StorageConfig

	// DataDir holds the optional alias files used by the import jobs
	DataDir string `env:"DATA_DIR" envDefault:"data"`
}

type ServerConfig struct {
	Port       string `env:"PORT" envDefault:"8080"`
	CORSOrigin string `env:"CORS_ORIGIN" envDefault:"*"`
}

type DatabaseConfig struct {
	// Driver is "postgres" or "sqlite"
	Driver string `env:"DB_DRIVER" envDefault:"postgres"`
	DSN    string `env:"DATABASE_URL"`
}

type AirtableConfig struct {
	Token string `env:"AIRTABLE_TOKEN"`

	HomesBase  string `env:"AT_HOMES_BASE"`
	HomesTable string `env:"AT_HOMES_TABLE"`
	HomesView  string `env:"AT_HOMES_VIEW"`

	// Shared base for amenity/category/inventory tables
	BasicBase string `env:"AT_BASIC_BASE"`

	AmenitiesTable string `env:"AT_AMENITIES_TABLE"`
	AmenitiesView  string `env:"AT_AMENITIES_VIEW"`

	CategoriesTable string `env:"AT_CATEGORIES_TABLE"`
	CategoriesView  string `env:"AT_CATEGORIES_VIEW"`

	InventoryTable string `env:"AT_INVENTORY_TABLE"`
	InventoryView  string `env:"AT_INVENTORY_VIEW" envDefault:"inventory_migrate"`

	GuidesTable string `env:"AT_GUIDES_TABLE"`
	GuidesView  string `env:"AT_GUIDES_VIEW" envDefault:"migrate_guides"`

	StylingTable string `env:"AT_STYLING_TABLE"`
	StylingView  string `env:"AT_STYLING_VIEW"`

	// Delay between result pages, keeps the export under the rate limit
	PageDelay time.Duration `env:"AIRTABLE_PAGE_DELAY" envDefault:"250ms"`

	// Retry policy for page fetches and media downloads
	MaxRetries   int           `env:"AIRTABLE_MAX_RETRIES" envDefault:"3"`
	RetryDelay   time.Duration `env:"AIRTABLE_RETRY_DELAY" envDefault:"1s"`
	FetchTimeout time.Duration `env:"AIRTABLE_FETCH_TIMEOUT" envDefault:"30s"`
}

type StorageConfig struct {
	Bucket string `env:"STORAGE_BUCKET"`
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
