// Command homeguides runs the catalog maintenance jobs: Airtable imports,
// amenity consolidation and completeness reporting.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"homeguides/server/config"
	"homeguides/server/internal/database"
	"gorm.io/gorm"
)

var (
	logger = logrus.New()
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "homeguides",
	Short: "Catalog maintenance jobs for the home guides backend",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stderr)

		_ = godotenv.Load()
		var err error
		cfg, err = config.LoadConfig()
		return err
	},
	SilenceUsage: true,
}

// openDB connects and migrates; every subcommand needs both.
func openDB() (*gorm.DB, error) {
	db, err := database.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db, logger); err != nil {
		return nil, err
	}
	return db, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logger.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}
