package cmd

import (
	"log"

	"github.com/anoixa/event-gallery/config"
	"github.com/anoixa/event-gallery/database"
	"github.com/spf13/cobra"
)

// migrateCmd 数据库结构迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migration",
	Long:  `Apply the current schema to the configured database without starting the server.`,
	Run: func(cmd *cobra.Command, args []string) {
		config.InitConfig()
		cfg := config.Get()

		db, err := database.NewDB(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}

		if err := database.AutoMigrate(db); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		log.Println("Database migration completed")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
