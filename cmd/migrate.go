package cmd

import (
	"fmt"
	"os"

	"campus-enrollment/internal/config"
	"campus-enrollment/internal/infrastructure/database"
	"campus-enrollment/pkg/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration management",
	Long:  "Manage database migrations for the activities and enrollments tables",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Run pending migrations",
	Long:  "Execute all pending database migrations",
	Run:   runMigrateUp,
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show migration status",
	Long:  "Display the status of all migrations",
	Run:   runMigrateStatus,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)
	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "Migrations directory (overrides database.migrations_dir)")
}

func connectForMigrations() (*gorm.DB, string) {
	cfg := config.Get()

	dir := cfg.Database.MigrationsDir
	if migrationsDir != "" {
		dir = migrationsDir
	}

	db, err := database.NewConnection(databaseConfig(cfg))
	if err != nil {
		logger.Error("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	return db, dir
}

func runMigrateUp(cmd *cobra.Command, args []string) {
	db, dir := connectForMigrations()
	defer database.Close(db)

	if err := database.RunMigrations(db, dir); err != nil {
		logger.Error("Migration failed: %v", err)
		os.Exit(1)
	}

	fmt.Println("Migrations completed successfully!")
}

func runMigrateStatus(cmd *cobra.Command, args []string) {
	db, dir := connectForMigrations()
	defer database.Close(db)

	migrationRunner := database.NewMigrationRunner(db, dir)
	migrations, err := migrationRunner.GetMigrationStatus()
	if err != nil {
		logger.Error("Failed to get migration status: %v", err)
		os.Exit(1)
	}

	fmt.Println("Migration Status:")
	fmt.Println("================")
	for _, migration := range migrations {
		status := "Pending"
		if migration.AppliedAt != nil {
			status = fmt.Sprintf("Applied at %s", migration.AppliedAt.Format("2006-01-02 15:04:05"))
		}
		fmt.Printf("%s - %s [%s]\n", migration.ID, migration.Description, status)
	}
}
