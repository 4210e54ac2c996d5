package cmd

import (
	"fmt"
	"time"

	"campus-enrollment/internal/config"
	"campus-enrollment/internal/infrastructure/database"
	"campus-enrollment/internal/infrastructure/memory"
	"campus-enrollment/internal/infrastructure/repository"
	interfaces "campus-enrollment/internal/interfaces/infrastructure"
	serviceInterfaces "campus-enrollment/internal/interfaces/service"
	"campus-enrollment/pkg/logger"

	"gorm.io/gorm"
)

// storage is the record store selected by store.type.
type storage struct {
	transactor interfaces.Transactor
	reports    interfaces.ReportRepository
	pingers    map[string]serviceInterfaces.Pinger
	db         *gorm.DB
}

func (s *storage) Close() {
	if s.db == nil {
		return
	}
	if err := database.Close(s.db); err != nil {
		logger.Warn("Failed to close database: %v", err)
	}
}

func databaseConfig(cfg *config.Config) database.Config {
	return database.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.Username,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.Name,
		SSLMode:         cfg.Database.SSLMode,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Database.ConnMaxLifetime) * time.Second,
		LogQueries:      cfg.Database.LogQueries,
	}
}

func openStorage(cfg *config.Config, migrate bool) (*storage, error) {
	switch cfg.Store.Type {
	case "memory":
		logger.Warn("Using in-memory store; records are lost on exit")
		store := memory.NewStore()
		return &storage{
			transactor: store,
			reports:    store,
			pingers:    map[string]serviceInterfaces.Pinger{"store": store},
		}, nil
	case "postgres", "":
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}

	db, err := database.NewConnection(databaseConfig(cfg))
	if err != nil {
		return nil, err
	}

	if migrate {
		if err := database.RunMigrations(db, cfg.Database.MigrationsDir); err != nil {
			_ = database.Close(db)
			return nil, err
		}
	}

	sqlxDB, err := database.NewSQLX(db)
	if err != nil {
		_ = database.Close(db)
		return nil, err
	}

	return &storage{
		transactor: repository.NewTransactor(db),
		reports:    repository.NewReportRepository(sqlxDB),
		pingers:    map[string]serviceInterfaces.Pinger{"database": database.NewPinger(db)},
		db:         db,
	}, nil
}
