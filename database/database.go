package database

import (
	"context"

	"gorm.io/gorm"
)

type Database struct {
	db               *gorm.DB
	projectRepo      *ProjectRepo
	siteSettingsRepo *SiteSettingsRepo
	adminRepo        *AdminRepo
}

// New initializes a new Database struct with each repository using a shared GORM database instance
func New(db *gorm.DB) Database {
	return Database{
		db:               db,
		projectRepo:      NewProjectRepo(db),
		siteSettingsRepo: NewSiteSettingsRepo(db),
		adminRepo:        NewAdminRepo(db),
	}
}

// Accessor methods for each repository

func (d Database) ProjectRepo() *ProjectRepo {
	return d.projectRepo
}

func (d Database) SiteSettingsRepo() *SiteSettingsRepo {
	return d.siteSettingsRepo
}

func (d Database) AdminRepo() *AdminRepo {
	return d.adminRepo
}

// Ping checks the primary connection.
func (d Database) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (d Database) Close(context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
