package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/MrSnakeDoc/dashlink/internal/blob"
	"github.com/MrSnakeDoc/dashlink/internal/config"
	"github.com/MrSnakeDoc/dashlink/internal/fetch"
	"github.com/MrSnakeDoc/dashlink/internal/logger"
	"github.com/MrSnakeDoc/dashlink/internal/service"
	"github.com/MrSnakeDoc/dashlink/internal/store/sqlstore"
)

// Core is the storage and service layer shared by the server and the
// maintenance commands.
type Core struct {
	DB        *gorm.DB
	Store     *sqlstore.LinkStore
	Blobs     *blob.Store
	Links     *service.LinkService
	UserLinks *service.UserLinkService
	Icons     *service.IconService
	Settings  *service.SettingsService
}

// OpenDatabase connects and brings the schema up to date.
func OpenDatabase(cfg *config.Config, log logger.Logger) (*gorm.DB, error) {
	db, err := sqlstore.Open(sqlstore.Options{
		Driver:          cfg.DBDriver,
		DSN:             cfg.DBDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		SlowThreshold:   cfg.DBSlowThreshold,
	}, log)
	if err != nil {
		return nil, err
	}
	if err := sqlstore.Migrate(db); err != nil {
		_ = sqlstore.Close(db)
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// NewCore opens the database and the icon store and builds the services.
func NewCore(cfg *config.Config, log logger.Logger) (*Core, error) {
	db, err := OpenDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	blobs, err := blob.NewOS(cfg.DataDir)
	if err != nil {
		_ = sqlstore.Close(db)
		return nil, fmt.Errorf("failed to open icon store: %w", err)
	}

	redirects := cfg.IconMaxRedirect
	if redirects == 0 {
		redirects = fetch.NoRedirects
	}
	fetcher := fetch.New(fetch.Options{
		Timeout:      cfg.IconFetchTime,
		MaxRedirects: redirects,
	}, log)

	store := sqlstore.NewLinkStore(db)
	settings := service.NewSettingsService(sqlstore.NewSettingsStore(db), log)
	icons := service.NewIconService(store, blobs, fetcher, log)

	return &Core{
		DB:        db,
		Store:     store,
		Blobs:     blobs,
		Links:     service.NewLinkService(store, icons, log),
		UserLinks: service.NewUserLinkService(store, icons, settings, log),
		Icons:     icons,
		Settings:  settings,
	}, nil
}

func (c *Core) Close() error {
	return sqlstore.Close(c.DB)
}
