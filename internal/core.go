package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/starford/granola-sync/internal/granola"
	"github.com/starford/granola-sync/internal/index"
	"github.com/starford/granola-sync/internal/noteservice"
	"github.com/starford/granola-sync/internal/settings"
	"github.com/starford/granola-sync/internal/sse"
	"github.com/starford/granola-sync/internal/storage"
	"github.com/starford/granola-sync/internal/syncer"
	"github.com/starford/granola-sync/internal/vcs"
	pkgconfig "github.com/starford/granola-sync/pkg/config"
)

// core is the set of components every command needs.
type core struct {
	cfgMu      sync.Mutex
	cfg        *Config
	configPath string
	logger     *slog.Logger

	store    *storage.FS
	db       *index.DB
	settings *settings.Store
	syncer   *syncer.Syncer
	service  *noteservice.Service
}

func newLogger(cfg *Config, w io.Writer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
}

// newCore opens the vault and ledger and builds the sync service. broker may be nil.
func newCore(app *application, logger *slog.Logger, broker *sse.Broker) (*core, error) {
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	cfg := app.config

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init ledger: %w", err)
	}
	if n, err := index.Reconcile(db, store, logger); err != nil {
		logger.Warn("ledger reconcile failed", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Info("ledger reconciled", slog.Int("removed", n))
	}

	c := &core{
		cfg:        cfg,
		configPath: app.configPath,
		logger:     logger,
		store:      store,
		db:         db,
	}
	c.settings = settings.NewStore(cfg.Sync, c.persist)

	var clientOpts []granola.ClientOption
	if cfg.Granola.Timeout > 0 {
		clientOpts = append(clientOpts, granola.WithTimeout(cfg.Granola.Timeout))
	}
	client := granola.NewClient(cfg.Granola.BaseURL, clientOpts...)

	deps := syncer.Deps{
		Settings: c.settings,
		Store:    store,
		Tokens:   granola.TokenFile{},
		Fetcher:  client,
		Ledger:   db,
		Logger:   logger,
	}
	if broker != nil {
		deps.Publisher = broker
	}
	if cfg.Git.Enabled {
		deps.Committer = &vcs.Committer{
			VaultPath:   cfg.Vault.Path,
			AuthorName:  cfg.Git.AuthorName,
			AuthorEmail: cfg.Git.AuthorEmail,
			Push:        cfg.Git.Push,
			SSHKeyPath:  cfg.Git.SSHKeyPath,
			Logger:      logger,
		}
	}
	c.syncer = syncer.New(deps)
	c.service = noteservice.NewService(c.syncer, c.settings, store, db)

	c.settings.OnChange(c.onSettingsChange)
	return c, nil
}

// persist rewrites the sync section of the config file. Other sections are
// left untouched so environment references stay unexpanded on disk.
func (c *core) persist(next settings.Settings) error {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	if c.configPath != "" {
		if err := pkgconfig.SaveSection(c.configPath, "sync", &next); err != nil {
			return err
		}
	}
	c.cfg.Sync = next
	return nil
}

// onSettingsChange moves synced notes when the sync directory changes.
func (c *core) onSettingsChange(old, next settings.Settings) {
	if old.SyncDirectory == next.SyncDirectory {
		return
	}
	c.logger.Info("sync directory changed",
		slog.String("from", old.SyncDirectory),
		slog.String("to", next.SyncDirectory))
	if err := c.syncer.MoveDirectory(context.Background(), old.SyncDirectory, next.SyncDirectory); err != nil {
		c.logger.Error("move notes failed", slog.String("error", err.Error()))
	}
}

// reload re-reads the configuration file and applies its sync section.
func (c *core) reload() {
	fresh := NewDefaultConfig()
	if err := pkgconfig.Load(c.configPath, fresh); err != nil {
		c.logger.Warn("config reload failed", slog.String("error", err.Error()))
		return
	}
	c.cfgMu.Lock()
	c.cfg.Sync = fresh.Sync
	c.cfgMu.Unlock()
	if err := c.settings.Replace(fresh.Sync); err != nil {
		c.logger.Warn("config reload rejected", slog.String("error", err.Error()))
		return
	}
	c.logger.Info("settings reloaded", slog.String("path", c.configPath))
}

func (c *core) Close() error {
	return c.db.Close()
}
