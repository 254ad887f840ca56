// Package app wires the client together: configuration, logging, the
// instance lock, the order journal and the brokerage client.
package app

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/kopoVIBE/Stoc.kr-sub000/internal/brokerage"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/event"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/infra"
	"github.com/kopoVIBE/Stoc.kr-sub000/internal/storage"
)

// Bootstrap orchestrates the application startup sequence.
type Bootstrap struct {
	Config  *infra.Config
	Logger  *slog.Logger
	Journal *storage.Journal
	Broker  *brokerage.Client

	unlock func()
}

func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization: config, logger,
// workspace directories, instance lock, journal database and the
// brokerage client.
func (b *Bootstrap) Initialize() error {
	event.Warmup()

	cfg, err := infra.LoadConfig(infra.ResolveConfigPath())
	if err != nil {
		return err
	}
	b.Config = cfg

	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	b.Logger = logger

	infra.PrintBanner(cfg)

	// Virtual and real trading never share a journal.
	mode := strings.ToLower(cfg.Trading.Mode)
	workDir := infra.GetWorkspaceDir()
	dataDir := filepath.Join(workDir, "data", mode)
	logDir := filepath.Join(workDir, "logs", mode)

	if err := infra.EnsureDir(dataDir); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	if err := infra.EnsureDir(logDir); err != nil {
		return fmt.Errorf("failed to create log dir: %w", err)
	}

	// One instance per journal; a second client would corrupt the WAL.
	unlock, err := infra.CreateLockFile(workDir)
	if err != nil {
		return err
	}
	b.unlock = unlock

	dbPath := filepath.Join(dataDir, "journal.db")
	journal, err := storage.OpenJournal(dbPath)
	if err != nil {
		b.unlock()
		return err
	}
	b.Journal = journal
	logger.Info("journal ready", "path", dbPath, "mode", mode)

	b.Broker = brokerage.NewClient(cfg, logger)
	return nil
}

// Close releases the journal and the instance lock.
func (b *Bootstrap) Close() {
	if b.Journal != nil {
		if err := b.Journal.Close(); err != nil {
			slog.Warn("journal close failed", "error", err)
		}
	}
	if b.unlock != nil {
		b.unlock()
	}
}
