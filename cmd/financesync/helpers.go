package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cchome2024/FinanceSync/internal/attachments"
	"github.com/cchome2024/FinanceSync/internal/config"
	"github.com/cchome2024/FinanceSync/internal/engine"
	"github.com/cchome2024/FinanceSync/internal/extract"
	"github.com/cchome2024/FinanceSync/internal/ofx"
	"github.com/cchome2024/FinanceSync/internal/service"
	"github.com/cchome2024/FinanceSync/internal/storage"
	"github.com/spf13/viper"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// loadSettings reads the typed settings from the global viper instance.
func loadSettings() (*config.Settings, error) {
	return config.Load(viper.GetViper())
}

// initStorage opens the database and runs migrations.
func initStorage(ctx context.Context, settings *config.Settings) (service.Storage, error) {
	if err := config.EnsureParentDir(settings.Database.Path); err != nil {
		return nil, err
	}

	store, err := storage.NewSQLiteStorage(settings.Database.Path)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// app bundles what most commands need. close releases everything it opened.
type app struct {
	settings *config.Settings
	store    service.Storage
	engine   *engine.Engine
	closers  []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("Failed to close resource", "error", err)
		}
	}
}

// initApp opens storage and the attachment store selected by storage.provider.
func initApp(ctx context.Context) (*app, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	store, err := initStorage(ctx, settings)
	if err != nil {
		return nil, err
	}
	a := &app{settings: settings, store: store, closers: []func() error{store.Close}}

	blobs, err := initBlobStore(ctx, settings, a)
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = engine.New(store, blobs)
	return a, nil
}

func initBlobStore(ctx context.Context, settings *config.Settings, a *app) (attachments.Store, error) {
	switch settings.Storage.Provider {
	case "gcs":
		gcs, err := attachments.NewGCSStore(ctx, settings.Storage.Bucket, settings.Storage.CredentialsFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, gcs.Close)
		return gcs, nil
	default:
		return attachments.NewLocalStore(settings.Storage.LocalPath)
	}
}

// extractorFor picks the extractor for a set of files: OFX statements
// first, then by the first file's extension.
func extractorFor(files []extract.File) extract.Extractor {
	for _, f := range files {
		if ofx.IsStatement(f.Name) {
			return ofx.NewParser()
		}
	}
	if len(files) == 0 {
		return extract.NewJSONExtractor()
	}
	return extract.ForFile(files[0].Name)
}

// extractorForName adapts extractorFor to a single file name.
func extractorForName(name string) extract.Extractor {
	return extractorFor([]extract.File{{Name: name}})
}

// extractorForInput adapts extractorFor to an uploaded input.
func extractorForInput(in extract.Input) extract.Extractor {
	return extractorFor(in.Files)
}

// readFiles loads files from disk.
func readFiles(paths []string) ([]extract.File, error) {
	files := make([]extract.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Clean(p))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, extract.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}
