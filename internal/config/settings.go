package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// Settings is the typed view of the viper configuration.
type Settings struct {
	Database DatabaseSettings
	Logging  LoggingSettings
	Storage  StorageSettings
	Server   ServerSettings
	Plaid    PlaidSettings
	Import   ImportSettings
}

// DatabaseSettings locates the SQLite file.
type DatabaseSettings struct {
	Path string
}

// LoggingSettings configures the default slog handler.
type LoggingSettings struct {
	Level  string
	Format string
}

// StorageSettings selects where uploaded attachments are kept.
type StorageSettings struct {
	Provider        string // local or gcs
	LocalPath       string
	Bucket          string
	CredentialsFile string
}

// ServerSettings configures the HTTP API.
type ServerSettings struct {
	Addr string
}

// PlaidSettings holds the linked item used by the sync command.
type PlaidSettings struct {
	ClientID    string
	Secret      string
	Environment string
	AccessToken string
}

// ImportSettings holds import defaults.
type ImportSettings struct {
	CompanyID   string
	WatchDir    string
	InitiatorID string
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "~/.local/share/financesync/financesync.db")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("storage.provider", "local")
	v.SetDefault("storage.local_path", "~/.local/share/financesync/attachments")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("plaid.environment", "sandbox")
	v.SetDefault("import.initiator_id", "cli")
}

// Load reads Settings from v, expanding paths.
func Load(v *viper.Viper) (*Settings, error) {
	s := &Settings{
		Database: DatabaseSettings{Path: ExpandPath(v.GetString("database.path"))},
		Logging: LoggingSettings{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Storage: StorageSettings{
			Provider:        v.GetString("storage.provider"),
			LocalPath:       ExpandPath(v.GetString("storage.local_path")),
			Bucket:          v.GetString("storage.bucket"),
			CredentialsFile: ExpandPath(v.GetString("storage.credentials_file")),
		},
		Server: ServerSettings{Addr: v.GetString("server.addr")},
		Plaid: PlaidSettings{
			ClientID:    v.GetString("plaid.client_id"),
			Secret:      v.GetString("plaid.secret"),
			Environment: v.GetString("plaid.environment"),
			AccessToken: v.GetString("plaid.access_token"),
		},
		Import: ImportSettings{
			CompanyID:   v.GetString("import.company_id"),
			WatchDir:    ExpandPath(v.GetString("import.watch_dir")),
			InitiatorID: v.GetString("import.initiator_id"),
		},
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the settings that have a fixed set of values.
func (s *Settings) Validate() error {
	if s.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	switch s.Storage.Provider {
	case "local":
		if s.Storage.LocalPath == "" {
			return fmt.Errorf("storage.local_path is required for the local provider")
		}
	case "gcs":
		if s.Storage.Bucket == "" {
			return fmt.Errorf("storage.bucket is required for the gcs provider")
		}
	default:
		return fmt.Errorf("invalid storage.provider %q: must be local or gcs", s.Storage.Provider)
	}
	return nil
}
