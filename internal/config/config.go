package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	appName  = "linkdir"
	fileName = "config"
	fileType = "yaml"

	// EnvPrefix prefixes every environment override, e.g. LINKDIR_HOST_DIR.
	EnvPrefix = "LINKDIR"
)

// Config holds every runtime setting.
type Config struct {
	DBPath  string       `mapstructure:"db_path"`
	HostDir string       `mapstructure:"host_dir"`
	GitHub  GitHubConfig `mapstructure:"github"`
	Feed    FeedConfig   `mapstructure:"feed"`
	Log     LogConfig    `mapstructure:"log"`
	Server  ServerConfig `mapstructure:"server"`
}

// GitHubConfig configures the live repository listing.
type GitHubConfig struct {
	Owner   string        `mapstructure:"owner"`
	APIBase string        `mapstructure:"api_base"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FeedConfig points at an out-of-band snapshot of the repository listing.
type FeedConfig struct {
	Snapshot string `mapstructure:"snapshot"`
}

// LogConfig controls the slog handler.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig configures `linkdir serve`.
type ServerConfig struct {
	Listen         string   `mapstructure:"listen"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Dir returns the linkdir config directory inside the platform config directory.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// FilePath returns the default config file location.
func FilePath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fileName+"."+fileType), nil
}

// DefaultDBPath returns the default database path.
func DefaultDBPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appName+".db"), nil
}

func setDefaults(v *viper.Viper) {
	dbPath, err := DefaultDBPath()
	if err != nil {
		dbPath = appName + ".db"
	}
	v.SetDefault("db_path", dbPath)
	v.SetDefault("host_dir", "")
	v.SetDefault("github.owner", "dykongshan")
	v.SetDefault("github.api_base", "https://api.github.com")
	v.SetDefault("github.token", "")
	v.SetDefault("github.timeout", "15s")
	v.SetDefault("feed.snapshot", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("server.listen", "127.0.0.1:8787")
	v.SetDefault("server.allowed_origins", []string{"*"})
}

// Load reads configuration. An empty path means the default file, which may
// be absent. An explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("github.token", EnvPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN"); err != nil {
		return nil, fmt.Errorf("bind github token env: %w", err)
	}

	explicit := path != ""
	if !explicit {
		if p, err := FilePath(); err == nil {
			path = p
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType(fileType)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if explicit {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
