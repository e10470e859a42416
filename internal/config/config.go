package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

type Config struct {
	Port  string `mapstructure:"port"`
	Env   string `mapstructure:"env"`
	Debug bool   `mapstructure:"debug"`
	Build string `mapstructure:"build"`

	// REST-бэкенд школы (расписание, ресурсы, медиа)
	BackendURL     string        `mapstructure:"backend_url"`
	BackendTimeout time.Duration `mapstructure:"backend_timeout"`

	// Хранилище схем: "memory" (default) | "postgres" | "sqlite"
	StoreDriver string `mapstructure:"store_driver"`
	DBURL       string `mapstructure:"db_url"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`

	// Таблицы сравнения: пусто = встроенные
	TablesDir   string `mapstructure:"tables_dir"`
	WatchTables bool   `mapstructure:"watch_tables"`

	SlotCacheTTL   time.Duration `mapstructure:"slot_cache_ttl"`
	HandoffTTL     time.Duration `mapstructure:"handoff_ttl"`
	SessionIdleTTL time.Duration `mapstructure:"session_idle_ttl"`

	RollbarToken string `mapstructure:"rollbar_token"`
}

const envPrefix = "SWIM"

var defaults = map[string]any{
	"port":             "8080",
	"env":              "development",
	"debug":            false,
	"build":            "dev",
	"backend_url":      "http://localhost:3000/api",
	"backend_timeout":  "15s",
	"store_driver":     "memory",
	"db_url":           "",
	"sqlite_path":      "data/swimlms.db",
	"auto_migrate":     true,
	"tables_dir":       "",
	"watch_tables":     false,
	"slot_cache_ttl":   "5m",
	"handoff_ttl":      "10m",
	"session_idle_ttl": "2h",
	"rollbar_token":    "",
}

// Load: defaults → JSON-файл → .env и SWIM_* → флаги. args: без имени программы.
func Load(args []string) (Config, error) {
	// .env необязателен
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "config: .env")
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	fs := flag.NewFlagSet("swimlms", flag.ContinueOnError)
	configPath := fs.String("config", envOr(envPrefix+"_CONFIG", "config.json"), "Path to config JSON")
	fs.String("port", "", "HTTP port")
	fs.String("env", "", "Environment name (development/production)")
	fs.Bool("debug", false, "Debug mode (gin debug, verbose log)")
	fs.String("backend-url", "", "Base URL of the school REST backend")
	fs.Duration("backend-timeout", 0, "Backend request timeout")
	fs.String("store-driver", "", "Schema store: memory/postgres/sqlite")
	fs.String("db-url", "", "Postgres URL (store-driver=postgres)")
	fs.String("sqlite-path", "", "SQLite file (store-driver=sqlite)")
	fs.Bool("auto-migrate", false, "Apply DDL on start")
	fs.String("tables-dir", "", "Directory with comparator field tables (empty = embedded)")
	fs.Bool("watch-tables", false, "Reload field tables on change")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if st, err := os.Stat(*configPath); err == nil && !st.IsDir() {
		v.SetConfigFile(*configPath)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, errors.Wrapf(err, "config: read %s", *configPath)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	// только явно переданные флаги перекрывают остальное
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			return
		}
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "config: decode")
	}
	cfg.trim()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(k, fallback string) string {
	if s, ok := os.LookupEnv(k); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

func (c *Config) trim() {
	c.Port = strings.TrimSpace(c.Port)
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	c.StoreDriver = strings.ToLower(strings.TrimSpace(c.StoreDriver))
	c.DBURL = strings.TrimSpace(c.DBURL)
	c.SQLitePath = strings.TrimSpace(c.SQLitePath)
	c.TablesDir = strings.TrimSpace(c.TablesDir)
}

func (c Config) validate() error {
	switch c.StoreDriver {
	case "memory", "sqlite":
	case "postgres":
		if c.DBURL == "" {
			return errors.New("config: db_url is required for store_driver=postgres")
		}
	default:
		return errors.Errorf("config: unknown store_driver %q", c.StoreDriver)
	}
	if c.BackendURL == "" {
		return errors.New("config: backend_url is required")
	}
	if c.WatchTables && c.TablesDir == "" {
		return errors.New("config: watch_tables needs tables_dir")
	}
	return nil
}

func (c Config) Production() bool { return c.Env == "production" }
