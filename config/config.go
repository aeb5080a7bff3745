package config

import (
	"crypto/tls"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"todo-board/domain"
)

// Task sources selectable through TASK_SOURCE.
const (
	SourceRemote   = "remote"
	SourceTable    = "aztables"
	SourcePostgres = "postgres"
	SourceMemory   = "memory"
)

// Config holds process settings.
type Config struct {
	Debug      bool
	ListenAddr string

	TaskSource  string
	TasksAPIURL string
	Board       string

	StorageConnectionString string
	TasksTable              string
	TaskEventsQueue         string
	DatabaseURL             string

	RedisConnectionString string
	TasksCacheTTL         time.Duration
	DeduperTTL            time.Duration

	StaticDir string
	Layout    Layout
}

// Layout describes the printed sheet and its priority columns.
type Layout struct {
	Title   string          `toml:"title"`
	Sheet   Sheet           `toml:"sheet"`
	Columns []domain.Column `toml:"columns"`
}

// Sheet is the background image the board is drawn over.
type Sheet struct {
	URL    string  `toml:"url"`
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

// DefaultLayout matches the bundled task sheet.
func DefaultLayout() Layout {
	cols := make([]domain.Column, len(domain.DefaultColumns))
	copy(cols, domain.DefaultColumns)
	return Layout{
		Title:   "Ma To-Do List",
		Sheet:   Sheet{URL: "/static/todolist_sheet.jpg", Width: 1414, Height: 2000},
		Columns: cols,
	}
}

// Load reads a .env file when present, then the environment, then the board
// layout file named by BOARD_CONFIG.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		ListenAddr:    ":8080",
		TaskSource:    SourceRemote,
		Board:         "default",
		TasksAPIURL:   "http://localhost:8000",
		TasksCacheTTL: 5 * time.Minute,
		DeduperTTL:    24 * time.Hour,
		Layout:        DefaultLayout(),
	}

	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil {
		cfg.Debug = dbg
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	} else if v := os.Getenv("PORT"); v != "" {
		cfg.ListenAddr = ":" + v
	}
	if v := os.Getenv("TASK_SOURCE"); v != "" {
		cfg.TaskSource = strings.ToLower(v)
	}
	if v := os.Getenv("TASKS_API_URL"); v != "" {
		cfg.TasksAPIURL = v
	}
	if v := os.Getenv("BOARD_NAME"); v != "" {
		cfg.Board = v
	}
	cfg.StorageConnectionString = os.Getenv("STORAGE_CONNECTION_STRING")
	cfg.TasksTable = os.Getenv("TASKS_TABLE")
	cfg.TaskEventsQueue = os.Getenv("TASK_EVENTS_QUEUE")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.RedisConnectionString = os.Getenv("REDIS_CONNECTION_STRING")
	cfg.StaticDir = os.Getenv("STATIC_DIR")

	var err error
	if cfg.TasksCacheTTL, err = envDuration("TASKS_CACHE_TTL", cfg.TasksCacheTTL, true); err != nil {
		return nil, err
	}
	if cfg.DeduperTTL, err = envDuration("DEDUPER_TTL", cfg.DeduperTTL, false); err != nil {
		return nil, err
	}

	if path := os.Getenv("BOARD_CONFIG"); path != "" {
		layout, err := LoadLayout(path)
		if err != nil {
			return nil, err
		}
		cfg.Layout = layout
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func envDuration(name string, def time.Duration, allowZero bool) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: must be greater than zero", name)
	}
	return d, nil
}

func (c *Config) validate() error {
	switch c.TaskSource {
	case SourceRemote:
		if c.TasksAPIURL == "" {
			return errors.New("missing TASKS_API_URL")
		}
	case SourceTable:
		if c.StorageConnectionString == "" || c.TasksTable == "" {
			return errors.New("missing storage config")
		}
	case SourcePostgres:
		if c.DatabaseURL == "" {
			return errors.New("missing DATABASE_URL")
		}
	case SourceMemory:
	default:
		return fmt.Errorf("unsupported TASK_SOURCE %q", c.TaskSource)
	}
	if c.TaskEventsQueue != "" && c.StorageConnectionString == "" {
		return errors.New("TASK_EVENTS_QUEUE requires STORAGE_CONNECTION_STRING")
	}
	return nil
}

// LoadLayout decodes a TOML layout file over the defaults. Unknown keys are
// rejected so typos in column definitions do not go unnoticed.
func LoadLayout(path string) (Layout, error) {
	layout := DefaultLayout()
	var file Layout
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return Layout{}, fmt.Errorf("loading board config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Layout{}, fmt.Errorf("board config %s: unknown key %q", path, undecoded[0].String())
	}
	if file.Title != "" {
		layout.Title = file.Title
	}
	if file.Sheet.URL != "" {
		layout.Sheet.URL = file.Sheet.URL
	}
	if file.Sheet.Width > 0 && file.Sheet.Height > 0 {
		layout.Sheet.Width = file.Sheet.Width
		layout.Sheet.Height = file.Sheet.Height
	}
	if len(file.Columns) > 0 {
		for i, c := range file.Columns {
			if c.Priority == "" {
				return Layout{}, fmt.Errorf("board config %s: column %d has no priority", path, i+1)
			}
			if c.Color == "" {
				file.Columns[i].Color = domain.FallbackColor
			}
		}
		layout.Columns = file.Columns
	}
	return layout, nil
}

// RedisOptions accepts either a redis:// URL or the "host:port,password=...,ssl=true"
// form used by Azure Cache for Redis.
func RedisOptions(conn string) *redis.Options {
	if opts, err := redis.ParseURL(conn); err == nil {
		return opts
	}
	parts := strings.Split(conn, ",")
	opts := &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(kv[0])) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
