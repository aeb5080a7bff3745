package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"todo-board/domain"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"DEBUG", "LISTEN_ADDR", "PORT", "TASK_SOURCE", "TASKS_API_URL", "BOARD_NAME",
		"STORAGE_CONNECTION_STRING", "TASKS_TABLE", "TASK_EVENTS_QUEUE", "DATABASE_URL",
		"REDIS_CONNECTION_STRING", "TASKS_CACHE_TTL", "DEDUPER_TTL", "STATIC_DIR", "BOARD_CONFIG",
	} {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.TaskSource != SourceRemote || cfg.ListenAddr != ":8080" || cfg.Board != "default" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.TasksCacheTTL != 5*time.Minute || cfg.DeduperTTL != 24*time.Hour {
		t.Fatalf("unexpected ttls: %v %v", cfg.TasksCacheTTL, cfg.DeduperTTL)
	}
	if len(cfg.Layout.Columns) != len(domain.DefaultColumns) {
		t.Fatalf("unexpected columns: %+v", cfg.Layout.Columns)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("DEBUG", "true")
	t.Setenv("PORT", "9090")
	t.Setenv("TASK_SOURCE", "Memory")
	t.Setenv("TASKS_CACHE_TTL", "0s")
	t.Setenv("DEDUPER_TTL", "1h")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !cfg.Debug || cfg.ListenAddr != ":9090" || cfg.TaskSource != SourceMemory {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if cfg.TasksCacheTTL != 0 || cfg.DeduperTTL != time.Hour {
		t.Fatalf("unexpected ttls: %v %v", cfg.TasksCacheTTL, cfg.DeduperTTL)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown source", env: map[string]string{"TASK_SOURCE": "firestore"}},
		{name: "table without connection", env: map[string]string{"TASK_SOURCE": "aztables", "TASKS_TABLE": "tasks"}},
		{name: "postgres without url", env: map[string]string{"TASK_SOURCE": "postgres"}},
		{name: "bad ttl", env: map[string]string{"TASKS_CACHE_TTL": "soon"}},
		{name: "zero deduper ttl", env: map[string]string{"DEDUPER_TTL": "0s"}},
		{name: "queue without connection", env: map[string]string{"TASK_EVENTS_QUEUE": "task-events"}},
		{name: "missing layout file", env: map[string]string{"BOARD_CONFIG": "/nonexistent/board.toml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "board.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadLayout(t *testing.T) {
	path := writeFile(t, `
title = "Semaine"

[sheet]
url = "/sheet.png"
width = 800
height = 600

[[columns]]
priority = "Now"
color = "#ff0000"

[[columns]]
priority = "Later"
`)
	layout, err := LoadLayout(path)
	if err != nil {
		t.Fatalf("load layout: %v", err)
	}
	if layout.Title != "Semaine" || layout.Sheet.URL != "/sheet.png" || layout.Sheet.Width != 800 {
		t.Fatalf("unexpected layout: %+v", layout)
	}
	want := []domain.Column{{Priority: "Now", Color: "#ff0000"}, {Priority: "Later", Color: domain.FallbackColor}}
	if len(layout.Columns) != 2 || layout.Columns[0] != want[0] || layout.Columns[1] != want[1] {
		t.Fatalf("unexpected columns: %+v", layout.Columns)
	}
}

func TestLoadLayoutKeepsDefaults(t *testing.T) {
	layout, err := LoadLayout(writeFile(t, `title = "Only a title"`))
	if err != nil {
		t.Fatalf("load layout: %v", err)
	}
	def := DefaultLayout()
	if layout.Sheet != def.Sheet || len(layout.Columns) != len(def.Columns) {
		t.Fatalf("expected defaults to survive: %+v", layout)
	}
}

func TestLoadLayoutRejectsUnknownKeys(t *testing.T) {
	if _, err := LoadLayout(writeFile(t, "[[columns]]\npriority = \"a\"\ncolour = \"#fff\"\n")); err == nil {
		t.Fatalf("expected unknown key error")
	}
	if _, err := LoadLayout(writeFile(t, "[[columns]]\ncolor = \"#fff\"\n")); err == nil {
		t.Fatalf("expected missing priority error")
	}
}

func TestRedisOptions(t *testing.T) {
	opts := RedisOptions("redis://:secret@localhost:6380/2")
	if opts.Addr != "localhost:6380" || opts.Password != "secret" || opts.DB != 2 {
		t.Fatalf("unexpected url options: %+v", opts)
	}

	opts = RedisOptions("cache.example.net:6380,password=pw,ssl=True,abortConnect=False")
	if opts.Addr != "cache.example.net:6380" || opts.Password != "pw" || opts.TLSConfig == nil {
		t.Fatalf("unexpected connection string options: %+v", opts)
	}
}
