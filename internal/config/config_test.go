package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/larder/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "larder"
user = "larder"
password = "larder"

[storage]
root = "data"

[api]
base_path = "/api"
max_upload_size = "5MB"

[api.cors]
enabled = true
origins = ["http://localhost:3000"]

[api.pagination]
default_page_size = 25

[detection]
url = "http://detector:8001"
timeout = "45s"

[ranking]
url = "http://ranker:8002"

[workflow]
top_n = 10
sample_image = "fridge_images/demo.jpg"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[workflow]
top_n = 5
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"server port", cfg.Server.Port, 8080},
		{"db host", cfg.Database.Host, "localhost"},
		{"storage root", cfg.Storage.Root, "data"},
		{"api base path", cfg.API.BasePath, "/api"},
		{"cors enabled", cfg.API.CORS.Enabled, true},
		{"detection url", cfg.Detection.URL, "http://detector:8001"},
		{"detection timeout", cfg.Detection.TimeoutDuration(), 45 * time.Second},
		{"ranking url", cfg.Ranking.URL, "http://ranker:8002"},
		{"ranking timeout default", cfg.Ranking.Timeout, "30s"},
		{"images url default", cfg.Images.URL, "http://localhost:8003"},
		{"workflow top_n", cfg.Workflow.TopN, 10},
		{"workflow sample", cfg.Workflow.SampleImage, "fridge_images/demo.jpg"},
		{"workflow capture dir default", cfg.Workflow.CaptureDir, "fridge_images"},
		{"max upload", cfg.API.MaxUploadSizeBytes(), int64(5 << 20)},
		{"page size", cfg.API.Pagination.DefaultPageSize, 25},
		{"max page size default", cfg.API.Pagination.MaxPageSize, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("LARDER_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
	if cfg.Workflow.TopN != 5 {
		t.Errorf("top_n: got %d, want 5 (from overlay)", cfg.Workflow.TopN)
	}
	if !cfg.API.CORS.Enabled {
		t.Error("cors enabled should survive an overlay that omits it")
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("LARDER_VERSION", "2.0.0")
	t.Setenv("LARDER_SERVER_PORT", "3000")
	t.Setenv("LARDER_RANKING_URL", "https://rank.internal")
	t.Setenv("LARDER_WORKFLOW_TOP_N", "3")
	t.Setenv("LARDER_STORAGE_ROOT", "/var/lib/larder")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Ranking.URL != "https://rank.internal" {
		t.Errorf("ranking url: got %s", cfg.Ranking.URL)
	}
	if cfg.Workflow.TopN != 3 {
		t.Errorf("top_n: got %d, want 3", cfg.Workflow.TopN)
	}
	if cfg.Storage.Root != "/var/lib/larder" {
		t.Errorf("storage root: got %s", cfg.Storage.Root)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("LARDER_DB_NAME", "testdb")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.Detection.Timeout != "60s" {
		t.Errorf("detection timeout default: got %s, want 60s", cfg.Detection.Timeout)
	}
	if cfg.Workflow.TopN != 10 {
		t.Errorf("top_n default: got %d, want 10", cfg.Workflow.TopN)
	}
	if cfg.API.MaxUploadSizeBytes() != 10<<20 {
		t.Errorf("max upload default: got %d", cfg.API.MaxUploadSizeBytes())
	}
	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
	if cfg.ShutdownTimeoutDuration() != 30*time.Second {
		t.Errorf("shutdown timeout: got %v", cfg.ShutdownTimeoutDuration())
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `server = [`)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{"invalid port", "[server]\nport = 99999", "invalid port"},
		{"invalid shutdown", `shutdown_timeout = "soon"`, "shutdown_timeout"},
		{"invalid detection url", "[detection]\nurl = \"detector:8001\"", "detection"},
		{"invalid ranking timeout", "[ranking]\ntimeout = \"-1s\"", "ranking"},
		{"invalid upload size", "[api]\nmax_upload_size = \"lots\"", "max_upload_size"},
		{"absolute sample image", "[workflow]\nsample_image = \"/etc/passwd\"", "sample_image"},
		{"storage at filesystem root", "[storage]\nroot = \"/\"", "storage"},
		{"write timeout shorter than detection", "[server]\nwrite_timeout = \"30s\"", "write_timeout"},
		{"write timeout shorter than search", "[server]\nwrite_timeout = \"2m\"\n[ranking]\ntimeout = \"90s\"", "write_timeout"},
		{"zero read timeout", "[server]\nread_timeout = \"0s\"", "read_timeout"},
		{"top_n above cap", "[workflow]\ntop_n = 20", "top_n"},
		{"page size over max", "[api.pagination]\ndefault_page_size = 500", "pagination"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q should mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"megabytes", "10MB", 10 << 20},
		{"kilobytes", "512KB", 512 << 10},
		{"bare bytes", "2048", 2048},
		{"invalid falls back", "bad", 10 << 20},
		{"empty falls back", "", 10 << 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestExternalCallBudget(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	// ranking 30s + ceil(10/4) image rounds of 10s beats detection at 45s.
	if got := cfg.ExternalCallBudget(); got != 60*time.Second {
		t.Errorf("ExternalCallBudget() = %v, want 1m0s", got)
	}
	if cfg.Server.WriteTimeoutDuration() <= cfg.ExternalCallBudget() {
		t.Error("loaded config should leave the write deadline above the budget")
	}
}

func TestServerAddr(t *testing.T) {
	cfg := config.ServerConfig{Host: "::1", Port: 8080}
	if got := cfg.Addr(); got != "[::1]:8080" {
		t.Errorf("Addr() = %s, want [::1]:8080", got)
	}
}

func TestServiceMerge(t *testing.T) {
	base := config.ServiceConfig{URL: "http://a:1", Timeout: "5s"}
	base.Merge(&config.ServiceConfig{Timeout: "9s"})

	if base.URL != "http://a:1" || base.Timeout != "9s" {
		t.Errorf("merge: got %+v", base)
	}
}
