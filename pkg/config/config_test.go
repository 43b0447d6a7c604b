package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/dasmlab/batchxlate/pkg/transport"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.GRPC.Port != 50051 || cfg.HTTP.Port != 8080 {
		t.Errorf("ports = %d/%d, want 50051/8080", cfg.GRPC.Port, cfg.HTTP.Port)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Translate.Endpoint != transport.DefaultEndpoint {
		t.Errorf("endpoint = %q", cfg.Translate.Endpoint)
	}
	if cfg.Translate.Timeout != 30*time.Second {
		t.Errorf("timeout = %s", cfg.Translate.Timeout)
	}
	if cfg.Translate.UserAgent != transport.DefaultUserAgent || cfg.Translate.Referer != transport.DefaultReferer {
		t.Errorf("headers = %q / %q", cfg.Translate.UserAgent, cfg.Translate.Referer)
	}
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "batchxlate.yaml")
	content := `grpc:
  port: 6000
http:
  port: 0
translate:
  endpoint: http://127.0.0.1:9000/batchexecute
  timeout: 5s
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BATCHXLATE_LOG_LEVEL", "debug")
	t.Setenv("BATCHXLATE_TRANSLATE_TIMEOUT", "7s")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("port", 50051, "")
	fs.String("endpoint", "", "")
	if err := fs.Parse([]string{"--port=7000"}); err != nil {
		t.Fatal(err)
	}

	v := New()
	if err := BindFlags(v, fs); err != nil {
		t.Fatalf("BindFlags: %v", err)
	}
	cfg, err := Load(v, path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	// Changed flag beats the file.
	if cfg.GRPC.Port != 7000 {
		t.Errorf("grpc port = %d, want 7000", cfg.GRPC.Port)
	}
	// Unchanged flag does not override the file.
	if cfg.Translate.Endpoint != "http://127.0.0.1:9000/batchexecute" {
		t.Errorf("endpoint = %q", cfg.Translate.Endpoint)
	}
	if cfg.HTTP.Port != 0 {
		t.Errorf("http port = %d, want 0", cfg.HTTP.Port)
	}
	// Environment beats the file.
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Translate.Timeout != 7*time.Second {
		t.Errorf("timeout = %s, want 7s", cfg.Translate.Timeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(New(), filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"grpc port zero", func(c *Config) { c.GRPC.Port = 0 }, KeyGRPCPort},
		{"grpc port too large", func(c *Config) { c.GRPC.Port = 70000 }, KeyGRPCPort},
		{"http port negative", func(c *Config) { c.HTTP.Port = -1 }, KeyHTTPPort},
		{"zero timeout", func(c *Config) { c.Translate.Timeout = 0 }, KeyTranslateTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				GRPC:      GRPCConfig{Port: 50051},
				HTTP:      HTTPConfig{Port: 8080},
				Translate: TranslateConfig{Timeout: time.Second},
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}

func TestDump_ReadableByLoad(t *testing.T) {
	cfg, err := Load(New(), "")
	if err != nil {
		t.Fatal(err)
	}
	cfg.GRPC.Port = 6001
	cfg.Translate.Timeout = 1500 * time.Millisecond

	var buf bytes.Buffer
	if err := Dump(&buf, cfg); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(buf.String(), "timeout: 1.5s") {
		t.Errorf("dump does not contain readable timeout:\n%s", buf.String())
	}

	path := filepath.Join(t.TempDir(), "dump.yaml")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(New(), path)
	if err != nil {
		t.Fatalf("Load dumped config: %v", err)
	}
	if *got != *cfg {
		t.Errorf("reloaded config = %+v, want %+v", *got, *cfg)
	}
}
