package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8493},
		Upstream: UpstreamConfig{
			BaseURL:        "https://www.reddit.com",
			FetchTimeout:   2 * time.Second,
			ResolveTimeout: 5 * time.Second,
		},
		Embed: EmbedConfig{
			GalleryLimit:   4,
			ErrorEmbedRate: 0.1,
		},
		Media: MediaConfig{TokenSecret: "secret"},
	}
}

func TestConfig_Validate_Success(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("Validate() error = %v, want nil", err)
	}
}

func TestConfig_Validate_MissingTokenSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Media.TokenSecret = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing token secret")
	}
}

func TestConfig_Validate_MissingUpstreamBase(t *testing.T) {
	cfg := validConfig()
	cfg.Upstream.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate() = nil, want error for missing upstream base")
	}
}

func TestConfig_Validate_ErrorEmbedRateRange(t *testing.T) {
	tests := []struct {
		rate    float64
		wantErr bool
	}{
		{rate: 0, wantErr: false},
		{rate: 0.1, wantErr: false},
		{rate: 1, wantErr: false},
		{rate: -0.1, wantErr: true},
		{rate: 1.5, wantErr: true},
	}

	for _, tt := range tests {
		cfg := validConfig()
		cfg.Embed.ErrorEmbedRate = tt.rate
		err := cfg.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("Validate() with rate %v: error = %v, wantErr %v", tt.rate, err, tt.wantErr)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MEDIA_TOKEN_SECRET", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8493 {
		t.Errorf("port = %d, want default 8493", cfg.Server.Port)
	}
	if cfg.Upstream.BaseURL != "https://www.reddit.com" {
		t.Errorf("upstream base = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Upstream.FetchTimeout != 2*time.Second {
		t.Errorf("fetch timeout = %v, want 2s", cfg.Upstream.FetchTimeout)
	}
	if cfg.Upstream.ResolveTimeout != 5*time.Second {
		t.Errorf("resolve timeout = %v, want 5s", cfg.Upstream.ResolveTimeout)
	}
	if cfg.Embed.ErrorEmbedRate != 0.1 {
		t.Errorf("error embed rate = %v, want 0.1", cfg.Embed.ErrorEmbedRate)
	}
	if cfg.Embed.GalleryLimit != 4 {
		t.Errorf("gallery limit = %d, want 4", cfg.Embed.GalleryLimit)
	}
}

func TestLoad_FromFile(t *testing.T) {
	t.Setenv("MEDIA_TOKEN_SECRET", "secret")

	yaml := `
server:
  port: 9000
  public_base: https://embeds.example
upstream:
  base_url: https://upstream.example
embed:
  gallery_limit: 2
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000 from file", cfg.Server.Port)
	}
	if cfg.Server.PublicBase != "https://embeds.example" {
		t.Errorf("public base = %q", cfg.Server.PublicBase)
	}
	if cfg.Upstream.BaseURL != "https://upstream.example" {
		t.Errorf("upstream base = %q", cfg.Upstream.BaseURL)
	}
	if cfg.Embed.GalleryLimit != 2 {
		t.Errorf("gallery limit = %d, want 2 from file", cfg.Embed.GalleryLimit)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("MEDIA_TOKEN_SECRET", "secret")
	t.Setenv("SERVER_PORT", "7777")

	yaml := "server:\n  port: 9000\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want the environment override", cfg.Server.Port)
	}
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv("MEDIA_TOKEN_SECRET", "")

	cfg, err := Load("")
	if err == nil {
		t.Errorf("Load() = %+v, want error without MEDIA_TOKEN_SECRET", cfg)
	}
}

func TestServerConfig_Address(t *testing.T) {
	cfg := ServerConfig{Host: "127.0.0.1", Port: 8493}
	if got := cfg.Address(); got != "127.0.0.1:8493" {
		t.Errorf("Address() = %q", got)
	}
}
