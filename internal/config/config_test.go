package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/theirongolddev/finplan/internal/model"
)

func useTempConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "finplan", "config.toml")
	SetPath(path)
	t.Cleanup(func() { SetPath("") })
	return path
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	useTempConfig(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.HorizonMonths != 12 {
		t.Errorf("HorizonMonths = %d, want 12", cfg.General.HorizonMonths)
	}
	if cfg.OpenAI.Model != DefaultOpenAIModel {
		t.Errorf("OpenAI.Model = %q, want %q", cfg.OpenAI.Model, DefaultOpenAIModel)
	}
	if cfg.Daemon.RefreshCron != DefaultRefreshCron {
		t.Errorf("RefreshCron = %q, want %q", cfg.Daemon.RefreshCron, DefaultRefreshCron)
	}
	if Exists() {
		t.Error("Exists() = true before Save")
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := useTempConfig(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	body := `
[general]
horizon_months = 36

[rates.defaults]
crypto = 0.05

[rates.symbols]
stocks = "vti"
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.General.HorizonMonths != 36 {
		t.Errorf("HorizonMonths = %d, want 36", cfg.General.HorizonMonths)
	}
	if cfg.General.SavingsTarget != 10000 {
		t.Errorf("SavingsTarget = %f, want default 10000", cfg.General.SavingsTarget)
	}
	if got := LookupDefaultRate(cfg, model.AssetCrypto); got != 0.05 {
		t.Errorf("crypto rate = %f, want 0.05", got)
	}
	if got := LookupDefaultRate(cfg, model.AssetBonds); got != 0.003 {
		t.Errorf("bonds rate = %f, want 0.003", got)
	}
	if got := LookupSymbol(cfg, model.AssetStocks); got != "VTI" {
		t.Errorf("stocks symbol = %q, want VTI", got)
	}
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := useTempConfig(t)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[general\nhorizon_months ="), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(); err == nil {
		t.Fatal("Load accepted invalid TOML")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := useTempConfig(t)

	cfg := DefaultConfig()
	cfg.Botpress.Token = "bp-token"
	cfg.Botpress.BotID = "bot-123"
	cfg.General.LogLevel = "debug"
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !Exists() {
		t.Fatal("Exists() = false after Save")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config perm = %o, want 600", perm)
	}

	got, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Botpress.BotID != "bot-123" || got.General.LogLevel != "debug" {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestSecretsPreferEnvironment(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpenAI.APIKey = "from-file"
	cfg.Botpress.BotID = "file-bot"

	t.Setenv("OPENAI_API_KEY", "")
	if got := GetOpenAIKey(cfg); got != "from-file" {
		t.Errorf("GetOpenAIKey = %q, want from-file", got)
	}

	t.Setenv("OPENAI_API_KEY", "from-env")
	t.Setenv("BOTPRESS_BOT_ID", "env-bot")
	if got := GetOpenAIKey(cfg); got != "from-env" {
		t.Errorf("GetOpenAIKey = %q, want from-env", got)
	}
	if got := GetBotpressBotID(cfg); got != "env-bot" {
		t.Errorf("GetBotpressBotID = %q, want env-bot", got)
	}
}

func TestLookupSymbol_NonTradable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Rates.Symbols = map[string]string{"crypto": "BTC"}
	if got := LookupSymbol(cfg, model.AssetCrypto); got != "" {
		t.Errorf("crypto symbol = %q, want empty", got)
	}
	if got := LookupSymbol(cfg, model.AssetBonds); got != "AGG" {
		t.Errorf("bonds symbol = %q, want AGG", got)
	}
}

func TestCacheTTL(t *testing.T) {
	cfg := DefaultConfig()
	if got := CacheTTL(cfg); got != 24*time.Hour {
		t.Errorf("CacheTTL = %v, want 24h", got)
	}
	cfg.Rates.CacheTTLHours = 0
	if got := CacheTTL(cfg); got != 0 {
		t.Errorf("CacheTTL = %v, want 0", got)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", "(not set)"},
		{"short", "****"},
		{"sk-abcdefghijkl", "sk-a...ijkl"},
	}
	for _, tt := range tests {
		if got := MaskSecret(tt.in); got != tt.want {
			t.Errorf("MaskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
