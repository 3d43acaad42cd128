package riverpress

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SECRET_KEY", "BASE_URL", "PORT", "ADMIN_PASSWORD", "ADMIN_PASSWORD_HASH",
		"DATABASE_URL", "DATABASE_PATH", "DATABASE", "POSTS_BACKUP_CSV", "UPLOADS_DIR",
		"TINYMCE_SCRIPT_URL", "TINYMCE_API_KEY", "ADOBE_FONTS_URL", "ADOBE_FONTS_KIT_ID",
		"COOKIE_SECURE", "LOG_LEVEL", "EXPORT_DIR", "NETLIFY_PUBLISH_DIR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	checks := []struct {
		name, got, want string
	}{
		{"BaseURL", cfg.BaseURL, "http://localhost:5000"},
		{"Addr", cfg.Addr, ":5000"},
		{"DatabasePath", cfg.DatabasePath, filepath.Join("instance", "grandriver.db")},
		{"BackupCSVPath", cfg.BackupCSVPath, filepath.Join("instance", "posts_backup.csv")},
		{"UploadsDir", cfg.UploadsDir, filepath.Join("instance", "uploads")},
		{"TinyMCEScriptURL", cfg.TinyMCEScriptURL, "https://cdn.jsdelivr.net/npm/tinymce@6.8.3/tinymce.min.js"},
		{"FontsURL", cfg.FontsURL, ""},
		{"LogLevel", cfg.LogLevel, "info"},
		{"ExportDir", cfg.ExportDir, "netlify_build"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
	if cfg.CSRFTTL != time.Hour || cfg.LoginMax != 5 || cfg.LoginWindow != time.Minute {
		t.Errorf("security defaults = %v %d %v", cfg.CSRFTTL, cfg.LoginMax, cfg.LoginWindow)
	}
}

func TestLoadConfigFromEnvFile(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), ".env")
	body := "SECRET_KEY=from-file\nBASE_URL=https://research.example.com/\nPORT=8080\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.SecretKey != "from-file" || cfg.Addr != ":8080" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.BaseURL != "https://research.example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", cfg.BaseURL)
	}
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	clearConfigEnv(t)
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestDatabasePath(t *testing.T) {
	tests := []struct {
		name, url, path, db, want string
	}{
		{"url wins", "sqlite:///data/site.db", "other.db", "x.db", "data/site.db"},
		{"url case insensitive", "SQLITE:///data/site.db", "", "", "data/site.db"},
		{"non sqlite url ignored", "postgres://db", "explicit.db", "", "explicit.db"},
		{"empty url path ignored", "sqlite:///", "", "named.db", filepath.Join("instance", "named.db")},
		{"path", "", "explicit.db", "x.db", "explicit.db"},
		{"name", "", "", "named.db", filepath.Join("instance", "named.db")},
		{"default", "", "", "", filepath.Join("instance", "grandriver.db")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := databasePath(tt.url, tt.path, tt.db); got != tt.want {
				t.Errorf("databasePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseTinyMCEKey(t *testing.T) {
	tests := []struct {
		raw, want string
	}{
		{"abc123", "abc123"},
		{"  abc123  ", "abc123"},
		{`{"apiKey": "k1"}`, "k1"},
		{`{"api_key": "k2"}`, "k2"},
		{`{"key": " k3 "}`, "k3"},
		{`{"n": "k4"}`, "k4"},
		{`{"other": "x"}`, `{"other": "x"}`},
		{`{broken`, `{broken`},
		{"", ""},
	}
	for _, tt := range tests {
		if got := parseTinyMCEKey(tt.raw); got != tt.want {
			t.Errorf("parseTinyMCEKey(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestTinyMCEScriptFromKey(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("TINYMCE_API_KEY", `{"apiKey":"tiny"}`)
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if want := "https://cdn.tiny.cloud/1/tiny/tinymce/6/tinymce.min.js"; cfg.TinyMCEScriptURL != want {
		t.Errorf("TinyMCEScriptURL = %q, want %q", cfg.TinyMCEScriptURL, want)
	}
}

func TestFontsURL(t *testing.T) {
	if got := fontsURL(" https://fonts.example/x.css ", "kit"); got != "https://fonts.example/x.css" {
		t.Errorf("explicit url: got %q", got)
	}
	if got := fontsURL("", "abc1def"); got != "https://use.typekit.net/abc1def.css" {
		t.Errorf("kit id: got %q", got)
	}
	if got := fontsURL("", " "); got != "" {
		t.Errorf("empty: got %q", got)
	}
}

func TestAdminPasswordHash(t *testing.T) {
	hash, defaulted, err := Config{}.adminPasswordHash()
	if err != nil {
		t.Fatal(err)
	}
	if !defaulted {
		t.Error("empty config should report the default password")
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(DefaultAdminPassword)) != nil {
		t.Error("default hash does not match the default password")
	}

	hash, defaulted, err = Config{AdminPassword: "s3cret"}.adminPasswordHash()
	if err != nil || defaulted {
		t.Fatalf("plain password: defaulted=%v err=%v", defaulted, err)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte("s3cret")) != nil {
		t.Error("hash does not match ADMIN_PASSWORD")
	}

	stored, _ := HashPassword("other")
	hash, _, _ = Config{AdminPassword: "s3cret", AdminPasswordHash: string(stored)}.adminPasswordHash()
	if string(hash) != string(stored) {
		t.Error("ADMIN_PASSWORD_HASH should win over ADMIN_PASSWORD")
	}
}

func TestSessionKey(t *testing.T) {
	key, random, err := Config{SecretKey: "fixed"}.sessionKey()
	if err != nil || random || string(key) != "fixed" {
		t.Errorf("configured key = %q random=%v err=%v", key, random, err)
	}
	a, random, _ := Config{}.sessionKey()
	b, _, _ := Config{}.sessionKey()
	if !random || len(a) != 32 || string(a) == string(b) {
		t.Errorf("random keys: len=%d random=%v equal=%v", len(a), random, string(a) == string(b))
	}
}
