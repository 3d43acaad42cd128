package riverpress

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// DefaultAdminPassword is used, with a startup warning, when neither
// ADMIN_PASSWORD_HASH nor ADMIN_PASSWORD is configured.
const DefaultAdminPassword = "researchadmin"

// Config holds all configuration for a riverpress site.
type Config struct {
	SecretKey string // session signing key (random per process if empty)
	BaseURL   string // fallback canonical URL (default "http://localhost:5000")
	Addr      string // listen address (default ":5000")

	AdminPassword     string // plain password, hashed at startup
	AdminPasswordHash string // bcrypt hash; wins over AdminPassword

	DatabasePath  string // SQLite file (default "instance/grandriver.db")
	BackupCSVPath string // posts CSV mirror (default next to the database)
	UploadsDir    string // uploaded images (default "uploads" next to the database)

	TinyMCEScriptURL string
	TinyMCEAPIKey    string
	FontsURL         string

	CookieSecure bool
	LogLevel     string // debug, info, warn, error (default info)
	ExportDir    string // static export output (default "netlify_build")

	CSRFTTL       time.Duration // default 1h
	LoginMax      int           // failed logins per LoginWindow (default 5)
	LoginWindow   time.Duration // default 1m
	SessionMaxAge int           // seconds (default 12h)
}

func (c *Config) setDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = "http://localhost:5000"
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if c.Addr == "" {
		c.Addr = ":5000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join("instance", "grandriver.db")
	}
	if c.BackupCSVPath == "" {
		c.BackupCSVPath = filepath.Join(filepath.Dir(c.DatabasePath), "posts_backup.csv")
	}
	if c.UploadsDir == "" {
		c.UploadsDir = filepath.Join(filepath.Dir(c.DatabasePath), "uploads")
	}
	if c.TinyMCEScriptURL == "" {
		if c.TinyMCEAPIKey != "" {
			c.TinyMCEScriptURL = "https://cdn.tiny.cloud/1/" + c.TinyMCEAPIKey + "/tinymce/6/tinymce.min.js"
		} else {
			c.TinyMCEScriptURL = "https://cdn.jsdelivr.net/npm/tinymce@6.8.3/tinymce.min.js"
		}
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.ExportDir == "" {
		c.ExportDir = "netlify_build"
	}
	if c.CSRFTTL == 0 {
		c.CSRFTTL = time.Hour
	}
	if c.LoginMax == 0 {
		c.LoginMax = 5
	}
	if c.LoginWindow == 0 {
		c.LoginWindow = time.Minute
	}
	if c.SessionMaxAge == 0 {
		c.SessionMaxAge = 60 * 60 * 12
	}
}

// LoadConfig reads configuration from the environment, layered over an
// optional dotenv file. A missing envFile is not an error.
func LoadConfig(envFile string) (Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", "5000")
	v.SetDefault("database", "grandriver.db")

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			v.SetConfigFile(envFile)
			v.SetConfigType("env")
			if err := v.ReadInConfig(); err != nil {
				return Config{}, fmt.Errorf("read %s: %w", envFile, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, err
		}
	}

	cfg := Config{
		SecretKey:         v.GetString("secret_key"),
		BaseURL:           v.GetString("base_url"),
		Addr:              ":" + v.GetString("port"),
		AdminPassword:     v.GetString("admin_password"),
		AdminPasswordHash: v.GetString("admin_password_hash"),
		DatabasePath: databasePath(
			v.GetString("database_url"), v.GetString("database_path"), v.GetString("database")),
		BackupCSVPath:    strings.TrimSpace(v.GetString("posts_backup_csv")),
		UploadsDir:       strings.TrimSpace(v.GetString("uploads_dir")),
		TinyMCEScriptURL: strings.TrimSpace(v.GetString("tinymce_script_url")),
		TinyMCEAPIKey:    parseTinyMCEKey(v.GetString("tinymce_api_key")),
		FontsURL:         fontsURL(v.GetString("adobe_fonts_url"), v.GetString("adobe_fonts_kit_id")),
		CookieSecure:     v.GetBool("cookie_secure"),
		LogLevel:         v.GetString("log_level"),
		ExportDir:        firstNonEmpty(v.GetString("export_dir"), v.GetString("netlify_publish_dir")),
	}
	cfg.setDefaults()
	return cfg, nil
}

// databasePath resolves DATABASE_URL (sqlite:///path), then DATABASE_PATH,
// then instance/<DATABASE>.
func databasePath(databaseURL, path, name string) string {
	databaseURL = strings.TrimSpace(databaseURL)
	if strings.HasPrefix(strings.ToLower(databaseURL), "sqlite:///") {
		if candidate := databaseURL[len("sqlite:///"):]; candidate != "" {
			return candidate
		}
	}
	if p := strings.TrimSpace(path); p != "" {
		return p
	}
	if name == "" {
		name = "grandriver.db"
	}
	return filepath.Join("instance", name)
}

// parseTinyMCEKey accepts either a bare key or a JSON object holding it
// under apiKey, api_key, key or n.
func parseTinyMCEKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "{") {
		return raw
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return raw
	}
	for _, k := range []string{"apiKey", "api_key", "key", "n"} {
		if s, ok := parsed[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return raw
}

func fontsURL(explicit, kitID string) string {
	if u := strings.TrimSpace(explicit); u != "" {
		return u
	}
	if id := strings.TrimSpace(kitID); id != "" {
		return "https://use.typekit.net/" + id + ".css"
	}
	return ""
}

// adminPasswordHash returns the bcrypt hash to verify logins against and
// whether the built-in development password is in use.
func (c Config) adminPasswordHash() ([]byte, bool, error) {
	if c.AdminPasswordHash != "" {
		return []byte(c.AdminPasswordHash), false, nil
	}
	password, defaulted := c.AdminPassword, false
	if password == "" {
		password, defaulted = DefaultAdminPassword, true
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, false, err
	}
	return hash, defaulted, nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}

// sessionKey returns the configured secret, or 32 random bytes when empty.
func (c Config) sessionKey() ([]byte, bool, error) {
	if c.SecretKey != "" {
		return []byte(c.SecretKey), false, nil
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, false, fmt.Errorf("generate session key: %w", err)
	}
	return key, true, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
