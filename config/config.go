// Package config loads the relay server settings from .env, an optional TOML
// file and the environment, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultPort        = "8787"
	DefaultStoreDriver = "json"
	DefaultStorePath   = "data/store.json"
	DefaultAppTasksURL = "https://danielaivnv.github.io/task-tracker/tasks.html"
	DefaultPushDriver  = "webpush"
	DefaultLogLevel    = "info"
)

type Config struct {
	Port        string   `toml:"port"`
	StoreDriver string   `toml:"store_driver"`
	StorePath   string   `toml:"store_path"`
	DatabaseDSN string   `toml:"database_dsn"`
	CORSOrigins []string `toml:"cors_origins"`
	AppTasksURL string   `toml:"app_tasks_url"`
	LogLevel    string   `toml:"log_level"`
	GinMode     string   `toml:"gin_mode"`
	JWTSecret   string   `toml:"jwt_secret_key"`

	Firebase Firebase `toml:"firebase"`
	Push     Push     `toml:"push"`
}

type Firebase struct {
	ProjectID       string `toml:"project_id"`
	CredentialsFile string `toml:"credentials_file"`
}

type Push struct {
	Provider        string `toml:"provider"`
	VAPIDPublicKey  string `toml:"vapid_public_key"`
	VAPIDPrivateKey string `toml:"vapid_private_key"`
	VAPIDSubject    string `toml:"vapid_subject"`
}

// Load reads .env (missing is fine), the TOML file named by FOCUS_CONFIG if
// set, then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var file []byte
	if path := os.Getenv("FOCUS_CONFIG"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		file = b
	}
	return Parse(file, os.Getenv)
}

// Parse builds a Config from TOML data (may be empty) overridden by getenv.
func Parse(file []byte, getenv func(string) string) (Config, error) {
	var fromFile Config
	if len(file) > 0 {
		if err := toml.Unmarshal(file, &fromFile); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg := Config{
		Port:        coalesce(getenv("PORT"), fromFile.Port, DefaultPort),
		StoreDriver: strings.ToLower(coalesce(getenv("STORE_DRIVER"), fromFile.StoreDriver, DefaultStoreDriver)),
		StorePath:   coalesce(getenv("STORE_PATH"), fromFile.StorePath, DefaultStorePath),
		DatabaseDSN: coalesce(getenv("DATABASE_DSN"), fromFile.DatabaseDSN),
		AppTasksURL: coalesce(getenv("APP_TASKS_URL"), fromFile.AppTasksURL, DefaultAppTasksURL),
		LogLevel:    coalesce(getenv("LOG_LEVEL"), fromFile.LogLevel, DefaultLogLevel),
		GinMode:     coalesce(getenv("GIN_MODE"), fromFile.GinMode),
		JWTSecret:   coalesce(getenv("JWT_SECRET_KEY"), fromFile.JWTSecret),
		Firebase: Firebase{
			ProjectID:       coalesce(getenv("FIREBASE_PROJECT_ID"), fromFile.Firebase.ProjectID),
			CredentialsFile: coalesce(getenv("GOOGLE_APPLICATION_CREDENTIALS"), fromFile.Firebase.CredentialsFile),
		},
		Push: Push{
			Provider:        strings.ToLower(coalesce(getenv("PUSH_PROVIDER"), fromFile.Push.Provider, DefaultPushDriver)),
			VAPIDPublicKey:  coalesce(getenv("VAPID_PUBLIC_KEY"), fromFile.Push.VAPIDPublicKey),
			VAPIDPrivateKey: coalesce(getenv("VAPID_PRIVATE_KEY"), fromFile.Push.VAPIDPrivateKey),
			VAPIDSubject:    coalesce(getenv("VAPID_SUBJECT"), fromFile.Push.VAPIDSubject),
		},
	}

	cfg.CORSOrigins = fromFile.CORSOrigins
	if v := getenv("CORS_ORIGINS"); v != "" {
		cfg.CORSOrigins = splitList(v)
	}
	if len(cfg.CORSOrigins) == 0 {
		cfg.CORSOrigins = []string{"*"}
	}

	switch cfg.StoreDriver {
	case "json", "mysql", "firestore":
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}
	if cfg.StoreDriver == "mysql" && cfg.DatabaseDSN == "" {
		return Config{}, fmt.Errorf("STORE_DRIVER=mysql needs DATABASE_DSN")
	}
	switch cfg.Push.Provider {
	case "webpush", "fcm", "none":
	default:
		return Config{}, fmt.Errorf("unknown PUSH_PROVIDER %q", cfg.Push.Provider)
	}
	return cfg, nil
}

// NeedsFirebase reports whether any configured backend uses the Firebase app.
func (c Config) NeedsFirebase() bool {
	return c.StoreDriver == "firestore" || c.Push.Provider == "fcm"
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func coalesce(args ...string) string {
	for _, s := range args {
		if s = strings.TrimSpace(s); s != "" {
			return s
		}
	}
	return ""
}
