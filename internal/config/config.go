package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"kmrecon/internal/core"
	"kmrecon/internal/source"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string

	// File backend
	DataDir string

	// SQLite snapshot store
	SQLiteDBPath string

	// AMQP
	AMQPURL            string
	AMQPExchange       string
	AMQPReloadQueue    string
	AMQPRefreshedQueue string

	// Worker
	RefreshInterval time.Duration

	// Reconciliation tuning
	NoiseThreshold    float64
	VarianceThreshold float64
	DefaultWindowDays int

	// Tabs and vehicles; empty means the built-in fleet layout
	Tabs     []source.Tab
	Vehicles core.Registry
}

func Load() *Config {
	defaults := core.DefaultThresholds()

	cfg := &Config{
		Port:        getEnv("PORT", "8082"),
		DataBackend: getEnv("DATA_BACKEND", "files"),

		GoogleSpreadsheetID:      getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleServiceAccountFile: getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", ""),

		DataDir:      getEnv("DATA_DIR", "./data"),
		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/kmrecon.db"),

		AMQPURL:            getEnv("AMQP_URL", ""),
		AMQPExchange:       getEnv("AMQP_EXCHANGE", "kmrecon"),
		AMQPReloadQueue:    getEnv("AMQP_RELOAD_QUEUE", "reload_requests"),
		AMQPRefreshedQueue: getEnv("AMQP_REFRESHED_QUEUE", "data_refreshed"),

		RefreshInterval: getEnvDuration("REFRESH_INTERVAL", 15*time.Minute),

		NoiseThreshold:    getEnvFloat("NOISE_THRESHOLD", defaults.Noise),
		VarianceThreshold: getEnvFloat("VARIANCE_THRESHOLD", defaults.VarianceHighlight),
		DefaultWindowDays: getEnvInt("DEFAULT_WINDOW_DAYS", defaults.WindowDays),
	}

	cfg.Tabs = parseTabs(getEnv("TABS", ""))
	cfg.Vehicles = parseVehicles(getEnv("VEHICLES", ""))

	return cfg
}

// Thresholds returns the tuning constants assembled from the environment.
func (c *Config) Thresholds() core.Thresholds {
	return core.Thresholds{
		Noise:             c.NoiseThreshold,
		VarianceHighlight: c.VarianceThreshold,
		WindowDays:        c.DefaultWindowDays,
	}
}

// parseTabs reads a comma-separated list of name:gid:kind entries, e.g.
// "MAIN:1060733973:main,BD78NGZN:1482391741:vehicle". An empty or
// malformed value falls back to the built-in layout.
func parseTabs(raw string) []source.Tab {
	if raw == "" {
		return source.DefaultTabs()
	}

	var tabs []source.Tab
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 3 {
			return source.DefaultTabs()
		}
		tabs = append(tabs, source.Tab{
			Name: parts[0],
			GID:  parts[1],
			Kind: core.SourceKind(parts[2]),
		})
	}
	return tabs
}

// parseVehicles reads a comma-separated list of id:prefix entries, e.g.
// "BD78NGZN:BD78,CS44GHNZ:CS44". Empty or malformed falls back to the
// built-in fleet.
func parseVehicles(raw string) core.Registry {
	if raw == "" {
		return core.DefaultRegistry()
	}

	var reg core.Registry
	for _, entry := range strings.Split(raw, ",") {
		parts := strings.Split(strings.TrimSpace(entry), ":")
		if len(parts) != 2 {
			return core.DefaultRegistry()
		}
		reg = append(reg, core.Vehicle{ID: core.VehicleID(parts[0]), Prefix: parts[1]})
	}
	return reg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	validBackends := []string{"sheets", "files", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.DataBackend == "sheets" {
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	}

	if c.DataBackend == "files" && c.DataDir == "" {
		errors = append(errors, "data directory cannot be empty when using files backend")
	}

	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPReloadQueue == "" {
			errors = append(errors, "AMQP reload queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPRefreshedQueue == "" {
			errors = append(errors, "AMQP refreshed queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.RefreshInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at least 1 second", c.RefreshInterval))
	} else if c.RefreshInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid refresh interval %v: must be at most 24 hours", c.RefreshInterval))
	}

	if c.NoiseThreshold < 0 {
		errors = append(errors, fmt.Sprintf("invalid noise threshold %v: must not be negative", c.NoiseThreshold))
	}
	if c.VarianceThreshold < 0 {
		errors = append(errors, fmt.Sprintf("invalid variance threshold %v: must not be negative", c.VarianceThreshold))
	}
	if c.DefaultWindowDays < 1 {
		errors = append(errors, fmt.Sprintf("invalid default window %d days: must be at least 1", c.DefaultWindowDays))
	} else if c.DefaultWindowDays > 366 {
		errors = append(errors, fmt.Sprintf("invalid default window %d days: must be at most 366", c.DefaultWindowDays))
	}

	mainTabs := 0
	for _, tab := range c.Tabs {
		switch tab.Kind {
		case core.SourceMain:
			mainTabs++
		case core.SourceVehicle:
		default:
			errors = append(errors, fmt.Sprintf("invalid tab kind '%s' for tab %s", tab.Kind, tab.Name))
		}
	}
	if mainTabs != 1 {
		errors = append(errors, fmt.Sprintf("exactly one main tab is required, got %d", mainTabs))
	}

	if len(c.Vehicles) == 0 {
		errors = append(errors, "at least one vehicle is required")
	}
	for _, v := range c.Vehicles {
		if v.ID == "" || v.Prefix == "" {
			errors = append(errors, "vehicle entries need both an id and a prefix")
			break
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
