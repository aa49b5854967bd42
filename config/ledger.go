package config

import (
	"errors"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// LedgerConfig holds the connection settings for the remote ledger API.
// Values come from the environment so the login flow can update them at
// runtime; read it fresh per request rather than caching.
type LedgerConfig struct {
	BaseURL    string
	AuthToken  string
	TenantId   string
	DateFormat string
	TimeFormat string
	Locale     string
}

const envFilePath = ".env"

func init() {
	// Load env from .env
	godotenv.Load()
}

func GetLedgerConfig() LedgerConfig {
	return LedgerConfig{
		BaseURL:    strings.TrimSpace(os.Getenv("FINERACT_BASE_URL")),
		AuthToken:  strings.TrimSpace(os.Getenv("FINERACT_AUTH_TOKEN")),
		TenantId:   strings.TrimSpace(os.Getenv("FINERACT_TENANT_ID")),
		DateFormat: envOrDefault("DATE_FORMAT", "dd MMMM yyyy"),
		TimeFormat: envOrDefault("TIME_FORMAT", "dd MMMM yyyy HH:mm:ss"),
		Locale:     envOrDefault("LOCALE", "en"),
	}
}

// Validate reports whether the config is complete enough to call the ledger.
func (c LedgerConfig) Validate() error {
	var missing []string
	if c.BaseURL == "" {
		missing = append(missing, "FINERACT_BASE_URL")
	}
	if c.AuthToken == "" {
		missing = append(missing, "FINERACT_AUTH_TOKEN")
	}
	if c.TenantId == "" {
		missing = append(missing, "FINERACT_TENANT_ID")
	}
	if len(missing) > 0 {
		return errors.New("missing required configuration: " + strings.Join(missing, ", "))
	}
	return nil
}

// DataDir is the root under which session folders are created.
func DataDir() string {
	return envOrDefault("DATA_DIR", "data")
}

func envOrDefault(key string, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// SaveLedgerCredentials persists the connection settings to .env and the
// process environment so subsequent gateway calls pick them up.
func SaveLedgerCredentials(baseURL string, tenantId string, authToken string) error {
	values := map[string]string{
		"FINERACT_BASE_URL":   baseURL,
		"FINERACT_TENANT_ID":  tenantId,
		"FINERACT_AUTH_TOKEN": authToken,
	}
	for key, value := range values {
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	return rewriteEnvFile(values)
}

// ClearLedgerCredentials blanks the saved connection settings (logout).
func ClearLedgerCredentials() error {
	values := map[string]string{
		"FINERACT_BASE_URL":   "",
		"FINERACT_TENANT_ID":  "",
		"FINERACT_AUTH_TOKEN": "",
	}
	for key := range values {
		os.Unsetenv(key)
	}
	return rewriteEnvFile(values)
}

func rewriteEnvFile(values map[string]string) error {
	var lines []string
	if data, err := os.ReadFile(envFilePath); err == nil {
		lines = strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	}

	updated := map[string]bool{}
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") || !strings.Contains(trimmed, "=") {
			continue
		}
		key := strings.TrimSpace(strings.SplitN(trimmed, "=", 2)[0])
		if value, ok := values[key]; ok {
			lines[i] = key + "=" + value
			updated[key] = true
		}
	}
	for key, value := range values {
		if !updated[key] {
			lines = append(lines, key+"="+value)
		}
	}

	return os.WriteFile(envFilePath, []byte(strings.Join(lines, "\n")+"\n"), 0600)
}
