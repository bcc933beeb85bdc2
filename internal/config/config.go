// Package config loads runtime configuration from the environment and an
// optional .env file.
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port        string `mapstructure:"PORT"`
	Env         string `mapstructure:"ENV"`
	AuthMode    string `mapstructure:"AUTH_MODE"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`

	// StoreBackend selects where invoices are persisted: "postgres" or
	// "memory". The in-memory store is for development and tests only.
	StoreBackend string `mapstructure:"STORE_BACKEND"`

	DoctorAPIKey  string `mapstructure:"DOCTOR_API_KEY"`
	StaffAPIKey   string `mapstructure:"STAFF_API_KEY"`
	JWTSigningKey string `mapstructure:"JWT_SIGNING_KEY"`

	ClinicalSystemURL  string        `mapstructure:"CLINICAL_SYSTEM_URL"`
	ClinicalToken      string        `mapstructure:"CLINICAL_TOKEN"`
	ClinicalTimeout    time.Duration `mapstructure:"CLINICAL_TIMEOUT"`
	BillingSoftwareURL string        `mapstructure:"BILLING_SOFTWARE_URL"`
	RegistrarTimeout   time.Duration `mapstructure:"REGISTRAR_TIMEOUT"`
	CKBURL             string        `mapstructure:"CKB_URL"`
	CKBToken           string        `mapstructure:"CKB_TOKEN"`
	CKBTimeout         time.Duration `mapstructure:"CKB_TIMEOUT"`

	FeeScheduleFile string        `mapstructure:"FEE_SCHEDULE_FILE"`
	ReportCacheTTL  time.Duration `mapstructure:"REPORT_CACHE_TTL"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSOrigins     []string      `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // "" -> inferred from ENV
	v.SetDefault("STORE_BACKEND", "postgres")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CLINICAL_TIMEOUT", "5s")
	v.SetDefault("REGISTRAR_TIMEOUT", "5s")
	v.SetDefault("CKB_TIMEOUT", "10s")
	v.SetDefault("REPORT_CACHE_TTL", "60s")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, key := range []string{
		"PORT", "ENV", "AUTH_MODE", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
		"STORE_BACKEND", "DOCTOR_API_KEY", "STAFF_API_KEY", "JWT_SIGNING_KEY",
		"CLINICAL_SYSTEM_URL", "CLINICAL_TOKEN", "CLINICAL_TIMEOUT",
		"BILLING_SOFTWARE_URL", "REGISTRAR_TIMEOUT",
		"CKB_URL", "CKB_TOKEN", "CKB_TIMEOUT",
		"FEE_SCHEDULE_FILE", "REPORT_CACHE_TTL", "REQUEST_TIMEOUT", "CORS_ORIGINS",
	} {
		v.BindEnv(key)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.StoreBackend == "postgres" && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is postgres")
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: authentication is disabled; every request gets all roles.")
		log.Println("WARNING: set ENV=production and AUTH_MODE=api_key or jwt for real deployments.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ResolvedAuthMode returns the effective auth mode. If AUTH_MODE is explicitly
// set, it is returned. Otherwise, the mode is inferred:
//   - ENV=development  → "development" (no auth, all requests get all roles)
//   - JWT_SIGNING_KEY  → "jwt"
//   - otherwise        → "api_key"
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	if c.JWTSigningKey != "" {
		return "jwt"
	}
	return "api_key"
}

// Validate checks that the configuration is safe to run with. Outside
// development mode the selected auth mode must have its credential material
// configured, otherwise the reporting endpoints would be open to anyone.
func (c *Config) Validate() error {
	switch mode := c.ResolvedAuthMode(); mode {
	case "development":
		if c.IsProduction() {
			return fmt.Errorf("AUTH_MODE=development is not allowed when ENV=production")
		}
	case "api_key":
		if c.DoctorAPIKey == "" && c.StaffAPIKey == "" {
			return fmt.Errorf("api_key auth requires DOCTOR_API_KEY or STAFF_API_KEY to be set")
		}
	case "jwt":
		if c.JWTSigningKey == "" {
			return fmt.Errorf("jwt auth requires JWT_SIGNING_KEY to be set")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be \"development\", \"api_key\", or \"jwt\", got %q", mode)
	}

	switch c.StoreBackend {
	case "postgres", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be \"postgres\" or \"memory\", got %q", c.StoreBackend)
	}

	if c.ClinicalSystemURL == "" {
		return fmt.Errorf("CLINICAL_SYSTEM_URL is required")
	}
	return nil
}
