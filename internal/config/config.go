package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

// DefaultDataColumns is the column order used when rewriting the visit data
// file. A field written to the store but absent from this list is dropped on
// save; keep it in sync with every field the intake flow produces.
var DefaultDataColumns = []string{
	"Patient_ID", "Visit_ID", "Visit_time", "Visit_department",
	"Race", "Gender", "Ethnicity", "Age", "Zip_code",
	"Insurance", "Chief_complaint", "Note_ID", "Note_type",
}

type Config struct {
	Port            string   `mapstructure:"PORT"`
	Env             string   `mapstructure:"ENV"`
	DataFile        string   `mapstructure:"DATA_FILE"`
	NotesFile       string   `mapstructure:"NOTES_FILE"`
	CredentialsFile string   `mapstructure:"CREDENTIALS_FILE"`
	UsageLogFile    string   `mapstructure:"USAGE_LOG_FILE"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	DBMaxConns      int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns      int32    `mapstructure:"DB_MIN_CONNS"`
	JWTSecret       string   `mapstructure:"JWT_SECRET"`
	JWTTTLMinutes   int      `mapstructure:"JWT_TTL_MINUTES"`
	DataColumns     []string `mapstructure:"DATA_COLUMNS"`
	CORSOrigins     []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_FILE", "data/patient_data.csv")
	v.SetDefault("NOTES_FILE", "data/notes.csv")
	v.SetDefault("CREDENTIALS_FILE", "data/credentials.csv")
	v.SetDefault("USAGE_LOG_FILE", "data/usage_log.csv")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("JWT_TTL_MINUTES", 60)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("DATA_FILE")
	v.BindEnv("NOTES_FILE")
	v.BindEnv("CREDENTIALS_FILE")
	v.BindEnv("USAGE_LOG_FILE")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("JWT_TTL_MINUTES")
	v.BindEnv("DATA_COLUMNS")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.DataColumns == nil {
		if cols := v.GetString("DATA_COLUMNS"); cols != "" {
			cfg.DataColumns = strings.Split(cols, ",")
		} else {
			cfg.DataColumns = DefaultDataColumns
		}
	}
	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		} else {
			cfg.CORSOrigins = []string{"http://localhost:3000"}
		}
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret-do-not-use-in-production"
		log.Println("WARNING: JWT_SECRET not set, using insecure development secret")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
