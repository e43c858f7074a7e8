package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port                 string        `mapstructure:"PORT"`
	Env                  string        `mapstructure:"ENV"`
	DataDir              string        `mapstructure:"DATA_DIR"`
	DatasetPath          string        `mapstructure:"DATASET_PATH"`
	DoctorDatasetPath    string        `mapstructure:"DOCTOR_DATASET_PATH"`
	ArtifactDir          string        `mapstructure:"ARTIFACT_DIR"`
	DatabaseURL          string        `mapstructure:"DATABASE_URL"`
	DBMaxConns           int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns           int32         `mapstructure:"DB_MIN_CONNS"`
	SessionSecret        string        `mapstructure:"SESSION_SECRET"`
	SessionTTL           time.Duration `mapstructure:"SESSION_TTL"`
	RequestTimeout       time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	CORSOrigins          []string      `mapstructure:"CORS_ORIGINS"`
	DefaultAdminPassword string        `mapstructure:"DEFAULT_ADMIN_PASSWORD"`
	GeneratorRows        int           `mapstructure:"GENERATOR_ROWS"`
	GeneratorSeed        int64         `mapstructure:"GENERATOR_SEED"`
	TrainSeed            int64         `mapstructure:"TRAIN_SEED"`
	TrainTrees           int           `mapstructure:"TRAIN_TREES"`
	TrainTestSize        float64       `mapstructure:"TRAIN_TEST_SIZE"`
}

// devSessionSecret signs sessions in development only; Validate rejects it
// anywhere else.
const devSessionSecret = "clinic-development-secret"

var keys = []string{
	"PORT", "ENV", "DATA_DIR", "DATASET_PATH", "DOCTOR_DATASET_PATH", "ARTIFACT_DIR",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"SESSION_SECRET", "SESSION_TTL", "REQUEST_TIMEOUT", "CORS_ORIGINS", "DEFAULT_ADMIN_PASSWORD",
	"GENERATOR_ROWS", "GENERATOR_SEED", "TRAIN_SEED", "TRAIN_TREES", "TRAIN_TEST_SIZE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATA_DIR", "data")
	v.SetDefault("DATASET_PATH", filepath.Join("data", "disease_dataset.csv"))
	v.SetDefault("DOCTOR_DATASET_PATH", filepath.Join("datasets", "doctor_dataset.csv"))
	v.SetDefault("ARTIFACT_DIR", "models")
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("SESSION_TTL", "12h")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("DEFAULT_ADMIN_PASSWORD", "admin123")
	v.SetDefault("GENERATOR_ROWS", 5000)
	v.SetDefault("GENERATOR_SEED", 42)
	v.SetDefault("TRAIN_SEED", 42)
	v.SetDefault("TRAIN_TREES", 100)
	v.SetDefault("TRAIN_TEST_SIZE", 0.2)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = splitList(v.GetString("CORS_ORIGINS"))
	if cfg.SessionSecret == "" && cfg.IsDev() {
		cfg.SessionSecret = devSessionSecret
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsePostgres reports whether repositories should use the database instead
// of the CSV files under DataDir.
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func (c *Config) PatientsPath() string { return filepath.Join(c.DataDir, "patients.csv") }
func (c *Config) UsersPath() string    { return filepath.Join(c.DataDir, "users.csv") }
func (c *Config) HistoryPath() string  { return filepath.Join(c.DataDir, "history.csv") }

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	if !c.IsDev() && (c.SessionSecret == "" || c.SessionSecret == devSessionSecret) {
		return fmt.Errorf("SESSION_SECRET is required when ENV=%q", c.Env)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	}
	if c.TrainTestSize <= 0 || c.TrainTestSize >= 1 {
		return fmt.Errorf("TRAIN_TEST_SIZE must be in (0,1), got %v", c.TrainTestSize)
	}
	if c.TrainTrees <= 0 {
		return fmt.Errorf("TRAIN_TREES must be positive, got %d", c.TrainTrees)
	}
	if c.GeneratorRows <= 0 {
		return fmt.Errorf("GENERATOR_ROWS must be positive, got %d", c.GeneratorRows)
	}
	if c.UsePostgres() && c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
