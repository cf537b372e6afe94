package config

import (
	"os"
	"strconv"
)

// ApplyEnv overlays environment overrides, which win over both the
// defaults and the file. Deployment targets that can't ship a config
// file set these instead.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DB_DIALECT"); v != "" {
		c.Database.Dialect = v
	}
	if v := os.Getenv("DB_SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("DB_POSTGRES_DSN"); v != "" {
		c.Database.PostgresDSN = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && c.Database.PostgresDSN == "" {
		c.Database.PostgresDSN = v
	}
	if v := getEnvFloat("TICK_SECONDS"); v > 0 {
		c.Engine.TickSeconds = v
	}
	if v := getEnvFloat("AUTOSAVE_SECONDS"); v > 0 {
		c.Engine.AutosaveSeconds = v
	}
	if v := getEnvFloat("ASCENSION_THRESHOLD"); v > 0 {
		c.Engine.AscensionThreshold = v
	}
}

func getEnvFloat(key string) float64 {
	val := os.Getenv(key)
	if val == "" {
		return 0
	}
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0
	}
	return num
}
