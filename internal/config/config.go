package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver string
	DBDSN    string

	// PointsPerTest is attached to every point request a passed test issues.
	PointsPerTest int

	AMQPURL      string // required by the relay
	AMQPExchange string

	RelayBatch      int
	RelayMaxRetries int
	RelayInterval   time.Duration
}

// Load reads an optional .env file (or the given files) into the process
// environment, then builds the Config. Variables already set win.
func Load(files ...string) Config {
	_ = godotenv.Load(files...)
	return FromEnv()
}

func FromEnv() Config {
	return Config{
		DBDriver:        envOr("DB_DRIVER", "sqlite"),
		DBDSN:           envOr("DB_DSN", ""),
		PointsPerTest:   envInt("POINTS_PER_TEST", 10),
		AMQPURL:         os.Getenv("AMQP_URL"),
		AMQPExchange:    envOr("AMQP_EXCHANGE", "points"),
		RelayBatch:      envInt("RELAY_BATCH", 50),
		RelayMaxRetries: envInt("RELAY_MAX_RETRIES", 5),
		RelayInterval:   envDuration("RELAY_INTERVAL", 5*time.Second),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(k))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
