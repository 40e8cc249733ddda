package config // package config loads application configuration from environment variables

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime configuration of the booth server.  Each field
// corresponds to an environment variable; a .env file in the working
// directory is loaded first when present and never overrides real env.
type Config struct {
	Env               string // application environment (e.g. "dev", "prod")
	Port              string // HTTP port to listen on
	DBUser            string // MySQL username
	DBPass            string // MySQL password (optional)
	DBHost            string // MySQL host address
	DBPort            string // MySQL port number
	DBName            string // MySQL database name
	JWTSecret         string // secret used to sign staff JWTs
	AccessTTLMin      int    // staff access token time-to-live in minutes
	StaffUser         string // username accepted by the staff login
	StaffPasswordHash string // bcrypt hash of the staff password
	AdminUser         string // username granted the ADMIN role
	AdminPasswordHash string // bcrypt hash of the admin password; empty disables admin login
	AMQPURL           string // RabbitMQ URL; empty disables publishing and the consumer
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: ignoring .env: %v", err)
	}
	return Config{
		Env:               getenv("APP_ENV", "dev"),
		Port:              getenv("APP_PORT", "8080"),
		DBUser:            getenv("DB_USER", "booth"),
		DBPass:            os.Getenv("DB_PASS"),
		DBHost:            getenv("DB_HOST", "127.0.0.1"),
		DBPort:            getenv("DB_PORT", "3306"),
		DBName:            getenv("DB_NAME", "firefly_booth"),
		JWTSecret:         must("JWT_SECRET"),
		AccessTTLMin:      envInt("ACCESS_TOKEN_TTL_MIN", 720),
		StaffUser:         getenv("STAFF_USER", "staff"),
		StaffPasswordHash: os.Getenv("STAFF_PASSWORD_HASH"),
		AdminUser:         getenv("ADMIN_USER", "admin"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		AMQPURL:           firstNonEmpty(os.Getenv("RABBITMQ_URL"), os.Getenv("AMQP_URL")),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	if dur, err := time.ParseDuration(os.Getenv(k)); err == nil {
		return dur
	}
	return d
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
