package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPortalURL     = "https://web.pcc.gov.tw/prkms/tender/common/bulletion/indexBulletion"
	defaultMirrorBaseURL = "http://localhost:8080/api"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PortalURL     string
	MirrorBaseURL string
	ChromeBin     string

	InputTimeout   time.Duration
	FrameTimeout   time.Duration
	LocatorTimeout time.Duration
	HTTPTimeout    time.Duration

	PauseMinMs      int
	PauseMaxMs      int
	MaxRetries      int
	ContinueOnError bool

	CSVOutputPath string

	ArchiveEnabled   bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	Debug bool
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PortalURL:     getEnv("PORTAL_URL", defaultPortalURL),
		MirrorBaseURL: strings.TrimRight(getEnv("MIRROR_BASE_URL", defaultMirrorBaseURL), "/"),
		ChromeBin:     getEnv("CHROME_BIN", ""),

		InputTimeout:   getEnvSeconds("INPUT_TIMEOUT_SEC", 15),
		FrameTimeout:   getEnvSeconds("FRAME_TIMEOUT_SEC", 20),
		LocatorTimeout: getEnvSeconds("LOCATOR_TIMEOUT_SEC", 10),
		HTTPTimeout:    getEnvSeconds("HTTP_TIMEOUT_SEC", 30),

		PauseMinMs:      getEnvInt("PAUSE_MIN_MS", 3000),
		PauseMaxMs:      getEnvInt("PAUSE_MAX_MS", 8000),
		MaxRetries:      getEnvInt("MAX_RETRIES", 1),
		ContinueOnError: getEnvBool("CONTINUE_ON_ERROR", false),

		CSVOutputPath: getEnv("CSV_OUTPUT_PATH", "./output/pcc_tenders.csv"),

		ArchiveEnabled:   getEnvBool("ARCHIVE_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "tender_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		Debug: getEnvBool("DEBUG", false),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		b, err := strconv.ParseBool(val)
		if err == nil {
			return b
		}
	}
	return fallback
}

func getEnvSeconds(key string, fallback int) time.Duration {
	n := getEnvInt(key, fallback)
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
