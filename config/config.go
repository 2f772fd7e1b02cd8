package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"raffler/database"
	"raffler/domain/entities"

	log "github.com/sirupsen/logrus"
)

// Storage drivers
const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Storage configuration
	StorageDriver string // "postgres" or "memory"
	DatabaseURL   string
	DatabaseName  string

	// NATS configuration
	NATSServers string // NATS server addresses (comma-separated)

	// HTTP configuration
	HTTPAddr string

	// Raffle configuration
	EntranceFee    int64
	Interval       time.Duration
	HoldingAccount string

	// Randomness provider configuration
	VRFCoordinator          string
	VRFKeyHash              string
	VRFSubscriptionID       string
	VRFRequestConfirmations uint16
	VRFCallbackGasLimit     uint32
	VRFNativePayment        bool
	VRFRequestTimeout       time.Duration

	// Automation configuration
	UpkeepPollInterval time.Duration

	// Discord configuration (optional winner announcements)
	DiscordToken     string
	DiscordChannelID string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging configuration
	LogLevel string
	LogFile  string // rotated log file; empty logs to stderr only

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance. It panics if the
// environment does not hold a valid configuration; use Load to handle the error.
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// Load reads and validates the configuration from the environment and
// installs it as the global instance
func Load() (*Config, error) {
	cfg, err := load()
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	instance = cfg
	return cfg, nil
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// RaffleConfig builds the immutable raffle configuration
func (c *Config) RaffleConfig() (entities.RaffleConfig, error) {
	return entities.NewRaffleConfig(entities.RaffleConfigParams{
		EntranceFee:          c.EntranceFee,
		Interval:             c.Interval,
		HoldingAccount:       c.HoldingAccount,
		Coordinator:          c.VRFCoordinator,
		KeyHash:              c.VRFKeyHash,
		SubscriptionID:       c.VRFSubscriptionID,
		RequestConfirmations: c.VRFRequestConfirmations,
		CallbackGasLimit:     c.VRFCallbackGasLimit,
		NativePayment:        c.VRFNativePayment,
	})
}

// DiscordEnabled reports whether winner announcements should be posted
func (c *Config) DiscordEnabled() bool {
	return c.DiscordToken != "" && c.DiscordChannelID != ""
}

func load() (*Config, error) {
	config := &Config{
		StorageDriver:  getEnvWithDefault("STORAGE_DRIVER", StorageDriverPostgres),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DatabaseName:   os.Getenv("DATABASE_NAME"),
		NATSServers:    getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),
		HTTPAddr:       getEnvWithDefault("HTTP_ADDR", ":8080"),
		HoldingAccount: getEnvWithDefault("RAFFLE_HOLDING_ACCOUNT", "raffle-pot"),

		VRFCoordinator:    os.Getenv("VRF_COORDINATOR"),
		VRFKeyHash:        os.Getenv("VRF_KEY_HASH"),
		VRFSubscriptionID: os.Getenv("VRF_SUBSCRIPTION_ID"),

		DiscordToken:     os.Getenv("DISCORD_TOKEN"),
		DiscordChannelID: os.Getenv("DISCORD_CHANNEL_ID"),

		OTelServiceName:  getEnvWithDefault("OTEL_SERVICE_NAME", "raffler"),
		OTelExporterType: getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint: getEnvWithDefault("OTEL_OTLP_ENDPOINT", "localhost:4317"),

		LogLevel: getEnvWithDefault("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),

		Environment: getEnvWithDefault("ENVIRONMENT", "development"),
	}

	var err error
	if config.EntranceFee, err = parseInt64Env("RAFFLE_ENTRANCE_FEE", 10_000_000_000_000_000); err != nil {
		return nil, err
	}
	if config.Interval, err = parseDurationEnv("RAFFLE_INTERVAL", 30*time.Second); err != nil {
		return nil, err
	}
	confirmations, err := parseUintEnv("VRF_REQUEST_CONFIRMATIONS", uint64(entities.DefaultRequestConfirmations), 16)
	if err != nil {
		return nil, err
	}
	config.VRFRequestConfirmations = uint16(confirmations)
	gasLimit, err := parseUintEnv("VRF_CALLBACK_GAS_LIMIT", 500_000, 32)
	if err != nil {
		return nil, err
	}
	config.VRFCallbackGasLimit = uint32(gasLimit)
	if config.VRFNativePayment, err = parseBoolEnv("VRF_NATIVE_PAYMENT", false); err != nil {
		return nil, err
	}
	if config.VRFRequestTimeout, err = parseDurationEnv("VRF_REQUEST_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if config.UpkeepPollInterval, err = parseDurationEnv("UPKEEP_POLL_INTERVAL", 5*time.Second); err != nil {
		return nil, err
	}
	if config.OTelEnabled, err = parseBoolEnv("OTEL_ENABLED", false); err != nil {
		return nil, err
	}
	exportInterval, err := parseInt64Env("OTEL_EXPORT_INTERVAL_MS", 30_000)
	if err != nil {
		return nil, err
	}
	config.OTelExportIntervalMillis = int(exportInterval)

	if config.Environment != "test" {
		if err := config.validate(); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required")
		}
	case StorageDriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if strings.TrimSpace(c.NATSServers) == "" {
		return fmt.Errorf("NATS_SERVERS is required")
	}
	if c.UpkeepPollInterval <= 0 {
		return fmt.Errorf("UPKEEP_POLL_INTERVAL must be positive")
	}
	if c.VRFRequestTimeout <= 0 {
		return fmt.Errorf("VRF_REQUEST_TIMEOUT must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	if _, err := c.RaffleConfig(); err != nil {
		return fmt.Errorf("invalid raffle configuration: %w", err)
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt64Env(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func parseUintEnv(key string, defaultValue uint64, bitSize int) (uint64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseUint(value, 10, bitSize)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// parseDurationEnv accepts Go duration strings ("30s") or whole seconds ("30")
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	if seconds, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return parsed, nil
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:             "test",
		StorageDriver:           StorageDriverMemory,
		HTTPAddr:                ":0",
		EntranceFee:             10_000,
		Interval:                30 * time.Second,
		HoldingAccount:          "raffle-pot",
		VRFCoordinator:          "vrf-coordinator",
		VRFKeyHash:              "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c",
		VRFSubscriptionID:       "1",
		VRFRequestConfirmations: entities.DefaultRequestConfirmations,
		VRFCallbackGasLimit:     500_000,
		VRFRequestTimeout:       time.Second,
		UpkeepPollInterval:      10 * time.Millisecond,
		OTelServiceName:         "raffler-test",
		OTelExporterType:        "none",
		LogLevel:                "debug",
	}
}
