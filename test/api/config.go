package api

import (
	"fmt"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/moamenhredeen/jptest/internal/fakeapi"
)

// TestConfig controls where the end-to-end suites send their requests.
type TestConfig struct {
	// BaseURL of the API under test. Empty means an in-process fake is started.
	BaseURL        string
	RequestTimeout time.Duration
	Live           bool
}

// LoadTestConfig reads JPTEST_LIVE, JPTEST_BASE_URL and
// JPTEST_REQUEST_TIMEOUT, from the environment or test/.env.
func LoadTestConfig() *TestConfig {
	loadEnvFile()

	config := &TestConfig{
		RequestTimeout: getDurationWithDefault("JPTEST_REQUEST_TIMEOUT", 10*time.Second),
		Live:           getBoolWithDefault("JPTEST_LIVE", false),
	}
	if config.Live {
		config.BaseURL = os.Getenv("JPTEST_BASE_URL")
		if config.BaseURL == "" {
			config.BaseURL = "https://jsonplaceholder.typicode.com"
		}
	}
	return config
}

// StartFake serves the fake API on a loopback port. The caller must Close it.
func StartFake() (*httptest.Server, error) {
	handler, err := fakeapi.New()
	if err != nil {
		return nil, fmt.Errorf("failed to build fake API: %w", err)
	}
	return httptest.NewServer(handler), nil
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	duration, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}

	return duration
}

func getBoolWithDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	boolValue, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}

	return boolValue
}

func loadEnvFile() {
	// relative to test/api/suites
	path := filepath.Join("..", "..", ".env")
	if _, err := os.Stat(path); err != nil {
		return
	}
	if err := godotenv.Load(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to load .env file from %s: %v\n", path, err)
	}
}
