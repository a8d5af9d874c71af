// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultBaseURL is the public RosDomofon API host.
const DefaultBaseURL = "https://rdba.rosdomofon.com"

// Config holds all configuration for the bridge tools.
type Config struct {
	// RosDomofon REST API credentials
	RosDomofon RosDomofonConfig `json:"rosdomofon"`

	// Kafka signup stream
	Kafka KafkaConfig `json:"kafka"`

	// Optional SQL Server journal of received signups
	SignupDB SignupDBConfig `json:"signup_db"`

	// HTTP API settings
	API APIConfig `json:"api"`

	// One-shot signup status update run by cmd/rosdomofon
	Signup SignupUpdateConfig `json:"signup"`

	// Phone used by cmd/debug
	ProbePhone string `json:"probe_phone"`
}

// RosDomofonConfig represents the vendor REST API settings.
type RosDomofonConfig struct {
	BaseURL  string        `json:"base_url"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Timeout  time.Duration `json:"timeout"`
}

// KafkaConfig represents the signup event stream settings.
type KafkaConfig struct {
	BootstrapServers []string `json:"bootstrap_servers"`
	Username         string   `json:"username"`
	Password         string   `json:"password"`
	GroupID          string   `json:"group_id"`
	SSLCACertPath    string   `json:"ssl_ca_cert_path"`
	SASLMechanism    string   `json:"sasl_mechanism"`
	CompanyShortName string   `json:"company_short_name"`
}

// SignupDBConfig represents SQL Server connection details for the signup journal.
type SignupDBConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// APIConfig represents web API settings
type APIConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SignupUpdateConfig names a signup whose status should be set on startup.
type SignupUpdateConfig struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

// Load loads configuration from environment variables, reading .env first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	config := &Config{
		RosDomofon: RosDomofonConfig{
			BaseURL:  getEnv("ROSDOMOFON_BASE_URL", DefaultBaseURL),
			Username: getEnv("USERNAME", ""),
			Password: getEnv("PASSWORD", ""),
			Timeout:  time.Duration(getEnvAsInt("ROSDOMOFON_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Kafka: KafkaConfig{
			BootstrapServers: getEnvAsList("KAFKA_BOOTSTRAP_SERVERS"),
			Username:         getEnv("KAFKA_USERNAME", ""),
			Password:         getEnv("KAFKA_PASSWORD", ""),
			GroupID:          getEnv("KAFKA_GROUP_ID", ""),
			SSLCACertPath:    getEnv("KAFKA_SSL_CA_CERT_PATH", ""),
			SASLMechanism:    getEnv("KAFKA_SASL_MECHANISM", "SCRAM-SHA-512"),
			CompanyShortName: getEnv("COMPANY_SHORT_NAME", ""),
		},
		SignupDB: SignupDBConfig{
			Host:     getEnv("SIGNUP_DB_HOST", ""),
			Port:     getEnvAsInt("SIGNUP_DB_PORT", 1433),
			Database: getEnv("SIGNUP_DB_NAME", "rosdomofon"),
			Username: getEnv("SIGNUP_DB_USER", ""),
			Password: getEnv("SIGNUP_DB_PASSWORD", ""),
		},
		API: APIConfig{
			Host: getEnv("API_HOST", "0.0.0.0"),
			Port: getEnvAsInt("API_PORT", 8080),
		},
		Signup: SignupUpdateConfig{
			ID:     getEnvAsInt64("SIGNUP_ID", 0),
			Status: getEnv("SIGNUP_STATUS", "connected"),
		},
		ProbePhone: getEnv("PROBE_PHONE", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate checks the settings every tool needs. Kafka and the signup journal
// are validated by the tools that use them.
func (c *Config) Validate() error {
	if c.RosDomofon.BaseURL == "" {
		return fmt.Errorf("ROSDOMOFON_BASE_URL is required")
	}
	if c.RosDomofon.Username == "" {
		return fmt.Errorf("USERNAME is required")
	}
	if c.RosDomofon.Password == "" {
		return fmt.Errorf("PASSWORD is required")
	}
	return nil
}

// Validate checks that the signup consumer can be built.
func (k *KafkaConfig) Validate() error {
	if len(k.BootstrapServers) == 0 {
		return fmt.Errorf("KAFKA_BOOTSTRAP_SERVERS is required")
	}
	if k.GroupID == "" {
		return fmt.Errorf("KAFKA_GROUP_ID is required")
	}
	if k.CompanyShortName == "" {
		return fmt.Errorf("COMPANY_SHORT_NAME is required")
	}
	if k.Username != "" && k.Password == "" {
		return fmt.Errorf("KAFKA_PASSWORD is required when KAFKA_USERNAME is set")
	}
	return nil
}

// SignupTopic returns the company's signup topic name.
func (k *KafkaConfig) SignupTopic() string {
	return "SIGN_UPS_" + k.CompanyShortName
}

// Enabled reports whether a signup journal database is configured.
func (d *SignupDBConfig) Enabled() bool {
	return d.Host != ""
}

// GetConnectionString builds the SQL Server connection string for the signup journal.
func (d *SignupDBConfig) GetConnectionString() string {
	return fmt.Sprintf("server=%s;port=%d;database=%s;user id=%s;password=%s;encrypt=disable;trustServerCertificate=true",
		d.Host,
		d.Port,
		d.Database,
		d.Username,
		d.Password,
	)
}

// Address returns the HTTP listen address.
func (a *APIConfig) Address() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}

	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
