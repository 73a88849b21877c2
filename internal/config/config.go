package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Operator OperatorConfig
	Wizard   WizardConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// RedisConfig holds the staged-ledger store configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// StageTTLMinutes bounds how long an uploaded ledger file may sit
	// unclaimed before the stage store drops it
	StageTTLMinutes int
}

// JWTConfig holds JWT-specific configuration for the operator API
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// OperatorConfig holds operator-account and error-forwarding configuration
type OperatorConfig struct {
	Email        string
	PasswordHash string // bcrypt hash of the operator password
	// ErrorChatID is the conversation unexpected failures are forwarded
	// to; zero disables forwarding
	ErrorChatID int64
}

// WizardConfig holds raffle-setup wizard tunables
type WizardConfig struct {
	// IdleTimeoutSeconds is the conversation idle deadline; it is stored
	// on the persisted wizard state and checked on each transition
	IdleTimeoutSeconds int
	DefaultFee         int64 // minor units
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "kassabot")
	viper.SetDefault("Redis.Addr", "localhost:6379")
	viper.SetDefault("Redis.DB", 0)
	viper.SetDefault("Redis.StageTTLMinutes", 30)
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("Wizard.IdleTimeoutSeconds", 120)
	viper.SetDefault("Wizard.DefaultFee", 100)
	viper.SetDefault("LogLevel", "info")
}
