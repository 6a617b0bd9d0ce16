package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Redis    RedisConfig    `json:"redis"`
	XRPL     XRPLConfig     `json:"xrpl"`
	Storage  StorageConfig  `json:"storage"`
	Security SecurityConfig `json:"security"`
	Logging  LoggingConfig  `json:"logging"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
	MigrationsPath string        `json:"migrations_path"`

	// FilePath switches the token/retirement repositories to the
	// JSON-file store when set. Intended for local development only.
	FilePath string `json:"file_path"`
}

// RedisConfig represents the dashboard cache backend
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
}

// XRPLConfig represents ledger node access
type XRPLConfig struct {
	RPCURL            string        `json:"rpc_url"`
	ExplorerURL       string        `json:"explorer_url"`
	RequestTimeout    time.Duration `json:"request_timeout"`
	EscrowCancelHours int           `json:"escrow_cancel_hours"`
}

// StorageConfig represents object and IPFS storage
type StorageConfig struct {
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	IPFSGatewayURL string `json:"ipfs_gateway_url"`
	IPFSAPIKey     string `json:"ipfs_api_key"`
}

// SecurityConfig
type SecurityConfig struct {
	JWTSecret string        `json:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// LoggingConfig
type LoggingConfig struct {
	Level string `json:"level"`
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// Default config
	config := &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "carbon_marketplace",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MigrationsPath: "migrations",
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		XRPL: XRPLConfig{
			RPCURL:            "https://s.devnet.rippletest.net:51234",
			ExplorerURL:       "https://devnet.xrpl.org",
			RequestTimeout:    15 * time.Second,
			EscrowCancelHours: 1,
		},
		Storage: StorageConfig{
			S3Bucket: "carbon-exchange-certificates",
			S3Region: "ap-southeast-1",
		},
		Security: SecurityConfig{
			TokenTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	// Load from file if exists
	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	// Override with environment variables
	overrideWithEnv(config)

	return config, nil
}

func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			config.Database.Port = p
		}
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
	if filePath := os.Getenv("DATABASE_FILE_PATH"); filePath != "" {
		config.Database.FilePath = filePath
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		config.Redis.Addr = addr
	}
	if rpc := os.Getenv("XRPL_RPC_URL"); rpc != "" {
		config.XRPL.RPCURL = rpc
	}
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		config.Security.JWTSecret = secret
	}
	if bucket := os.Getenv("S3_BUCKET"); bucket != "" {
		config.Storage.S3Bucket = bucket
	}
	if gateway := os.Getenv("IPFS_GATEWAY_URL"); gateway != "" {
		config.Storage.IPFSGatewayURL = gateway
	}
	if key := os.Getenv("IPFS_API_KEY"); key != "" {
		config.Storage.IPFSAPIKey = key
	}
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
