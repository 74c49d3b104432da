package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Supported storage drivers.
const (
	RedisDriver    = "redis"
	BoltDriver     = "bolt"
	SQLiteDriver   = "sqlite"
	PostgresDriver = "postgres"
)

const redacted = "********"

// Config defines the structure of the configuration file.
type Config struct {
	GitCommit    string        `yaml:"git_commit" envconfig:"BKS_GIT_COMMIT"`
	GitTag       string        `yaml:"git_tag" envconfig:"BKS_GIT_TAG"`
	BuildTime    string        `yaml:"build_time" envconfig:"BKS_BUILD_TIME"`
	IsProduction bool          `yaml:"is_production" envconfig:"BKS_IS_PRODUCTION"`
	LogLevel     zapcore.Level `yaml:"log_level" envconfig:"BKS_LOG_LEVEL"`
	LogFolder    string        `yaml:"log_folder" envconfig:"BKS_LOG_FOLDER"`
	LogMaxSize   int           `yaml:"log_max_size" envconfig:"BKS_LOG_MAX_SIZE"` // in megabytes
	Server       ServerConfig  `yaml:"server"`
	Storage      StorageConfig `yaml:"storage"`
	Redis        RedisConfig   `yaml:"redis"`
	BoltDB       BoltDBConfig  `yaml:"boltdb"`
	SQL          SQLConfig     `yaml:"sql"`
	Mirror       MirrorConfig  `yaml:"mirror"`
	Auth         AuthConfig    `yaml:"auth"`
	Ops          OpsConfig     `yaml:"ops"`
}

type ServerConfig struct {
	Host            string        `yaml:"host" envconfig:"BKS_SERVER_HOST"`
	Port            string        `yaml:"port" envconfig:"BKS_SERVER_PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"BKS_SERVER_READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"BKS_SERVER_WRITE_TIMEOUT"`
	RequestTimeout  time.Duration `yaml:"request_timeout" envconfig:"BKS_SERVER_REQUEST_TIMEOUT"` // Time to wait for a request to finish
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"BKS_SERVER_SHUTDOWN_TIMEOUT"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" envconfig:"BKS_STORAGE_DRIVER"`
}

type RedisConfig struct {
	Host          string        `yaml:"host" envconfig:"BKS_REDIS_HOST"`
	Port          string        `yaml:"port" envconfig:"BKS_REDIS_PORT"`
	DialTimeout   time.Duration `yaml:"dial_timeout" envconfig:"BKS_REDIS_DIAL_TIMEOUT"`
	ReadTimeout   time.Duration `yaml:"read_timeout" envconfig:"BKS_REDIS_READ_TIMEOUT"`
	WriteTimeout  time.Duration `yaml:"write_timeout" envconfig:"BKS_REDIS_WRITE_TIMEOUT"`
	PoolSize      int           `yaml:"pool_size" envconfig:"BKS_REDIS_POOL_SIZE"`
	PoolTimeout   time.Duration `yaml:"pool_timeout" envconfig:"BKS_REDIS_POOL_TIMEOUT"`
	Username      string        `yaml:"username" envconfig:"BKS_REDIS_USERNAME"`
	Password      string        `yaml:"password" envconfig:"BKS_REDIS_PASSWORD"`
	DatabaseIndex int           `yaml:"db_index" envconfig:"BKS_REDIS_DATABASE_INDEX"`
}

type BoltDBConfig struct {
	FilePath   string        `yaml:"filepath" envconfig:"BKS_BOLTDB_FILE_PATH"`
	Timeout    time.Duration `yaml:"timeout" envconfig:"BKS_BOLTDB_TIMEOUT"`
	BucketName string        `yaml:"bucket_name" envconfig:"BKS_BOLTDB_BUCKET_NAME"`
}

// SQLConfig is used by both sqlite and postgres drivers. For sqlite
// the DSN is the database file path with optional query parameters.
type SQLConfig struct {
	DSN          string        `yaml:"dsn" envconfig:"BKS_SQL_DSN"`
	MaxOpenConns int           `yaml:"max_open_conns" envconfig:"BKS_SQL_MAX_OPEN_CONNS"`
	ConnLifetime time.Duration `yaml:"conn_lifetime" envconfig:"BKS_SQL_CONN_LIFETIME"`
}

// MirrorConfig enables the asynchronous replication of redis
// stored books into the boltdb file.
type MirrorConfig struct {
	Enabled bool `yaml:"enabled" envconfig:"BKS_MIRROR_ENABLED"`
}

type AuthConfig struct {
	Secret       string        `yaml:"secret" envconfig:"BKS_AUTH_SECRET"`
	TokenTTL     time.Duration `yaml:"token_ttl" envconfig:"BKS_AUTH_TOKEN_TTL"`
	Carrier      string        `yaml:"carrier" envconfig:"BKS_AUTH_CARRIER"`
	CookieName   string        `yaml:"cookie_name" envconfig:"BKS_AUTH_COOKIE_NAME"`
	CookieSecure bool          `yaml:"cookie_secure" envconfig:"BKS_AUTH_COOKIE_SECURE"`
	Users        []UserConfig  `yaml:"users" ignored:"true"`
}

// UserConfig is a single entry of the static credentials list.
type UserConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UID      string `yaml:"uid"`
}

type OpsConfig struct {
	Enable         bool   `yaml:"enable" envconfig:"BKS_OPS_ENABLE"`
	APIKey         string `yaml:"api_key" envconfig:"BKS_OPS_API_KEY"`
	ProfilerEnable bool   `yaml:"profiler_enable" envconfig:"BKS_OPS_PROFILER_ENABLE"`
}

// LoadConfigFile provides an instance of config structure for the all application.
func LoadConfigFile(configFile string) (*Config, error) {
	file, err := os.Open(configFile)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	cfg := &Config{}
	yd := yaml.NewDecoder(file)
	yd.KnownFields(true)
	err = yd.Decode(cfg)

	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigEnvs reads the environments variables and provides an instance of the App config.
func LoadConfigEnvs(prefix string, config *Config) error {
	return envconfig.Process(prefix, config)
}

// InitConfig setup defaults values for non provided parameters
// and configures build tags values to be used if provided.
func InitConfig(config *Config, gitCommit, gitTag, buildTime string) error {
	if len(gitCommit) != 0 {
		config.GitCommit = gitCommit
	}

	if len(gitTag) != 0 {
		config.GitTag = gitTag
	}

	if len(buildTime) != 0 {
		config.BuildTime = buildTime
	}

	if len(config.Server.Host) == 0 || len(config.Server.Port) == 0 {
		return errors.New("make sure to set valid server address and port in configuration file")
	}

	if len(config.LogFolder) == 0 {
		config.LogFolder = "./logs"
	}

	if config.LogMaxSize <= 0 {
		config.LogMaxSize = 10
	}

	if config.Server.ShutdownTimeout <= 0 {
		config.Server.ShutdownTimeout = 10 * time.Second
	}

	if config.Server.RequestTimeout <= 0 {
		config.Server.RequestTimeout = 30 * time.Second
	}

	switch config.Storage.Driver {
	case RedisDriver:
		if len(config.Redis.Host) == 0 || len(config.Redis.Port) == 0 {
			return errors.New("make sure to set valid redis address and port in configuration file")
		}
	case BoltDriver:
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("make sure to set valid boltdb file path and bucket name in configuration file")
		}
	case SQLiteDriver, PostgresDriver:
		if len(config.SQL.DSN) == 0 {
			return errors.New("make sure to set a valid sql dsn in configuration file")
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", config.Storage.Driver)
	}

	if config.Mirror.Enabled {
		if config.Storage.Driver != RedisDriver {
			return errors.New("mirroring requires the redis storage driver")
		}
		if len(config.BoltDB.FilePath) == 0 || len(config.BoltDB.BucketName) == 0 {
			return errors.New("mirroring requires valid boltdb file path and bucket name")
		}
	}

	if len(config.Auth.Secret) == 0 {
		return errors.New("make sure to set the auth signing secret through BKS_AUTH_SECRET")
	}

	if config.Auth.TokenTTL <= 0 {
		config.Auth.TokenTTL = 15 * time.Minute
	}

	if len(config.Auth.CookieName) == 0 {
		config.Auth.CookieName = "my_access_token"
	}

	if config.Ops.Enable && len(config.Ops.APIKey) == 0 {
		return errors.New("make sure to set the ops api key through BKS_OPS_API_KEY when ops endpoints are enabled")
	}

	return nil
}

// Redacted returns a copy of the configuration safe to be served or logged.
func (c *Config) Redacted() Config {
	cp := *c
	if cp.Auth.Secret != "" {
		cp.Auth.Secret = redacted
	}
	if cp.Ops.APIKey != "" {
		cp.Ops.APIKey = redacted
	}
	if cp.Redis.Password != "" {
		cp.Redis.Password = redacted
	}
	if cp.SQL.DSN != "" && cp.Storage.Driver == PostgresDriver {
		cp.SQL.DSN = redacted
	}
	users := make([]UserConfig, len(cp.Auth.Users))
	for i, u := range cp.Auth.Users {
		users[i] = UserConfig{Username: u.Username, Password: redacted, UID: u.UID}
	}
	cp.Auth.Users = users
	return cp
}

// LoadAndInitConfigs loads in order the configs from various predefined sources
// then build the App configuration data. A missing env file is not an error.
func LoadAndInitConfigs(configFile, envFile, gitCommit, gitTag, buildTime string) (*Config, error) {
	// Setup the yaml configuration from file.
	config, err := LoadConfigFile(configFile)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from file: %s", err)
	}

	// Set the environment configuration.
	err = godotenv.Load(envFile)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config, fmt.Errorf("failed to set environment configurations: %s", err)
	}

	// Use environment variables with prefix `BKS`.
	err = LoadConfigEnvs("BKS", config)
	if err != nil {
		return config, fmt.Errorf("failed to load configurations from environment: %s", err)
	}

	err = InitConfig(config, gitCommit, gitTag, buildTime)
	if err != nil {
		return config, fmt.Errorf("failed to initialize configurations: %s", err)
	}
	return config, nil
}
