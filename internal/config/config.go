package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Abdurahmanit/GroupProject/class-service/internal/platform/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "CLASS"

// Store backends.
const (
	BackendMemory = "memory"
	BackendMongo  = "mongo"
)

type Config struct {
	ServiceName string          `mapstructure:"service_name"`
	HTTP        HTTPConfig      `mapstructure:"http"`
	Metrics     MetricsConfig   `mapstructure:"metrics"`
	Store       StoreConfig     `mapstructure:"store"`
	Mongo       MongoConfig     `mapstructure:"mongo"`
	NATS        NATSConfig      `mapstructure:"nats"`
	Redis       RedisConfig     `mapstructure:"redis"`
	MinIO       MinIOConfig     `mapstructure:"minio"`
	Log         logger.Config   `mapstructure:"log"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
	Reconcile   ReconcileConfig `mapstructure:"reconcile"`
	Handoff     HandoffConfig   `mapstructure:"handoff"`
}

type HTTPConfig struct {
	Port            string        `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
}

type MetricsConfig struct {
	Port string `mapstructure:"port"`
}

type StoreConfig struct {
	Backend   string        `mapstructure:"backend"`
	OpTimeout time.Duration `mapstructure:"op_timeout"`
}

// MongoConfig holds the MongoDB connection settings.
type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Database       string        `mapstructure:"database"`
	Collection     string        `mapstructure:"collection"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	MinPoolSize    uint64        `mapstructure:"min_pool_size"`
	MaxPoolSize    uint64        `mapstructure:"max_pool_size"`
}

type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	// ChangeSubject prefixes the subjects store changes are relayed on.
	ChangeSubject string `mapstructure:"change_subject"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

type TracingConfig struct {
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

type ReconcileConfig struct {
	// Interval between background sweeps; zero disables them.
	Interval time.Duration `mapstructure:"interval"`
}

type HandoffConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("service_name", "class-service")

	v.SetDefault("http.port", "8080")
	v.SetDefault("http.read_timeout", "15s")
	v.SetDefault("http.write_timeout", "15s")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("http.max_upload_bytes", 10<<20)

	v.SetDefault("metrics.port", "9095")

	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.op_timeout", "5s")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "class_service_db")
	v.SetDefault("mongo.collection", "nodes")
	v.SetDefault("mongo.username", "")
	v.SetDefault("mongo.password", "")
	v.SetDefault("mongo.connect_timeout", "10s")
	v.SetDefault("mongo.min_pool_size", 0)
	v.SetDefault("mongo.max_pool_size", 100)

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.connect_timeout", "5s")
	v.SetDefault("nats.change_subject", "classsvc.changes")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "class-images")
	v.SetDefault("minio.use_ssl", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output_file", "")

	v.SetDefault("tracing.otlp_endpoint", "")

	v.SetDefault("reconcile.interval", "10m")

	v.SetDefault("handoff.ttl", "1s")
}

// LoadConfig reads defaults, then an optional .env file, then an optional YAML
// file at path (a file or a directory holding config.yaml), then CLASS_*
// environment variables.
func LoadConfig(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		fi, err := os.Stat(path)
		switch {
		case err == nil && !fi.IsDir():
			v.SetConfigFile(path)
		case err == nil:
			v.AddConfigPath(path)
			v.SetConfigName("config")
			v.SetConfigType("yaml")
		default:
			return nil, fmt.Errorf("config path %s: %w", path, err)
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendMongo:
		if c.Mongo.URI == "" || c.Mongo.Database == "" {
			return fmt.Errorf("config: mongo.uri and mongo.database are required for the mongo backend")
		}
		if c.NATS.URL == "" {
			return fmt.Errorf("config: nats.url is required for the mongo backend")
		}
	default:
		return fmt.Errorf("config: unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.OpTimeout <= 0 {
		return fmt.Errorf("config: store.op_timeout must be positive")
	}
	return nil
}
