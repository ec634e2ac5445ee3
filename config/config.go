package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Storage  StorageConfig  `yaml:"storage"`
	Equb     EqubConfig     `yaml:"equb"`
	Worker   WorkerConfig   `yaml:"worker"`
	Log      LogConfig      `yaml:"log"`
}

type HTTPConfig struct {
	Address         string `yaml:"address"`
	SwaggerDir      string `yaml:"swagger_dir"`
	ShutdownSeconds int    `yaml:"shutdown_seconds"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int32  `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr            string `yaml:"addr"`
	Password        string `yaml:"password"`
	DB              int    `yaml:"db"`
	BoardTTLSeconds int    `yaml:"board_ttl_seconds"`
}

func (r RedisConfig) BoardTTL() time.Duration {
	return time.Duration(r.BoardTTLSeconds) * time.Second
}

type KafkaConfig struct {
	Brokers       []string `yaml:"brokers"`
	ActivityTopic string   `yaml:"activity_topic"`
	GroupID       string   `yaml:"group_id"`
}

type StorageConfig struct {
	ReceiptDir string `yaml:"receipt_dir"`
}

// EqubConfig holds the static parameters of the ticket pool. Per-cycle
// settings (draw date, submission toggle) live in the settings table.
type EqubConfig struct {
	TicketPoolSize      int      `yaml:"ticket_pool_size"`
	MaxReceiptBytes     int64    `yaml:"max_receipt_bytes"`
	AllowedReceiptTypes []string `yaml:"allowed_receipt_types"`
	BoardPageLimit      int      `yaml:"board_page_limit"`
	BoardPageMaxLimit   int      `yaml:"board_page_max_limit"`
}

type WorkerConfig struct {
	InsertAttempts int `yaml:"insert_attempts"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()

	if cfg.Equb.TicketPoolSize <= 0 {
		return nil, fmt.Errorf("equb.ticket_pool_size must be positive")
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.ShutdownSeconds == 0 {
		c.HTTP.ShutdownSeconds = 5
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Redis.BoardTTLSeconds == 0 {
		c.Redis.BoardTTLSeconds = 30
	}
	if c.Kafka.ActivityTopic == "" {
		c.Kafka.ActivityTopic = "equb.activity"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "equb-worker"
	}
	if c.Storage.ReceiptDir == "" {
		c.Storage.ReceiptDir = "storage/receipts"
	}
	if c.Equb.TicketPoolSize == 0 {
		c.Equb.TicketPoolSize = 5000
	}
	if c.Equb.MaxReceiptBytes == 0 {
		c.Equb.MaxReceiptBytes = 2 << 20
	}
	if len(c.Equb.AllowedReceiptTypes) == 0 {
		c.Equb.AllowedReceiptTypes = []string{"image/jpeg", "image/png", "image/webp"}
	}
	if c.Equb.BoardPageLimit == 0 {
		c.Equb.BoardPageLimit = 100
	}
	if c.Equb.BoardPageMaxLimit == 0 {
		c.Equb.BoardPageMaxLimit = 500
	}
	if c.Worker.InsertAttempts == 0 {
		c.Worker.InsertAttempts = 3
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}
