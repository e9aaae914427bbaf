package config

import "time"

// Chat definition chat_service YAML structure
type Chat struct {
	Port       string `mapstructure:"port"`
	GRPCPort   string `mapstructure:"grpc_port"`
	InstanceID string `mapstructure:"instance_id"`

	MongoSQL   DatabaseConfig `mapstructure:"mongo"`
	PostgreSQL DatabaseConfig `mapstructure:"pg"`
	Redis      RedisConfig    `mapstructure:"redis"`
	RabbitMQ   DatabaseConfig `mapstructure:"rabbitmq"`
	Kafka      KafkaConfig    `mapstructure:"kafka"`
	MinIO      MinIOConfig    `mapstructure:"minio"`

	History    HistoryConfig    `mapstructure:"history"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Loader     LoaderConfig     `mapstructure:"loader"`
	Gate       GateConfig       `mapstructure:"gate"`
	SideEffect SideEffectConfig `mapstructure:"side_effect"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Responder  ResponderConfig  `mapstructure:"responder"`
	Moderation ModerationConfig `mapstructure:"moderation"`
}

// HistoryConfig room history window setting
// TTL <= 0 means the room key never expires, capacity trimming is the only bound.
type HistoryConfig struct {
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig per identity send quota
type RateLimitConfig struct {
	MaxActions int           `mapstructure:"max_actions"`
	Window     time.Duration `mapstructure:"window"`
}

// LoaderConfig history page size
type LoaderConfig struct {
	BatchSize int `mapstructure:"batch_size"`
	MaxLimit  int `mapstructure:"max_limit"`
}

// GateConfig time budget of the session / rate checks
type GateConfig struct {
	SessionTimeout   time.Duration `mapstructure:"session_timeout"`
	RateLimitTimeout time.Duration `mapstructure:"rate_limit_timeout"`
}

// SideEffectConfig best effort task budget
type SideEffectConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// UploadConfig upload flow compatibility setting
type UploadConfig struct {
	KeyPrefix  string        `mapstructure:"key_prefix"`
	PresignTTL time.Duration `mapstructure:"presign_ttl"`
}

// ResponderConfig automated responder dispatch
type ResponderConfig struct {
	Queue string   `mapstructure:"queue"`
	Names []string `mapstructure:"names"`
}

// ModerationConfig banned word list
type ModerationConfig struct {
	Words []string `mapstructure:"words"`
}

// RedisConfig definition redis setting
// Addr is used when no sentinel is configured in .env
type RedisConfig struct {
	RedisDB int    `mapstructure:"redis_db"`
	Addr    string `mapstructure:"addr"`
}

// KafkaConfig definition kafka setting
type KafkaConfig struct {
	Brokers       []string `mapstructure:"brokers"`
	Topic         string   `mapstructure:"topic"`
	RetryCount    int      `mapstructure:"retry_count"`
	RetryInterval int      `mapstructure:"retry_interval"`
}

// MinIOConfig definition minio setting
type MinIOConfig struct {
	Endpoint      string `mapstructure:"endpoint"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	BucketName    string `mapstructure:"bucket_name"`
	UseSSL        bool   `mapstructure:"use_ssl"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryInterval int    `mapstructure:"retry_interval"`
}

// DatabaseConfig definition db setting
type DatabaseConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	User          string `mapstructure:"user"`
	Password      string `mapstructure:"password"`
	Database      string `mapstructure:"database"`
	RetryInterval int    `mapstructure:"retry_interval"`
	RetryCount    int    `mapstructure:"retry_count"`
}

const (
	defaultHistoryCapacity  = 2000
	defaultRateLimitActions = 10000
	defaultRateLimitWindow  = time.Minute
	defaultBatchSize        = 30
	defaultMaxLimit         = 100
	defaultGateTimeout      = 2 * time.Second
	defaultSideEffectBudget = 5 * time.Second
	defaultUploadKeyPrefix  = "public/chat/files/"
	defaultPresignTTL       = time.Hour
	defaultResponderQueue   = "chat.responder"
)

// ApplyDefaults fill zero values
func (c *Chat) ApplyDefaults() {
	if c.History.Capacity <= 0 {
		c.History.Capacity = defaultHistoryCapacity
	}
	if c.RateLimit.MaxActions <= 0 {
		c.RateLimit.MaxActions = defaultRateLimitActions
	}
	if c.RateLimit.Window <= 0 {
		c.RateLimit.Window = defaultRateLimitWindow
	}
	if c.Loader.BatchSize <= 0 {
		c.Loader.BatchSize = defaultBatchSize
	}
	if c.Loader.MaxLimit <= 0 {
		c.Loader.MaxLimit = defaultMaxLimit
	}
	if c.Loader.BatchSize > c.Loader.MaxLimit {
		c.Loader.BatchSize = c.Loader.MaxLimit
	}
	if c.Gate.SessionTimeout <= 0 {
		c.Gate.SessionTimeout = defaultGateTimeout
	}
	if c.Gate.RateLimitTimeout <= 0 {
		c.Gate.RateLimitTimeout = defaultGateTimeout
	}
	if c.SideEffect.Timeout <= 0 {
		c.SideEffect.Timeout = defaultSideEffectBudget
	}
	if c.Upload.KeyPrefix == "" {
		c.Upload.KeyPrefix = defaultUploadKeyPrefix
	}
	if c.Upload.PresignTTL <= 0 {
		c.Upload.PresignTTL = defaultPresignTTL
	}
	if c.Responder.Queue == "" {
		c.Responder.Queue = defaultResponderQueue
	}
	if len(c.Responder.Names) == 0 {
		c.Responder.Names = []string{"wayneAI", "consultingAI"}
	}
}
