package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/KangAthiwat-Dev/Smart-Watch-Project/internal/models"
)

// DatabaseConfig PostgreSQL 配置
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MaxIdle  int
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode)
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MQTTConfig MQTT 配置（站点告警通道，可选）
type MQTTConfig struct {
	Broker   string // 为空表示不启用 MQTT 通道
	ClientID string
	Username string
	Password string
	QoS      byte
}

// LineConfig LINE push 配置
type LineConfig struct {
	Endpoint    string // push API 地址，测试时可指向本地
	AccessToken string // 为空表示不启用 LINE 通道
}

// AlertPolicy 告警决策策略
// 阈值默认值 + 防抖/心跳参数，可被 YAML 策略文件覆盖
type AlertPolicy struct {
	MinBpm         int     `yaml:"min_bpm"`
	MaxBpm         int     `yaml:"max_bpm"`
	MaxTemperature float64 `yaml:"max_temperature"`

	// near zone 2 阈值系数：nearR2 = floor(r2 * ratio)
	NearZoneRatio float64 `yaml:"near_zone_ratio"`

	// 历史记录心跳间隔（无状态变化时多久强制存一条）
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// 开机毛刺 (status=0, distance=0) 的确认次数
	// 0 = 永远忽略（与旧行为一致）；N>0 = 连续 N+1 次零上报后按真实在家处理
	GlitchConfirmCount int `yaml:"glitch_confirm_count"`

	// 单条通知的发送超时
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
}

// DefaultThresholds 阈值回退值：被监护人没有配置 vital_settings 行时用这组
func (p *AlertPolicy) DefaultThresholds() models.VitalThresholds {
	return models.VitalThresholds{
		MinBpm:         p.MinBpm,
		MaxBpm:         p.MaxBpm,
		MaxTemperature: p.MaxTemperature,
	}
}

// Config 服务配置
type Config struct {
	Database DatabaseConfig
	Redis    RedisConfig
	MQTT     MQTTConfig
	Line     LineConfig
	Alert    AlertPolicy

	HTTP struct {
		Addr string
	}

	Notify struct {
		Stream        string // 通知队列 stream
		ConsumerGroup string
		KeyPrefix     string // Redis 缓存键前缀
		CacheTTL      time.Duration
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 从环境变量加载配置，ALERT_POLICY_FILE 指定的 YAML 可覆盖告警策略
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnvInt("DB_PORT", 5432)
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "smartwatch")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.MaxConns = getEnvInt("DB_MAX_CONNS", 10)
	cfg.Database.MaxIdle = getEnvInt("DB_MAX_IDLE", 5)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "smartwatch-backend")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1

	cfg.Line.Endpoint = getEnv("LINE_PUSH_ENDPOINT", "https://api.line.me/v2/bot/message/push")
	cfg.Line.AccessToken = getEnv("LINE_CHANNEL_ACCESS_TOKEN", "")

	cfg.HTTP.Addr = getEnv("HTTP_ADDR", ":8080")

	cfg.Notify.Stream = getEnv("NOTIFY_STREAM", "smartwatch:notifications")
	cfg.Notify.ConsumerGroup = getEnv("NOTIFY_GROUP", "dispatchers")
	cfg.Notify.KeyPrefix = getEnv("CACHE_KEY_PREFIX", "smartwatch:dependent:")
	cfg.Notify.CacheTTL = 10 * time.Minute

	cfg.Alert = AlertPolicy{
		MinBpm:             models.DefaultMinBpm,
		MaxBpm:             models.DefaultMaxBpm,
		MaxTemperature:     models.DefaultMaxTemperature,
		NearZoneRatio:      0.8,
		HeartbeatInterval:  5 * time.Minute,
		GlitchConfirmCount: 0,
		DispatchTimeout:    10 * time.Second,
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	if path := os.Getenv("ALERT_POLICY_FILE"); path != "" {
		if err := loadPolicyFile(path, &cfg.Alert); err != nil {
			return nil, fmt.Errorf("failed to load alert policy file: %w", err)
		}
	}

	if err := cfg.Alert.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadPolicyFile 从 YAML 覆盖告警策略（只覆盖文件里出现的字段）
func loadPolicyFile(path string, policy *AlertPolicy) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// YAML 里用可读的字符串时长（"5m"），单独解析
	var raw struct {
		MinBpm             *int     `yaml:"min_bpm"`
		MaxBpm             *int     `yaml:"max_bpm"`
		MaxTemperature     *float64 `yaml:"max_temperature"`
		NearZoneRatio      *float64 `yaml:"near_zone_ratio"`
		HeartbeatInterval  *string  `yaml:"heartbeat_interval"`
		GlitchConfirmCount *int     `yaml:"glitch_confirm_count"`
		DispatchTimeout    *string  `yaml:"dispatch_timeout"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return err
	}

	if raw.MinBpm != nil {
		policy.MinBpm = *raw.MinBpm
	}
	if raw.MaxBpm != nil {
		policy.MaxBpm = *raw.MaxBpm
	}
	if raw.MaxTemperature != nil {
		policy.MaxTemperature = *raw.MaxTemperature
	}
	if raw.NearZoneRatio != nil {
		policy.NearZoneRatio = *raw.NearZoneRatio
	}
	if raw.GlitchConfirmCount != nil {
		policy.GlitchConfirmCount = *raw.GlitchConfirmCount
	}
	if raw.HeartbeatInterval != nil {
		d, err := time.ParseDuration(*raw.HeartbeatInterval)
		if err != nil {
			return fmt.Errorf("invalid heartbeat_interval: %w", err)
		}
		policy.HeartbeatInterval = d
	}
	if raw.DispatchTimeout != nil {
		d, err := time.ParseDuration(*raw.DispatchTimeout)
		if err != nil {
			return fmt.Errorf("invalid dispatch_timeout: %w", err)
		}
		policy.DispatchTimeout = d
	}

	return nil
}

func (p *AlertPolicy) validate() error {
	if p.MinBpm <= 0 || p.MaxBpm <= p.MinBpm {
		return fmt.Errorf("invalid bpm thresholds: min=%d max=%d", p.MinBpm, p.MaxBpm)
	}
	if p.NearZoneRatio <= 0 || p.NearZoneRatio >= 1 {
		return fmt.Errorf("near_zone_ratio must be in (0,1): %v", p.NearZoneRatio)
	}
	if p.HeartbeatInterval <= 0 {
		return fmt.Errorf("heartbeat_interval must be positive")
	}
	if p.GlitchConfirmCount < 0 {
		return fmt.Errorf("glitch_confirm_count must be >= 0")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
