package config

// Config 配置主体
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	DB         DBConfig         `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Logstash   LogstashConfig   `mapstructure:"logstash"`
	Firehose   FirehoseConfig   `mapstructure:"firehose"`
	Scoring    ScoringConfig    `mapstructure:"scoring"`
	Governance GovernanceConfig `mapstructure:"governance"`
	Kafka      KafkaConfig      `mapstructure:"kafka"`
	Bluesky    BlueskyConfig    `mapstructure:"bluesky"`
	JWT        JWTConfig        `mapstructure:"jwt"`
}

// ServerConfig Server配置
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// DBConfig 数据库配置
type DBConfig struct {
	DSN         string `mapstructure:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle"`
	MaxOpen     int    `mapstructure:"max_open"`
	MaxLifetime int    `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

// LogstashConfig 日志远程上报配置
type LogstashConfig struct {
	Address string `mapstructure:"address"`
	Index   string `mapstructure:"index"`
	Token   string `mapstructure:"token"`
}

// FirehoseConfig Jetstream 订阅配置
type FirehoseConfig struct {
	Endpoint         string `mapstructure:"endpoint"`
	FallbackEndpoint string `mapstructure:"fallback_endpoint"`
	MaxConcurrent    int64  `mapstructure:"max_concurrent"`
	QueueCapacity    int    `mapstructure:"queue_capacity"`
	CursorSaveEvery  int64  `mapstructure:"cursor_save_every"`
	FailuresBefore   int    `mapstructure:"failures_before_fallback"`
	HealthInterval   int    `mapstructure:"health_interval_seconds"`
}

// ScoringConfig 打分管道配置
type ScoringConfig struct {
	Cron            string  `mapstructure:"cron"`
	TopN            int64   `mapstructure:"top_n"`
	WindowHours     int     `mapstructure:"window_hours"`
	CandidateLimit  int     `mapstructure:"candidate_limit"`
	HalfLifeHours   float64 `mapstructure:"half_life_hours"`
	EngagementCeil  float64 `mapstructure:"engagement_ceiling"`
	MaxEngagers     int     `mapstructure:"max_engagers"`
	MaxCompared     int     `mapstructure:"max_compared_engagers"`
	MaxFollowsEach  int     `mapstructure:"max_follows_each"`
	BridgingDefault float64 `mapstructure:"bridging_default"`
}

// GovernanceConfig 治理配置
type GovernanceConfig struct {
	MinVotes       int     `mapstructure:"min_votes"`
	TrimRatio      float64 `mapstructure:"trim_ratio"`
	TransitionCron string  `mapstructure:"transition_cron"`
}

type KafkaConfig struct {
	Brokers           []string   `mapstructure:"brokers"`
	Sasl              SaslConfig `mapstructure:"sasl"`
	AnnouncementTopic string     `mapstructure:"announcement_topic"`
}

type SaslConfig struct {
	Enable   bool   `mapstructure:"enable"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// BlueskyConfig AppView 接口配置
type BlueskyConfig struct {
	APIBase string `mapstructure:"api_base"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpireHours int    `mapstructure:"expire_hours"`
}
