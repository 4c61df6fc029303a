package config

// ==================== 基础配置 ====================

// AppConfig 应用基础配置
type AppConfig struct {
	Env    string `yaml:"env" mapstructure:"env"`
	NodeID string `yaml:"node_id" mapstructure:"node_id"`
}

// LogConfig 日志配置
type LogConfig struct {
	Format       string        `yaml:"format" mapstructure:"format"`
	Level        string        `yaml:"level" mapstructure:"level"`
	ReportCaller bool          `yaml:"report_caller" mapstructure:"report_caller"`
	File         LogFileConfig `yaml:"file" mapstructure:"file"`
}

// LogFileConfig 日志文件配置，按天滚动
type LogFileConfig struct {
	Enabled      bool   `yaml:"enabled" mapstructure:"enabled"`
	Dir          string `yaml:"dir" mapstructure:"dir"`
	Filename     string `yaml:"filename" mapstructure:"filename"`
	MaxAgeDays   int    `yaml:"max_age_days" mapstructure:"max_age_days"`
	RotationDays int    `yaml:"rotation_days" mapstructure:"rotation_days"`
}

// ==================== ADT / RFC 连接配置 ====================

// ADTConfig ADT HTTP 连接配置
type ADTConfig struct {
	Host     string   `yaml:"host" mapstructure:"host"`
	Port     int      `yaml:"port" mapstructure:"port"`
	Client   string   `yaml:"client" mapstructure:"client"`
	Language string   `yaml:"language" mapstructure:"language"`
	User     string   `yaml:"user" mapstructure:"user"`
	Password string   `yaml:"password" mapstructure:"password"`
	Token    string   `yaml:"token" mapstructure:"token"` // OAuth bearer token, 优先于 User/Password
	SSL      bool     `yaml:"ssl" mapstructure:"ssl"`
	Verify   bool     `yaml:"verify" mapstructure:"verify"`
	Timeout  Duration `yaml:"timeout" mapstructure:"timeout"`
}

// RFCConfig 原生 RFC 连接配置
type RFCConfig struct {
	Host     string `yaml:"host" mapstructure:"host"`
	SysNr    string `yaml:"sysnr" mapstructure:"sysnr"`
	Client   string `yaml:"client" mapstructure:"client"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
}

// SessionConfig CSRF/cookie 会话缓存配置
type SessionConfig struct {
	Backend string   `yaml:"backend" mapstructure:"backend"` // "memory" | "redis"
	TTL     Duration `yaml:"ttl" mapstructure:"ttl"`
	Prefix  string   `yaml:"prefix" mapstructure:"prefix"`
}

// ==================== 基础设施配置 ====================

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string `yaml:"addr" mapstructure:"addr"`
	Username string `yaml:"username" mapstructure:"username"`
	Password string `yaml:"password" mapstructure:"password"`
	Db       int    `yaml:"db" mapstructure:"db"`
}

// KafkaConfig Kafka 配置
type KafkaConfig struct {
	Enabled       bool     `yaml:"enabled" mapstructure:"enabled"`
	Brokers       []string `yaml:"brokers" mapstructure:"brokers"`
	Topic         string   `yaml:"topic" mapstructure:"topic"`
	ClientID      string   `yaml:"client_id" mapstructure:"client_id"`
	Username      string   `yaml:"username" mapstructure:"username"`
	Password      string   `yaml:"password" mapstructure:"password"`
	SASLMechanism string   `yaml:"sasl_mechanism" mapstructure:"sasl_mechanism"`
	TLSEnabled    bool     `yaml:"tls_enabled" mapstructure:"tls_enabled"`
	RequiredAcks  string   `yaml:"required_acks" mapstructure:"required_acks"`
	MaxAttempts   int      `yaml:"max_attempts" mapstructure:"max_attempts"`
}

// ==================== 可观测性配置 ====================

// TracingConfig 分布式追踪配置
type TracingConfig struct {
	Exporter     string            `yaml:"exporter" mapstructure:"exporter"`
	Endpoint     string            `yaml:"endpoint" mapstructure:"endpoint"`
	ServiceName  string            `yaml:"service_name" mapstructure:"service_name"`
	Insecure     bool              `yaml:"insecure" mapstructure:"insecure"`
	SampleRatio  float64           `yaml:"sample_ratio" mapstructure:"sample_ratio"`
	ResourceTags map[string]string `yaml:"resource_tags" mapstructure:"resource_tags"`
}

// MetricsConfig 指标暴露配置
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Addr    string `yaml:"addr" mapstructure:"addr"`
}

// Config 聚合 adt-lib 各组件配置，供 cmd 与服务直接加载
type Config struct {
	App     AppConfig     `yaml:"app" mapstructure:"app"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
	ADT     ADTConfig     `yaml:"adt" mapstructure:"adt"`
	RFC     RFCConfig     `yaml:"rfc" mapstructure:"rfc"`
	Session SessionConfig `yaml:"session" mapstructure:"session"`
	Redis   RedisConfig   `yaml:"redis" mapstructure:"redis"`
	Kafka   KafkaConfig   `yaml:"kafka" mapstructure:"kafka"`
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics MetricsConfig `yaml:"metrics" mapstructure:"metrics"`
}
