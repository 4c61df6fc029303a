package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// LoadOptions 加载配置选项
type LoadOptions struct {
	ConfigPath    string // 配置文件目录，默认 "./configs"
	ConfigFile    string // 显式指定配置文件，优先于 ConfigPath + APP_ENV
	EnvPrefix     string // 环境变量前缀，如 "ADT" 则 ADT_ADT_HOST 覆盖 adt.host
	AllowNoConfig bool   // 允许没有配置文件，纯环境变量配置
}

// LoadConfig 通用配置加载函数
// cfg 必须是指向配置结构体的指针
func LoadConfig(cfg interface{}, opts ...LoadOptions) error {
	opt := LoadOptions{ConfigPath: "./configs"}
	if len(opts) > 0 {
		opt = opts[0]
	}
	if opt.ConfigPath == "" {
		opt.ConfigPath = "./configs"
	}

	if err := loadDotEnv(); err != nil {
		return err
	}

	v := viper.New()
	if opt.ConfigFile != "" {
		v.SetConfigFile(opt.ConfigFile)
	} else {
		v.SetConfigName(fmt.Sprintf("config_%s", GetEnv()))
		v.SetConfigType("yaml")
		v.AddConfigPath(opt.ConfigPath)
	}

	if opt.EnvPrefix != "" {
		v.SetEnvPrefix(opt.EnvPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		bindEnvKeys(v)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !(opt.AllowNoConfig && (errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist))) {
			return fmt.Errorf("read config failed: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config failed: %w", err)
	}
	return nil
}

// Load 加载 adt-lib 聚合配置，注入 SAP 凭据并应用默认值
func Load(opts ...LoadOptions) (*Config, error) {
	cfg := &Config{}
	secrets := []SecretDefinition{
		{Name: "SAP_PASSWORD", Target: &cfg.ADT.Password},
		{Name: "SAP_TOKEN", Target: &cfg.ADT.Token},
		{Name: "RFC_PASSWORD", Target: &cfg.RFC.Password},
		{Name: "REDIS_PASSWORD", Target: &cfg.Redis.Password},
		{Name: "KAFKA_PASSWORD", Target: &cfg.Kafka.Password},
	}
	if err := LoadConfigWithSecrets(cfg, secrets, opts...); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if cfg.App.Env == "" {
		cfg.App.Env = GetEnv()
	}
	if cfg.App.NodeID == "" {
		cfg.App.NodeID = GetNodeID("NODE_ID")
	}
	return cfg, nil
}

func loadDotEnv() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s failed: %w", envFile, err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env failed: %w", err)
	}
	return nil
}

// viper 的 AutomaticEnv 只对已知 key 生效，纯环境变量配置时需要显式绑定
var envKeys = []string{
	"app.env", "app.node_id",
	"log.format", "log.level", "log.report_caller",
	"adt.host", "adt.port", "adt.client", "adt.language", "adt.user",
	"adt.ssl", "adt.verify", "adt.timeout",
	"rfc.host", "rfc.sysnr", "rfc.client", "rfc.user",
	"session.backend", "session.ttl", "session.prefix",
	"redis.addr", "redis.username", "redis.db",
	"kafka.enabled", "kafka.topic", "kafka.client_id", "kafka.username",
	"kafka.sasl_mechanism", "kafka.tls_enabled", "kafka.required_acks", "kafka.max_attempts",
	"tracing.exporter", "tracing.endpoint", "tracing.service_name", "tracing.insecure", "tracing.sample_ratio",
	"metrics.enabled", "metrics.addr",
}

func bindEnvKeys(v *viper.Viper) {
	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}
}

// GetEnv 获取当前环境，默认为 "dev"
func GetEnv() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		return "dev"
	}
	return env
}

// GetNodeID 获取节点 ID，按顺序尝试多个环境变量
// 如果都为空则返回空字符串，调用方可自行生成 UUID
func GetNodeID(envKeys ...string) string {
	for _, key := range envKeys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	if v := os.Getenv("HOSTNAME"); v != "" {
		return v
	}
	return ""
}
