package config

import (
	"os"
	"strings"
)

// GetSecretOrEnv 从 Docker Secret 文件或环境变量读取敏感信息
// 优先级: {NAME}_FILE 指定的文件 > {NAME} 环境变量 > 默认值
//
// 示例:
//
//	password := GetSecretOrEnv("SAP_PASSWORD", "")
//	// SAP_PASSWORD_FILE=/run/secrets/sap-password 存在时读取文件内容
func GetSecretOrEnv(name string, defaultValue string) string {
	if filePath := os.Getenv(name + "_FILE"); filePath != "" {
		if data, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(data))
		}
	}
	if value := os.Getenv(name); value != "" {
		return value
	}
	return defaultValue
}

// SecretDefinition Secret 定义
type SecretDefinition struct {
	Name     string  // Secret 名称 (如 SAP_PASSWORD)
	Target   *string // 目标字段指针
	Default  string  // 默认值
	Required bool    // 是否必需
}

// SecretNotFoundError Secret 未找到错误
type SecretNotFoundError struct {
	Name string
}

func (e *SecretNotFoundError) Error() string {
	return "required secret not found: " + e.Name
}

// LoadConfigWithSecrets 加载配置并注入 Secrets
// 未设置的非必需 Secret 保留配置文件中的值
func LoadConfigWithSecrets(cfg interface{}, secrets []SecretDefinition, opts ...LoadOptions) error {
	if err := LoadConfig(cfg, opts...); err != nil {
		return err
	}

	for _, s := range secrets {
		if s.Target == nil {
			continue
		}
		value := GetSecretOrEnv(s.Name, s.Default)
		if value == "" {
			value = *s.Target
		}
		if s.Required && value == "" {
			return &SecretNotFoundError{Name: s.Name}
		}
		*s.Target = value
	}
	return nil
}
