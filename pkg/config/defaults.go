package config

// ==================== ADTConfig 默认值 ====================

// ApplyDefaults 应用 ADT 连接默认值
func (a *ADTConfig) ApplyDefaults() {
	if a.Port <= 0 {
		if a.SSL {
			a.Port = 443
		} else {
			a.Port = 80
		}
	}
	if a.Language == "" {
		a.Language = "EN"
	}
	if a.Timeout <= 0 {
		a.Timeout = 900
	}
}

// ==================== SessionConfig 默认值 ====================

// ApplyDefaults 应用会话缓存默认值
func (s *SessionConfig) ApplyDefaults() {
	if s.Backend == "" {
		s.Backend = "memory"
	}
	if s.TTL <= 0 {
		s.TTL = 1800
	}
	if s.Prefix == "" {
		s.Prefix = "adt:session:"
	}
}

// ==================== KafkaConfig 默认值 ====================

// ApplyDefaults 应用 Kafka 默认值
func (k *KafkaConfig) ApplyDefaults() {
	if k.Topic == "" {
		k.Topic = "adt.errors"
	}
	if k.ClientID == "" {
		k.ClientID = "adt-lib"
	}
	if k.MaxAttempts <= 0 {
		k.MaxAttempts = 3
	}
}

// ==================== MetricsConfig 默认值 ====================

// ApplyDefaults 应用 Metrics 配置默认值
func (m *MetricsConfig) ApplyDefaults() {
	if m.Addr == "" {
		m.Addr = ":9090"
	}
}

// ==================== TracingConfig 默认值 ====================

// ApplyDefaults 应用 Tracing 配置默认值
func (t *TracingConfig) ApplyDefaults() {
	if t.Exporter == "" {
		t.Exporter = "disabled"
	}
	if t.ServiceName == "" {
		t.ServiceName = "adt-lib"
	}
	if t.SampleRatio <= 0 {
		t.SampleRatio = 1.0
	}
}

// ==================== LogConfig 默认值 ====================

// ApplyDefaults 应用日志默认值
func (l *LogConfig) ApplyDefaults() {
	if l.Level == "" {
		l.Level = "info"
	}
	if l.Format == "" {
		l.Format = "text"
	}
	if l.File.Dir == "" {
		l.File.Dir = "./logs"
	}
	if l.File.MaxAgeDays <= 0 {
		l.File.MaxAgeDays = 7
	}
	if l.File.RotationDays <= 0 {
		l.File.RotationDays = 1
	}
}

// ApplyDefaults 应用全部默认值
func (c *Config) ApplyDefaults() {
	c.Log.ApplyDefaults()
	c.ADT.ApplyDefaults()
	c.Session.ApplyDefaults()
	c.Kafka.ApplyDefaults()
	c.Metrics.ApplyDefaults()
	c.Tracing.ApplyDefaults()
}
