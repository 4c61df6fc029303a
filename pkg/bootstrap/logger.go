package bootstrap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/adt-lib/pkg/config"
)

// LoggerOptions 日志初始化选项
type LoggerOptions struct {
	// ServiceName 服务名称，File.Filename 为空时用于日志文件命名
	ServiceName string
	// AddContainerHook 是否添加容器ID钩子
	AddContainerHook bool
	// Output 控制台输出目标，nil 则保持 logrus 默认 (stderr)
	Output io.Writer
}

// containerHook 添加容器ID到日志
type containerHook struct {
	containerID string
}

func (h *containerHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *containerHook) Fire(entry *log.Entry) error {
	entry.Data["container_id"] = h.containerID
	return nil
}

// detectContainerID 检测容器ID
func detectContainerID() string {
	if hostname, err := os.Hostname(); err == nil && hostname != "" {
		return hostname
	}
	if data, err := os.ReadFile("/etc/hostname"); err == nil {
		if hostname := strings.TrimSpace(string(data)); hostname != "" {
			return hostname
		}
	}
	return "unknown"
}

// InitLogger 初始化日志，文件输出由 cfg.File 控制
func InitLogger(cfg config.LogConfig) error {
	return InitLoggerWithOptions(cfg, LoggerOptions{})
}

// InitLoggerWithOptions 使用完整选项初始化日志
func InitLoggerWithOptions(cfg config.LogConfig, opts LoggerOptions) error {
	switch cfg.Format {
	case "text":
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&log.JSONFormatter{})
	}

	if opts.Output != nil {
		log.SetOutput(opts.Output)
	}

	// 非法级别回退到 info
	if lvl, err := log.ParseLevel(cfg.Level); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(log.InfoLevel)
		log.Warnf("invalid log level %q, fallback to info", cfg.Level)
	}

	log.SetReportCaller(cfg.ReportCaller)

	if cfg.File.Enabled {
		if err := setupFileOutput(cfg.File, opts.ServiceName); err != nil {
			return err
		}
	}

	if opts.AddContainerHook {
		log.AddHook(&containerHook{containerID: detectContainerID()})
	}
	return nil
}

// setupFileOutput 同时输出到控制台与按天滚动的日志文件
func setupFileOutput(fileCfg config.LogFileConfig, serviceName string) error {
	logDir := fileCfg.Dir
	if logDir == "" {
		logDir = "./logs"
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir %s: %w", logDir, err)
	}

	filename := fileCfg.Filename
	if filename == "" {
		filename = serviceName
	}
	if filename == "" {
		filename = "adt-lib"
	}

	maxAge := fileCfg.MaxAgeDays
	if maxAge <= 0 {
		maxAge = 7
	}
	rotationDays := fileCfg.RotationDays
	if rotationDays <= 0 {
		rotationDays = 1
	}

	pattern := filepath.Join(logDir, filename+".%Y%m%d.log")
	writer, err := rotatelogs.New(
		pattern,
		rotatelogs.WithLinkName(filepath.Join(logDir, filename+".log")),
		rotatelogs.WithMaxAge(time.Duration(maxAge)*24*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(rotationDays)*24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("open rotating log %s: %w", pattern, err)
	}

	log.SetOutput(io.MultiWriter(log.StandardLogger().Out, writer))
	return nil
}
