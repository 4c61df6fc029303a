package bootstrap

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/adt-lib/pkg/config"
	"github.com/Goden-Gun/adt-lib/pkg/metrics"
)

// InitMetrics 创建指标收集器并在 cfg.Addr 上暴露 /metrics
// 未启用时返回收集器与空 shutdown，指标仍会被记录
func InitMetrics(cfg config.MetricsConfig) (*metrics.Collector, ShutdownFunc, error) {
	collector := metrics.NewCollector(nil)
	if !cfg.Enabled {
		return collector, func(context.Context) error { return nil }, nil
	}

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server stopped")
		}
	}()
	log.WithField("addr", ln.Addr().String()).Info("metrics server listening")
	return collector, srv.Shutdown, nil
}
