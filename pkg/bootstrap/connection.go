package bootstrap

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"

	"github.com/Goden-Gun/adt-lib/pkg/config"
	"github.com/Goden-Gun/adt-lib/pkg/connection"
	"github.com/Goden-Gun/adt-lib/pkg/events"
)

// InitConnection 组装 ADT 连接：会话缓存、指标、Kafka 错误事件
// 返回的 cleanup 按创建的逆序释放资源
func InitConnection(ctx context.Context, cfg *config.Config) (*connection.Connection, func() error, error) {
	var closers []func() error
	cleanup := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}
	fail := func(err error) (*connection.Connection, func() error, error) {
		_ = cleanup()
		return nil, nil, err
	}

	store, closeStore, err := InitRedisSessionStore(ctx, cfg.Session, cfg.Redis)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeStore)

	collector, stopMetrics, err := InitMetrics(cfg.Metrics)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() error { return stopMetrics(context.Background()) })

	opts := []connection.Option{
		connection.WithSessionStore(store, cfg.Session.TTL.Duration()),
		connection.WithObserver(collector),
	}

	manager, err := InitKafka(cfg.Kafka, collector)
	if err != nil {
		return fail(err)
	}
	if manager != nil {
		closers = append(closers, manager.Close)
		opts = append(opts, connection.WithObserver(events.NewReporter(manager, cfg.Kafka.Topic)))
	}

	conn, err := connection.New(cfg.ADT, opts...)
	if err != nil {
		return fail(err)
	}
	log.WithFields(log.Fields{
		"host":    cfg.ADT.Host,
		"client":  cfg.ADT.Client,
		"session": cfg.Session.Backend,
		"kafka":   manager != nil,
	}).Info("adt connection initialized")
	return conn, cleanup, nil
}
