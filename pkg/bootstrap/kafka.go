package bootstrap

import (
	"github.com/Goden-Gun/adt-lib/pkg/config"
	"github.com/Goden-Gun/adt-lib/pkg/kafka"
)

// InitKafka initializes the shared Kafka manager, or returns nil when
// publishing is disabled.
func InitKafka(cfg config.KafkaConfig, observer kafka.PublishObserver) (*kafka.Manager, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	m, err := kafka.NewManager(cfg)
	if err != nil {
		return nil, err
	}
	m.SetPublishObserver(observer)
	return m, nil
}
