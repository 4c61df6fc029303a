package kafka

import (
	"strings"

	"github.com/IBM/sarama"
	"github.com/xdg-go/scram"
)

func configureSASL(base *sarama.Config, mechanism string) {
	switch strings.ToUpper(strings.TrimSpace(mechanism)) {
	case "SCRAM-SHA-512":
		base.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA512
		base.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &scramClient{hash: scram.SHA512}
		}
	case "SCRAM-SHA-256":
		base.Net.SASL.Mechanism = sarama.SASLTypeSCRAMSHA256
		base.Net.SASL.SCRAMClientGeneratorFunc = func() sarama.SCRAMClient {
			return &scramClient{hash: scram.SHA256}
		}
	default:
		base.Net.SASL.Mechanism = sarama.SASLTypePlaintext
	}
}

// scramClient adapts xdg-go/scram to sarama.SCRAMClient.
type scramClient struct {
	conv *scram.ClientConversation
	hash scram.HashGeneratorFcn
}

func (c *scramClient) Begin(userName, password, authzID string) error {
	client, err := c.hash.NewClient(userName, password, authzID)
	if err != nil {
		return err
	}
	c.conv = client.NewConversation()
	return nil
}

func (c *scramClient) Step(challenge string) (string, error) {
	return c.conv.Step(challenge)
}

func (c *scramClient) Done() bool {
	return c.conv.Done()
}
