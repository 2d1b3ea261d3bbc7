package config

import "github.com/segmentio/kafka-go"

// NewKafkaWriter returns a writer for topic, or nil when no brokers are
// configured so callers can run without Kafka.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if len(brokers) == 0 {
		return nil
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // keep one username on one partition
		AllowAutoTopicCreation: true,
	}
}
