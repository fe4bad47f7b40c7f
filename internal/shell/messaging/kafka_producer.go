package messaging

import (
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// KafkaProducer publishes export status events to a single Kafka topic.
type KafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
}

func NewKafkaProducer(brokers []string, topic string) (*KafkaProducer, error) {
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = 5
	config.Producer.Return.Successes = true
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.Printf("Kafka producer initialized (brokers: %v, topic: %s)", brokers, topic)
	return &KafkaProducer{
		producer: producer,
		topic:    topic,
	}, nil
}

// SendMessage publishes value under key. Messages sharing a key land on the
// same partition, so per-notification ordering holds across transitions.
func (k *KafkaProducer) SendMessage(key string, value []byte, headers map[string]string) error {
	kafkaHeaders := make([]sarama.RecordHeader, 0, len(headers))
	for name, v := range headers {
		kafkaHeaders = append(kafkaHeaders, sarama.RecordHeader{
			Key:   []byte(name),
			Value: []byte(v),
		})
	}

	message := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(key),
		Value:     sarama.ByteEncoder(value),
		Headers:   kafkaHeaders,
		Timestamp: time.Now(),
	}

	partition, offset, err := k.producer.SendMessage(message)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	log.Printf("Published export event %s to partition %d at offset %d", key, partition, offset)
	return nil
}

func (k *KafkaProducer) Close() error {
	if k.producer != nil {
		return k.producer.Close()
	}
	return nil
}
