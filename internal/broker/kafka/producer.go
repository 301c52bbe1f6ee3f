package kafkabroker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lutefd/logpulse/internal/model"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"
)

type ProducerConfig struct {
	Brokers []string
	Topic   string
}

// Producer streams accepted log records, keyed by project so a project's
// records stay on one partition.
type Producer struct {
	writer *kafka.Writer
	topic  string
}

func NewProducer(cfg ProducerConfig) *Producer {
	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		Async:        true,
		BatchTimeout: 50 * time.Millisecond,
		ErrorLogger:  kafka.LoggerFunc(log.Errorf),
	})
	return &Producer{
		writer: w,
		topic:  cfg.Topic,
	}
}

func EncodeRecord(record model.LogRecord) (kafka.Message, error) {
	value, err := json.Marshal(record)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to encode log record: %w", err)
	}
	return kafka.Message{
		Key:   []byte(record.ProjectID.String()),
		Value: value,
		Time:  record.Timestamp,
	}, nil
}

func (p *Producer) PublishRecord(ctx context.Context, record model.LogRecord) error {
	msg, err := EncodeRecord(record)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Errorf("Failed to send message: %v", err)
		return err
	}
	log.Debugf("Log record %s streamed to %s", record.ID, p.topic)
	return nil
}

func (p *Producer) Close() error {
	log.Info("Closing Kafka producer...")
	return p.writer.Close()
}
