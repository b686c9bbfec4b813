package app

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/bookstore/internal/domain"
	"github.com/vladislavdragonenkov/bookstore/internal/messaging/kafka"
)

// initKafkaProducer создаёт producer, если список брокеров непустой.
// Возвращает nil, nil при пустом списке.
func initKafkaProducer(brokers string, logger *log.Entry) (*kafka.Producer, error) {
	brokers = strings.TrimSpace(brokers)
	if brokers == "" {
		return nil, nil
	}

	brokerList := strings.Split(brokers, ",")
	producer, err := kafka.NewProducer(brokerList)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without kafka")
		return nil, err
	}

	logger.WithField("brokers", brokerList).Info("kafka producer initialized")
	return producer, nil
}

// outboxPublishers собирает основной и DLQ паблишеры поверх producer.
// При nil producer оба паблишера nil: outbox-воркер тогда не запускается.
func outboxPublishers(producer *kafka.Producer, cfg Config) (publisher, dlq domain.OutboxPublisher) {
	if producer == nil {
		return nil, nil
	}

	topic := cfg.KafkaTopic
	if topic == "" {
		topic = kafka.TopicOrderEvents
	}
	dlqTopic := cfg.KafkaDLQ
	if dlqTopic == "" {
		dlqTopic = kafka.TopicDeadLetterQueue
	}

	return kafka.NewOutboxPublisher(producer, topic), kafka.NewOutboxPublisher(producer, dlqTopic)
}

// closeKafka закрывает producer, если он создавался.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
