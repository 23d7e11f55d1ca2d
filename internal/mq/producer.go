package mq

import (
	"context"
	"fmt"
	"os"
	"time"

	"cu-bench-sol/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const (
	defaultBatchSize = 32 * 1024
	defaultLingerMs  = 5
)

type KafkaProducerOption struct {
	Brokers   string // Kafka broker 地址，多个用英文逗号分隔（如 "localhost:9092,localhost:9093"）
	BatchSize int    // 批处理大小（单位字节）
	LingerMs  int    // 批处理最大延迟（毫秒）

	Topic      string
	Partitions int
}

// NewKafkaProducer 创建 Kafka 生产者，topic 不存在时先创建
func NewKafkaProducer(opt KafkaProducerOption) (*kafka.Producer, error) {
	if err := ensureTopic(opt); err != nil {
		return nil, err
	}

	batchSize := opt.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	lingerMs := opt.LingerMs
	if lingerMs < 0 {
		lingerMs = defaultLingerMs
	}

	host, _ := os.Hostname()
	if host == "" {
		host = "unknown"
	}

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": opt.Brokers,
		"client.id":         fmt.Sprintf("cu-bench-sol-%s", host),

		// 可靠性保障
		"acks":                                  "all",
		"enable.idempotence":                    true,
		"max.in.flight.requests.per.connection": 5, // 幂等场景下最大值为 5

		// 超时与重试
		"delivery.timeout.ms": 30000,
		"request.timeout.ms":  30000,
		"retries":             5,
		"retry.backoff.ms":    100,

		"batch.size":       batchSize,
		"linger.ms":        lingerMs,
		"compression.type": "none",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return producer, nil
}

func ensureTopic(opt KafkaProducerOption) error {
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": opt.Brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer adminClient.Close()

	meta, err := adminClient.GetMetadata(nil, true, 10000)
	if err != nil {
		return fmt.Errorf("failed to get metadata: %w", err)
	}
	for _, t := range meta.Topics {
		if t.Topic == opt.Topic {
			return nil
		}
	}

	// 副本数不超过 broker 数
	replicationFactor := 1
	if len(meta.Brokers) > 1 {
		replicationFactor = 2
	}
	partitions := opt.Partitions
	if partitions <= 0 {
		partitions = 1
	}
	logger.Infof("[mq] creating topic %s partitions=%d replication=%d", opt.Topic, partitions, replicationFactor)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := adminClient.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             opt.Topic,
		NumPartitions:     partitions,
		ReplicationFactor: replicationFactor,
	}})
	if err != nil {
		return fmt.Errorf("failed to create topics: %w", err)
	}
	for _, result := range results {
		if code := result.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %w", result.Topic, result.Error)
		}
	}
	return nil
}
