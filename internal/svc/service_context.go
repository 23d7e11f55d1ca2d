package svc

import (
	"context"
	"fmt"
	"time"

	"cu-bench-sol/internal/config"
	"cu-bench-sol/internal/ledger"
	"cu-bench-sol/internal/logic/account"
	"cu-bench-sol/internal/logic/confirm"
	"cu-bench-sol/internal/logic/funding"
	"cu-bench-sol/internal/logic/programsize"
	"cu-bench-sol/internal/logic/progress"
	"cu-bench-sol/internal/logic/submitter"
	"cu-bench-sol/internal/mq"
	"cu-bench-sol/pkg/logger"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const dialTimeout = 5 * time.Second

// ServiceContext 包含一次基准运行需要的全部资源
type ServiceContext struct {
	Config config.BenchConfig
	RunID  string

	Ledger    ledger.Client
	Reader    *account.Reader
	Resolver  *programsize.Resolver
	Poller    *funding.Poller
	Submitter *submitter.Submitter
	Verifier  *confirm.Verifier
	Progress  *progress.Manager

	Redis    *redis.Client
	Pg       *pgxpool.Pool
	Producer *kafka.Producer
}

// NewServiceContext 连接节点与已配置的出口（Redis / PostgreSQL / Kafka）
func NewServiceContext(c config.BenchConfig) (*ServiceContext, error) {
	client := ledger.NewRpcClient(c.Rpc.ToRpcOption(c.Batch.SkipPreflight))
	sc, err := NewServiceContextWithLedger(c, client)
	if err != nil {
		return nil, err
	}

	if err := sc.initSinks(); err != nil {
		sc.Close()
		return nil, err
	}

	logger.Infof("[svc] 服务上下文初始化完成, run=%s endpoint=%s", sc.RunID, c.Rpc.Endpoint)
	return sc, nil
}

// NewServiceContextWithLedger 用给定的 ledger.Client 组装各组件，不连接任何出口
func NewServiceContextWithLedger(c config.BenchConfig, client ledger.Client) (*ServiceContext, error) {
	sub, err := submitter.NewSubmitter(client, c.Batch.ToSubmitterOption())
	if err != nil {
		return nil, err
	}

	reader := account.NewReader(client)
	runID := newRunID()
	return &ServiceContext{
		Config:    c,
		RunID:     runID,
		Ledger:    client,
		Reader:    reader,
		Resolver:  programsize.NewResolver(reader),
		Poller:    funding.NewPoller(client, c.Funding.ToFundingOption()),
		Submitter: sub,
		Verifier:  confirm.NewVerifier(client, c.Confirm.ToConfirmOption()),
		Progress:  progress.NewManager(runID),
	}, nil
}

func (sc *ServiceContext) initSinks() error {
	c := sc.Config

	if c.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     c.Redis.Addr,
			Password: c.Redis.Password,
			DB:       c.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		err := rdb.Ping(ctx).Err()
		cancel()
		if err != nil {
			_ = rdb.Close()
			return fmt.Errorf("redis ping %s: %w", c.Redis.Addr, err)
		}
		sc.Redis = rdb
		sc.Progress.WithStatusStore(progress.NewRedisStatusStore(rdb, time.Duration(c.Redis.TTLSec)*time.Second))
		logger.Infof("[svc] redis status store enabled: %s", c.Redis.Addr)
	}

	if c.Postgres.DSN != "" {
		ctx, cancel := context.WithTimeout(context.Background(), dialTimeout)
		defer cancel()
		pool, err := pgxpool.New(ctx, c.Postgres.DSN)
		if err != nil {
			return fmt.Errorf("postgres connect: %w", err)
		}
		store := progress.NewPgOutcomeStore(pool)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return err
		}
		sc.Pg = pool
		sc.Progress.WithOutcomeStore(store)
		logger.Infof("[svc] postgres outcome store enabled")
	}

	if c.Kafka.Brokers != "" {
		producer, err := mq.NewKafkaProducer(c.Kafka.ToKafkaOption())
		if err != nil {
			logger.Errorf("[svc] Kafka producer 初始化失败: %v", err)
			return err
		}
		sc.Producer = producer
		sc.Progress.WithPublisher(mq.NewOutcomePublisher(producer, c.Kafka.Topic, c.Kafka.Partitions,
			time.Duration(c.Kafka.SendTimeoutMs)*time.Millisecond))
		logger.Infof("[svc] kafka publisher enabled: topic=%s", c.Kafka.Topic)
	}
	return nil
}

// Close 关闭服务上下文中的资源
func (sc *ServiceContext) Close() {
	if sc.Producer != nil {
		sc.Producer.Flush(3000)
		sc.Producer.Close()
	}
	if sc.Pg != nil {
		sc.Pg.Close()
	}
	if sc.Redis != nil {
		_ = sc.Redis.Close()
	}
}

func newRunID() string {
	return time.Now().UTC().Format("20060102T150405.000Z")
}
