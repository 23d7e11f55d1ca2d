package mq

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"cu-bench-sol/internal/logic/progress"
	"cu-bench-sol/internal/utils"
	"cu-bench-sol/pkg/logger"

	"google.golang.org/protobuf/types/known/structpb"
)

const defaultSendTimeout = 5 * time.Second

// OutcomePublisher 把每笔交易的确认结果作为事件发到 Kafka，按序号分区
type OutcomePublisher struct {
	producer    Producer
	topic       string
	partitions  int32
	sendTimeout time.Duration
}

func NewOutcomePublisher(producer Producer, topic string, partitions int, sendTimeout time.Duration) *OutcomePublisher {
	if partitions <= 0 {
		partitions = 1
	}
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	return &OutcomePublisher{
		producer:    producer,
		topic:       topic,
		partitions:  int32(partitions),
		sendTimeout: sendTimeout,
	}
}

// Publish 发送全部记录，任一失败返回汇总错误
func (p *OutcomePublisher) Publish(ctx context.Context, records []*progress.TxRecord) error {
	jobs := make([]*KafkaJob, 0, len(records))
	for _, rec := range records {
		value, err := EncodeTxRecord(rec)
		if err != nil {
			return err
		}
		jobs = append(jobs, &KafkaJob{
			Topic:     p.topic,
			Partition: int32(rec.Index % uint32(p.partitions)),
			Key:       []byte(rec.RunID + ":" + strconv.FormatUint(uint64(rec.Index), 10)),
			Value:     value,
		})
	}

	ok, failed := SendKafkaJobs(ctx, p.producer, jobs, p.sendTimeout)
	if len(failed) == 0 {
		logger.Debugf("[mq] published %d outcome events to %s", len(ok), p.topic)
		return nil
	}

	errs := make([]error, 0, len(failed))
	for _, f := range failed {
		errs = append(errs, f.Err)
	}
	return fmt.Errorf("publish: %d/%d events failed: %w", len(failed), len(jobs), errors.Join(errs...))
}

// EncodeTxRecord 编码为 EventTypeTxOutcome 前缀的 structpb 事件
func EncodeTxRecord(rec *progress.TxRecord) ([]byte, error) {
	fields := map[string]any{
		"run_id":    rec.RunID,
		"index":     rec.Index,
		"signature": rec.Signature,
		"status":    rec.Status.String(),
		"slot":      rec.Slot,
		"attempts":  rec.Attempts,
	}
	if rec.ComputeUnits != nil {
		fields["compute_units"] = *rec.ComputeUnits
	}
	if rec.LoggedCounter != nil {
		fields["logged_counter"] = *rec.LoggedCounter
	}
	if rec.Error != "" {
		fields["error"] = rec.Error
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("build outcome event %d: %w", rec.Index, err)
	}
	return utils.EncodeEvent(utils.EventTypeTxOutcome, msg)
}
