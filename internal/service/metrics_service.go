package service

import (
	"context"
	"errors"

	"cu-bench-sol/internal/metrics"

	"github.com/zeromicro/go-zero/core/logx"
)

// MetricsService 暴露 /metrics，随 ServiceGroup 启停
type MetricsService struct {
	listen string
	ctx    context.Context
	cancel func(err error)
	logx.Logger
}

func NewMetricsService(listen string) *MetricsService {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &MetricsService{
		listen: listen,
		ctx:    ctx,
		cancel: cancel,
		Logger: logx.WithContext(ctx).WithFields(logx.Field("service", "metrics")),
	}
}

func (m *MetricsService) Start() {
	m.Infof("metrics listening on %s", m.listen)
	if err := metrics.Serve(m.ctx, m.listen); err != nil {
		m.Errorf("metrics server exited: %v", err)
	}
}

func (m *MetricsService) Stop() {
	m.cancel(errors.New("service stop"))
}
