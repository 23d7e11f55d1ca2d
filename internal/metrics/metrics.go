package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var RpcRequestByMethod = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cubench_rpc_requests_total",
		Help: "Ledger RPC requests by method and status",
	},
	[]string{"method", "status"},
)

var RpcLatencyHistogram = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "cubench_rpc_latency_seconds",
		Help:    "Ledger RPC latency",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	},
	[]string{"method"},
)

var Submissions = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cubench_submissions_total",
		Help: "Transactions dispatched by the batch submitter",
	},
	[]string{"status"},
)

var Confirmations = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cubench_confirmations_total",
		Help: "Confirmation outcomes (found / cu_unavailable / not_found)",
	},
	[]string{"result"},
)

var ConfirmAttempts = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "cubench_confirm_attempts",
		Help:    "Lookups needed until a transaction was found or the bound was hit",
		Buckets: prometheus.LinearBuckets(1, 1, 10),
	},
)

var ComputeUnits = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "cubench_compute_units",
		Help:    "Compute units consumed per landed transaction",
		Buckets: prometheus.ExponentialBuckets(100, 2, 14),
	},
)

var ProgramSizeBytes = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "cubench_program_size_bytes",
		Help: "Resolved program size",
	},
	[]string{"program", "kind"},
)

// ObserveRpc 记录一次 RPC 调用的结果与耗时
func ObserveRpc(method string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	RpcRequestByMethod.WithLabelValues(method, status).Inc()
	RpcLatencyHistogram.WithLabelValues(method).Observe(time.Since(start).Seconds())
}

// Serve 在 listen 地址上暴露 /metrics，ctx 结束后关闭
func Serve(ctx context.Context, listen string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
