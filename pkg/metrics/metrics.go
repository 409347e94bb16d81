// Package metrics 提供 Prometheus 指标：HTTP 请求指标与文档工作流指标.
//
// Example:
//
//	if err := metrics.InitMetrics(cfg.Metrics); err != nil {
//		log.Fatal(err)
//	}
//
//	metrics.UploadsTotal.WithLabelValues("complete").Inc()
//	metrics.WorkflowTransitions.WithLabelValues("approve", "ok").Inc()
package metrics

import (
	"net/http"
	_ "net/http/pprof" // 注册 pprof 端点
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/docflow/pkg/configs"
)

const namespace = "docflow"

// HTTP 指标.
var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	ActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_connections",
			Help: "Number of active connections",
		},
	)
)

// 文档工作流指标.
var (
	// UploadsTotal 上传项按终态计数（complete / error / rejected）.
	UploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "uploads_total",
			Help:      "Upload items by terminal status",
		},
		[]string{"status"},
	)

	// UploadBytes 成功写入对象存储的字节数.
	UploadBytes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "upload_bytes_total",
			Help:      "Bytes written to the blob store by uploads",
		},
	)

	// UploadBatchDuration 整批上传耗时.
	UploadBatchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_batch_duration_seconds",
			Help:      "Wall time of an upload batch",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	// WorkflowTransitions 工作流动作结果.
	WorkflowTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "workflow_transitions_total",
			Help:      "Workflow actions by result",
		},
		[]string{"action", "result"},
	)

	// BulkItems 批量操作逐项结果.
	BulkItems = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bulk_items_total",
			Help:      "Bulk operation items by result",
		},
		[]string{"action", "result"},
	)

	// OrphanBlobs 产生的孤儿 blob 数.
	OrphanBlobs = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_blobs_total",
			Help:      "Blobs left without a metadata row",
		},
	)

	// OrphansReconciled 对账任务清理的孤儿 blob 数.
	OrphansReconciled = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orphan_blobs_reconciled_total",
			Help:      "Orphan blobs removed by reconciliation",
		},
	)
)

var (
	registry = prometheus.NewRegistry()
	initOnce sync.Once
	initErr  error
)

// InitMetrics 注册收集器，重复调用无副作用.
func InitMetrics(config configs.MetricsConfig) error {
	if !config.Enabled {
		return nil
	}

	initOnce.Do(func() {
		if config.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		reg := prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)

		for _, c := range []prometheus.Collector{
			RequestCounter, RequestDuration, ActiveConnections,
			UploadsTotal, UploadBytes, UploadBatchDuration,
			WorkflowTransitions, BulkItems, OrphanBlobs, OrphansReconciled,
		} {
			if err := reg.Register(c); err != nil {
				initErr = err
				return
			}
		}
	})

	return initErr
}

// StartMetricsServer 在 engine 上挂载指标端点（默认 /metrics）与可选的 pprof.
func StartMetricsServer(config configs.MetricsConfig, engine *gin.Engine) error {
	if !config.Enabled {
		return nil
	}

	path := config.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(promhttp.HandlerFor(
		prometheus.Gatherers{registry, prometheus.DefaultGatherer},
		promhttp.HandlerOpts{},
	)))

	if config.Pprof {
		engine.GET("/debug/pprof/*any", gin.WrapH(http.DefaultServeMux))
	}

	return nil
}

// GetRegistry 获取 Prometheus 注册表.
func GetRegistry() *prometheus.Registry {
	return registry
}

// Result 把 error 转换为 result 标签.
func Result(err error) string {
	if err != nil {
		return "error"
	}

	return "ok"
}
