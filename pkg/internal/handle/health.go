package handle

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	ctxPkg "github.com/yeisme/docflow/pkg/context"
)

const probeTimeout = 2 * time.Second

// errDisabled 表示可选组件未配置，不算故障.
var errDisabled = errors.New("disabled")

// probe 检查一个依赖，返回附加信息.
type probe func(ctx context.Context) (gin.H, error)

var probes = map[string]probe{
	"db": func(ctx context.Context) (gin.H, error) {
		dbc := ctxPkg.GetDBClient(ctx)
		if dbc == nil || dbc.DB == nil {
			return nil, errors.New("metadata store not initialized")
		}

		sqlDB, err := dbc.DB.DB()
		if err != nil {
			return nil, err
		}

		return nil, sqlDB.PingContext(ctx)
	},
	"s3": func(ctx context.Context) (gin.H, error) {
		s3c := ctxPkg.GetS3Client(ctx)
		if s3c == nil || s3c.Client == nil {
			return nil, errors.New("blob store not initialized")
		}

		return gin.H{"bucket": s3c.Bucket()}, s3c.HealthCheck(ctx)
	},
	"mq": func(ctx context.Context) (gin.H, error) {
		if ctxPkg.GetMQClient(ctx) == nil {
			return nil, errDisabled
		}

		return nil, nil
	},
	"kv": func(ctx context.Context) (gin.H, error) {
		kvc := ctxPkg.GetKVClient(ctx)
		if kvc == nil {
			return nil, errDisabled
		}

		info := gin.H{"type": string(kvc.Type)}

		const key = "health:probe"
		if err := kvc.Set(ctx, key, []byte("1"), probeTimeout); err != nil {
			return info, err
		}

		_, err := kvc.Get(ctx, key)

		return info, err
	},
}

// runProbe 执行探针并返回 (是否健康, 响应体).
func runProbe(ctx context.Context, component string) (bool, gin.H) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	info, err := probes[component](ctx)

	body := gin.H{"component": component}
	for k, v := range info {
		body[k] = v
	}

	switch {
	case errors.Is(err, errDisabled):
		body["status"] = "disabled"
	case err != nil:
		body["status"] = "unhealthy"
		body["error"] = err.Error()

		return false, body
	default:
		body["status"] = "ok"
	}

	return true, body
}

func health(component string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, body := runProbe(c.Request.Context(), component)
		if !ok {
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}

		c.JSON(http.StatusOK, body)
	}
}

// HealthDB 元数据库健康检查.
//
//	@Summary	元数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/db [get]
func HealthDB(c *gin.Context) { health("db")(c) }

// HealthS3 文档 bucket 健康检查.
//
//	@Summary	对象存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/s3 [get]
func HealthS3(c *gin.Context) { health("s3")(c) }

// HealthMQ 事件总线；未启用时为 disabled.
//
//	@Summary	事件总线健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Router		/api/v1/health/mq [get]
func HealthMQ(c *gin.Context) { health("mq")(c) }

// HealthKV 列表缓存，写入并读回一个探针键.
//
//	@Summary	缓存健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]string
//	@Failure	503	{object}	map[string]string
//	@Router		/api/v1/health/kv [get]
func HealthKV(c *gin.Context) { health("kv")(c) }

// Readiness 并发执行全部探针，任一失败返回 503.
//
//	@Summary	就绪检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	map[string]any
//	@Failure	503	{object}	map[string]any
//	@Router		/api/v1/health [get]
func Readiness(c *gin.Context) {
	var (
		mu      sync.Mutex
		ready   = true
		results = make(gin.H, len(probes))
	)

	g, ctx := errgroup.WithContext(c.Request.Context())

	for name := range probes {
		g.Go(func() error {
			ok, body := runProbe(ctx, name)

			mu.Lock()
			results[name] = body
			ready = ready && ok
			mu.Unlock()

			return nil
		})
	}

	_ = g.Wait()

	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{"ready": ready, "components": results})
}
