// Package log 持有进程级 zerolog logger.
// 调试模式输出彩色控制台格式并附带调用位置；否则输出 JSON，便于采集.
// 开启 log.enable_file 时另写一份到 lumberjack 轮转文件.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/yeisme/docflow/pkg/configs"
)

var (
	logger   zerolog.Logger
	initOnce sync.Once
)

// Init 按全局配置初始化 logger，只生效一次.
func Init() {
	initOnce.Do(func() { logger = build(configs.GetConfig(), os.Stderr) })
}

func build(cfg *configs.AppConfig, stderr io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Log.Level))
	if err != nil || lvl == zerolog.NoLevel {
		if cfg.Log.Level != "" {
			fmt.Fprintf(stderr, "unknown log level %q, using info\n", cfg.Log.Level)
		}

		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := stderr
	if cfg.Server.Debug {
		out = zerolog.ConsoleWriter{Out: stderr, TimeFormat: time.TimeOnly}
	}

	if cfg.Log.EnableFile {
		out = zerolog.MultiLevelWriter(out, &lumberjack.Logger{
			Filename:   cfg.Log.FilePath,
			MaxSize:    cfg.Log.MaxSize,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAge,
			Compress:   cfg.Log.Compress,
		})
	}

	zctx := zerolog.New(out).With().Timestamp().Str("service", "docflow")

	if cfg.Server.Debug {
		zctx = zctx.Caller()

		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	l := zctx.Logger()
	log.Logger = l

	return l
}

// Logger 返回全局 logger，未初始化时先按当前配置初始化.
func Logger() *zerolog.Logger {
	Init()

	return &logger
}

// Component 返回带 component 字段的子 logger.
func Component(name string) zerolog.Logger {
	return Logger().With().Str("component", name).Logger()
}

// GinWriter 把 gin 的调试输出按行转成 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

// NewGinWriter 创建 GinWriter；非错误级别的输出一律记为 debug.
func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	if level < zerolog.WarnLevel {
		level = zerolog.DebugLevel
	}

	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(strings.TrimSpace(string(p)), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			w.logger.WithLevel(w.level).Str("source", "gin").Msg(strings.TrimPrefix(line, "[GIN-debug] "))
		}
	}

	return len(p), nil
}
