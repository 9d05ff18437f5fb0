// Package log 提供基于 zerolog 的日志工具，支持 stderr 和文件输出（lumberjack 轮转）.
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

	"github.com/yeisme/fileuploader/pkg/configs"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	closer io.Closer
)

// Init 按配置初始化全局 logger，并同步设置 gin 的运行模式.
// 可以重复调用（例如测试或 CLI 子命令），后一次调用覆盖前一次.
func Init(cfg configs.LogConfig, debug bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		fmt.Fprintf(os.Stderr, "invalid log level %q, defaulting to info\n", cfg.Level)

		lvl = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(lvl)

	console := zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = os.Stderr
		w.TimeFormat = time.Kitchen
	})
	writers := []io.Writer{console}

	var lj *lumberjack.Logger
	if cfg.EnableFile {
		lj = &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}
		writers = append(writers, lj)
	}

	ctx := zerolog.New(io.MultiWriter(writers...)).With()
	if debug {
		ctx = ctx.Caller().Stack()

		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	l := ctx.Timestamp().Logger()

	mu.Lock()
	if closer != nil {
		_ = closer.Close()
		closer = nil
	}

	if lj != nil {
		closer = lj
	}

	logger = l
	log.Logger = l
	mu.Unlock()

	return l
}

// Logger 返回全局 logger.
func Logger() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()

	l := logger

	return &l
}

// Close 关闭日志文件（如果启用了文件输出）.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	if closer == nil {
		return nil
	}

	err := closer.Close()
	closer = nil

	return err
}

// GinWriter 把 Gin 文本行转发为 zerolog 事件.
type GinWriter struct {
	logger *zerolog.Logger
	level  zerolog.Level
}

// NewGinWriter 创建 GinWriter，通常用于 gin.DefaultWriter 与 gin.DefaultErrorWriter.
func NewGinWriter(logger *zerolog.Logger, level zerolog.Level) *GinWriter {
	return &GinWriter{logger: logger, level: level}
}

func (w *GinWriter) Write(p []byte) (n int, err error) {
	msg := strings.TrimSpace(string(p))
	if msg == "" {
		return len(p), nil
	}

	switch w.level {
	case zerolog.ErrorLevel, zerolog.FatalLevel, zerolog.PanicLevel:
		w.logger.Error().Str("component", "gin").Msg(msg)
	case zerolog.WarnLevel:
		w.logger.Warn().Str("component", "gin").Msg(msg)
	default:
		w.logger.Debug().Str("component", "gin").Msg(msg)
	}

	return len(p), nil
}
