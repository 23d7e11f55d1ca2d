package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOption 日志初始化参数
type LogOption struct {
	Format   string // "console" 或 "json"
	LogDir   string // 为空时只输出到 stdout
	Level    string // debug / info / warn / error
	Compress bool   // 是否压缩轮转后的旧日志
}

const (
	logFileName   = "bench.log"
	maxSizeMB     = 200
	maxBackups    = 10
	maxAgeDays    = 7
	defaultFormat = "console"
)

var (
	mu    sync.RWMutex
	sugar = newDefault()
)

func newDefault() *zap.SugaredLogger {
	core := zapcore.NewCore(newEncoder(defaultFormat), zapcore.AddSync(os.Stdout), zapcore.InfoLevel)
	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()
}

// Init 按配置初始化全局 logger；LogDir 非空时同时写入轮转文件
func Init(opt LogOption) error {
	level, err := parseLevel(opt.Level)
	if err != nil {
		return err
	}

	format := opt.Format
	if format == "" {
		format = defaultFormat
	}
	if format != "console" && format != "json" {
		return fmt.Errorf("unsupported log format %q", opt.Format)
	}

	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stdout)}
	if opt.LogDir != "" {
		if err := os.MkdirAll(opt.LogDir, 0o755); err != nil {
			return fmt.Errorf("create log dir %s: %w", opt.LogDir, err)
		}
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(opt.LogDir, logFileName),
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   opt.Compress,
			LocalTime:  true,
		}))
	}

	core := zapcore.NewCore(newEncoder(format), zapcore.NewMultiWriteSyncer(writers...), level)
	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()

	mu.Lock()
	old := sugar
	sugar = l
	mu.Unlock()
	_ = old.Sync()
	return nil
}

func newEncoder(format string) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeDuration = zapcore.StringDurationEncoder
	if format == "json" {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func parseLevel(s string) (zapcore.Level, error) {
	if s == "" {
		return zapcore.InfoLevel, nil
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(s))); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

func Debugf(template string, args ...any) { get().Debugf(template, args...) }
func Infof(template string, args ...any)  { get().Infof(template, args...) }
func Warnf(template string, args ...any)  { get().Warnf(template, args...) }
func Errorf(template string, args ...any) { get().Errorf(template, args...) }

// Sync 刷新缓冲，进程退出前调用
func Sync() {
	_ = get().Sync()
}
