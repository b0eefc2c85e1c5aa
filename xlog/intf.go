package xlog

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type logLevel string

const (
	LogLevelDebug logLevel = "DEBUG"
	LogLevelInfo  logLevel = "INFO"
	LogLevelWarn  logLevel = "WARN"
	LogLevelError logLevel = "ERROR"
)

func (lvl logLevel) zapLevel() zapcore.Level {
	switch lvl {
	case LogLevelInfo:
		return zapcore.InfoLevel
	case LogLevelWarn:
		return zapcore.WarnLevel
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelDebug:
		fallthrough
	default:
	}
	return zapcore.DebugLevel
}

func (lvl logLevel) String() string {
	return string(lvl)
}

// ParseLogLevel maps a case-insensitive level name, unknown names fall back
// to DEBUG.
func ParseLogLevel(level string) logLevel {
	return logLevel(getLogLevelOrDefault(level).CapitalString())
}

type logEncoderType uint8

const (
	JSON logEncoderType = iota
	PlainText
	_encMax
)

// ParseLogEncoder maps "json" or "plaintext"/"text"/"console", unknown names
// fall back to JSON.
func ParseLogEncoder(enc string) logEncoderType {
	switch enc {
	case "plaintext", "text", "console", "PlainText":
		return PlainText
	default:
	}
	return JSON
}

type logOutWriterType uint8

const (
	StdOut logOutWriterType = iota
	testMemAsOut
	_writerMax
)

const (
	ContextKeyMapToOmitempty = "_"
	ContextKeyMapToItself    = ""
	coreKeyIgnored           = ""
)

var (
	writerLock = sync.RWMutex{}
	writerMap  = map[logOutWriterType]zapcore.WriteSyncer{
		StdOut: &zapcore.BufferedWriteSyncer{WS: os.Stdout, Size: 512 * 1024, FlushInterval: 30 * time.Second},
	}
	encoderMap = map[logEncoderType]func(cfg zapcore.EncoderConfig) zapcore.Encoder{
		JSON:      zapcore.NewJSONEncoder,
		PlainText: zapcore.NewConsoleEncoder,
	}
)

func getEncoderByType(typ logEncoderType) func(cfg zapcore.EncoderConfig) zapcore.Encoder {
	enc, ok := encoderMap[typ]
	if !ok {
		return zapcore.NewJSONEncoder
	}
	return enc
}

func getOutWriterByType(typ logOutWriterType) zapcore.WriteSyncer {
	writerLock.RLock()
	defer writerLock.RUnlock()
	out, ok := writerMap[typ]
	if !ok {
		return zapcore.Lock(os.Stdout)
	}
	return out
}

func setOutWriter(typ logOutWriterType, ws zapcore.WriteSyncer) {
	writerLock.Lock()
	defer writerLock.Unlock()
	writerMap[typ] = ws
}

type Banner interface {
	JSON() string
	PlainText() string
}

// XLogger mainly implemented by Uber zap logger.
//
// zap() is used to create child loggers for the fx and ants adapters.
//
// ErrorStack is used to print all errors throws stacks.
// Instead of using zap default error stack, it prints the
// infra.ErrorStack frames as a JSON array, which is easy for
// log aggregators to parse.
//
// The interface methods with context add the configured
// context values as additional fields.
//
// Log format is not recommended, because it is low performance.
type XLogger interface {
	zap() *zap.Logger

	IncreaseLogLevel(level zapcore.Level)
	Level() string
	Sync() error
	Banner(banner Banner)

	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(err error, msg string, fields ...zap.Field)
	ErrorStack(err error, msg string, fields ...zap.Field)

	DebugContext(ctx context.Context, msg string, fields ...zap.Field)
	InfoContext(ctx context.Context, msg string, fields ...zap.Field)
	WarnContext(ctx context.Context, msg string, fields ...zap.Field)
	ErrorContext(ctx context.Context, err error, msg string, fields ...zap.Field)
	ErrorStackContext(ctx context.Context, err error, msg string, fields ...zap.Field)

	Logf(lvl zapcore.Level, format string, args ...any)
	ErrorStackf(err error, format string, args ...any)
}
