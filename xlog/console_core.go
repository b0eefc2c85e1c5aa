package xlog

import (
	"go.uber.org/zap/zapcore"
)

type consoleCore struct {
	lvlEnabler zapcore.LevelEnabler
	lvlEnc     zapcore.LevelEncoder
	tsEnc      zapcore.TimeEncoder
	ws         zapcore.WriteSyncer
	enc        func(cfg zapcore.EncoderConfig) zapcore.Encoder
	zapcore.Core
}

func (cc *consoleCore) encoderConfig(cfg zapcore.EncoderConfig) zapcore.EncoderConfig {
	cfg.EncodeLevel = cc.lvlEnc
	cfg.EncodeTime = cc.tsEnc
	return cfg
}

// named rebuilds the core with the component encoder config, used by the
// child loggers of the adapters.
func (cc *consoleCore) named() zapcore.Core {
	return zapcore.NewCore(cc.enc(cc.encoderConfig(componentCoreEncoderCfg)), cc.ws, cc.lvlEnabler)
}

func newConsoleCore(
	lvlEnabler zapcore.LevelEnabler,
	encoder logEncoderType,
	writer logOutWriterType,
	lvlEnc zapcore.LevelEncoder,
	tsEnc zapcore.TimeEncoder,
) *consoleCore {
	if writer >= _writerMax {
		return nil
	}
	writerLock.RLock()
	ws, ok := writerMap[writer]
	writerLock.RUnlock()
	if !ok || ws == nil {
		return nil
	}
	cc := &consoleCore{
		lvlEnabler: lvlEnabler,
		lvlEnc:     lvlEnc,
		tsEnc:      tsEnc,
		ws:         ws,
		enc:        getEncoderByType(encoder),
	}
	cc.Core = zapcore.NewCore(cc.enc(cc.encoderConfig(consoleCoreEncoderCfg)), cc.ws, cc.lvlEnabler)
	return cc
}

var consoleCoreEncoderCfg = zapcore.EncoderConfig{
	MessageKey:    "msg",
	LevelKey:      "lvl",
	TimeKey:       "ts",
	CallerKey:     "callAt",
	EncodeCaller:  zapcore.ShortCallerEncoder,
	FunctionKey:   "fn",
	NameKey:       "component",
	EncodeName:    zapcore.FullNameEncoder,
	StacktraceKey: coreKeyIgnored,
}

var componentCoreEncoderCfg = zapcore.EncoderConfig{
	MessageKey:    "msg",
	LevelKey:      "lvl",
	TimeKey:       "ts",
	CallerKey:     coreKeyIgnored,
	EncodeCaller:  zapcore.ShortCallerEncoder,
	FunctionKey:   coreKeyIgnored,
	NameKey:       "component",
	EncodeName:    zapcore.FullNameEncoder,
	StacktraceKey: coreKeyIgnored,
}
