package xlog

import (
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

var _ fxevent.Logger = (*FxXLogger)(nil)

// FxXLogger prints the fx container lifecycle. Wiring events are DEBUG,
// hook executions on stop and signals are INFO, failures are ERROR.
type FxXLogger struct {
	logger XLogger
}

func (l *FxXLogger) hook(name string, err error, fields ...zap.Field) {
	if err != nil {
		l.logger.Error(err, name+" failed", fields...)
		return
	}
	l.logger.Debug(name, fields...)
}

func withModule(module string, fields ...zap.Field) []zap.Field {
	if module == "" {
		return fields
	}
	return append(fields, zap.String("module", module))
}

func (l *FxXLogger) LogEvent(event fxevent.Event) {
	if l == nil || l.logger == nil {
		return
	}

	switch e := event.(type) {
	case *fxevent.OnStartExecuting:
		l.logger.Debug("HOOK OnStart",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
		)
	case *fxevent.OnStartExecuted:
		l.hook("HOOK OnStart", e.Err,
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
			zap.Duration("in", e.Runtime),
		)
	case *fxevent.OnStopExecuting:
		l.logger.Info("HOOK OnStop",
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
		)
	case *fxevent.OnStopExecuted:
		l.hook("HOOK OnStop", e.Err,
			zap.String("function", e.FunctionName),
			zap.String("caller", e.CallerName),
			zap.Duration("in", e.Runtime),
		)
	case *fxevent.Supplied:
		if e.Err != nil {
			l.logger.Error(e.Err, "SUPPLY failed",
				zap.String("type", e.TypeName),
				zap.Strings("stacktrace", e.StackTrace),
			)
			return
		}
		l.logger.Debug("SUPPLY", withModule(e.ModuleName, zap.String("type", e.TypeName))...)
	case *fxevent.Provided:
		for _, rtype := range e.OutputTypeNames {
			l.logger.Debug("PROVIDE", withModule(e.ModuleName,
				zap.Bool("private", e.Private),
				zap.String("rtype", rtype),
				zap.String("constructor", e.ConstructorName),
			)...)
		}
		if e.Err != nil {
			l.logger.Error(e.Err, "PROVIDE failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Replaced:
		for _, rtype := range e.OutputTypeNames {
			l.logger.Debug("REPLACE", withModule(e.ModuleName, zap.String("rtype", rtype))...)
		}
		if e.Err != nil {
			l.logger.Error(e.Err, "REPLACE failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Decorated:
		for _, rtype := range e.OutputTypeNames {
			l.logger.Debug("DECORATE", withModule(e.ModuleName,
				zap.String("rtype", rtype),
				zap.String("decorator", e.DecoratorName),
			)...)
		}
		if e.Err != nil {
			l.logger.Error(e.Err, "DECORATE failed", zap.Strings("stacktrace", e.StackTrace))
		}
	case *fxevent.Invoking:
		l.logger.Debug("INVOKING", withModule(e.ModuleName, zap.String("function", e.FunctionName))...)
	case *fxevent.Invoked:
		if e.Err != nil {
			l.logger.Error(e.Err, "INVOKE failed",
				zap.String("function", e.FunctionName),
				zap.String("trace", e.Trace),
			)
		}
	case *fxevent.Stopping:
		l.logger.Info("STOPPING", zap.String("signal", e.Signal.String()))
	case *fxevent.Stopped:
		if e.Err != nil {
			l.logger.Error(e.Err, "STOP failed")
		}
	case *fxevent.RollingBack:
		l.logger.Error(e.StartErr, "START failed, rolling back")
	case *fxevent.RolledBack:
		if e.Err != nil {
			l.logger.Error(e.Err, "ROLLBACK failed")
		}
	case *fxevent.Started:
		l.hook("RUNNING", e.Err)
	case *fxevent.LoggerInitialized:
		l.hook("LOGGER initialized", e.Err, zap.String("constructor", e.ConstructorName))
	}
}

// NewFxXLogger routes fx container events into the "Fx" component logger.
func NewFxXLogger(logger XLogger) *FxXLogger {
	return &FxXLogger{logger: named(logger, "Fx")}
}
