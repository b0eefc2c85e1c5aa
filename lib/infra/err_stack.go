package infra

import (
	"errors"
	"fmt"
	"io"
	"path"
	"runtime"
	"strconv"
	"strings"

	"go.uber.org/zap/zapcore"
)

// References:
// https://github.com/pkg/errors/blob/master/stack.go

type Frame uintptr

func (frame Frame) pc() uintptr {
	return uintptr(frame) - 1
}

func (frame Frame) fileLine() (string, int) {
	pc := frame.pc()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "unknownFile", 0
	}
	return fn.FileLine(pc)
}

func (frame Frame) name() string {
	fn := runtime.FuncForPC(frame.pc())
	if fn == nil {
		return "unknownFunc"
	}
	return fn.Name()
}

// Format characters:
// %s - source file
// %d - source line
// %n - function name
// %v - equivalent to %s:%d
// %+s - function name and full path separated by \n\t
// %+v - equivalent to %+s:%d
func (frame Frame) Format(s fmt.State, verb rune) {
	file, line := frame.fileLine()
	switch verb {
	case 's':
		if s.Flag('+') {
			_, _ = io.WriteString(s, frame.name())
			_, _ = io.WriteString(s, "\n\t")
			_, _ = io.WriteString(s, file)
		} else {
			_, _ = io.WriteString(s, path.Base(file))
		}
	case 'd':
		_, _ = io.WriteString(s, strconv.Itoa(line))
	case 'n':
		_, _ = io.WriteString(s, funcName(frame.name()))
	case 'v':
		frame.Format(s, 's')
		_, _ = io.WriteString(s, ":")
		frame.Format(s, 'd')
	}
}

func (frame Frame) MarshalText() ([]byte, error) {
	name := frame.name()
	if name == "unknownFunc" {
		return []byte("unknownFrame"), nil
	}
	file, line := frame.fileLine()
	builder := strings.Builder{}
	_, _ = builder.WriteString(name)
	_, _ = builder.WriteString(" ")
	_, _ = builder.WriteString(file)
	_, _ = builder.WriteString(":")
	_, _ = builder.WriteString(strconv.Itoa(line))
	return []byte(builder.String()), nil
}

func funcName(name string) string {
	i := strings.LastIndex(name, "/")
	name = name[i+1:]
	i = strings.Index(name, ".")
	return name[i+1:]
}

type frames []Frame

func (fs frames) MarshalLogArray(enc zapcore.ArrayEncoder) error {
	for _, f := range fs {
		text, _ := f.MarshalText()
		enc.AppendByteString(text)
	}
	return nil
}

// ErrorStack is an error recording the frames where it was created or
// wrapped. It is inlined into zap log entries by XLogger.ErrorStack.
type ErrorStack interface {
	error
	zapcore.ObjectMarshaler
	Unwrap() error
	Frames() []Frame
}

var _ ErrorStack = (*errorStack)(nil)

type errorStack struct {
	msg    string
	cause  error
	frames frames
}

func (es *errorStack) Error() string {
	if es.cause == nil {
		return es.msg
	}
	if len(es.msg) == 0 {
		return es.cause.Error()
	}
	return es.msg + ": " + es.cause.Error()
}

func (es *errorStack) Unwrap() error {
	return es.cause
}

func (es *errorStack) Frames() []Frame {
	return es.frames
}

func (es *errorStack) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("error", es.Error())
	return enc.AddArray("errorStack", es.frames)
}

const maxStackDepth = 16

func callers(skip int) frames {
	var pcs [maxStackDepth]uintptr
	n := runtime.Callers(skip, pcs[:])
	fs := make(frames, 0, n)
	for i := 0; i < n; i++ {
		fs = append(fs, Frame(pcs[i]))
	}
	return fs
}

// NewErrorStack records the frames starting at its caller.
//
//go:noinline
func NewErrorStack(msg string) error {
	return &errorStack{
		msg:    msg,
		frames: callers(3),
	}
}

// WrapErrorStack keeps err as the cause. A nil err stays nil.
//
//go:noinline
func WrapErrorStack(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &errorStack{
		msg:    msg,
		cause:  err,
		frames: callers(3),
	}
}

// AsErrorStack finds the outermost ErrorStack in err's chain.
func AsErrorStack(err error) (ErrorStack, bool) {
	var es ErrorStack
	if errors.As(err, &es) {
		return es, true
	}
	return nil, false
}
