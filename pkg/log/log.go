// Package log provides structured logging for acqstat on top of zerolog.
//
// Components obtain a named logger via GetLoggerWithName and attach
// structured key/value pairs from the constants below, so that fit,
// transform and evaluation events are queryable by operation, phase and
// variant across the whole pipeline.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"
)

// Structured logging keys shared by all components.
const (
	ComponentKey   = "component"
	ModelNameKey   = "model"
	OperationKey   = "operation"
	PhaseKey       = "phase"
	VariantKey     = "variant"
	SamplesKey     = "samples"
	FeaturesKey    = "features"
	PredsKey       = "predictions"
	IterationsKey  = "iterations"
	DurationMsKey  = "duration_ms"
	RowsInKey      = "rows_in"
	RowsOutKey     = "rows_out"
	RowsDroppedKey = "rows_dropped"
)

// Operation values.
const (
	OperationLoad     = "load"
	OperationClean    = "clean"
	OperationDerive   = "derive"
	OperationFit      = "fit"
	OperationPredict  = "predict"
	OperationSplit    = "split"
	OperationResample = "resample"
	OperationEvaluate = "evaluate"
)

// Phase values.
const (
	PhaseData      = "data"
	PhaseTraining  = "training"
	PhaseInference = "inference"
	PhaseReport    = "report"
)

// Logger is the minimal structured logging interface used by acqstat
// components. Keys and values alternate in the variadic arguments.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	With(keysAndValues ...interface{}) Logger
}

var (
	mu   sync.RWMutex
	root = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// SetOutput redirects all loggers created after the call to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	root = root.Output(w)
}

// SetLevel sets the minimum level for loggers created after the call.
// Unknown level strings fall back to info.
func SetLevel(level string) {
	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}
	mu.Lock()
	defer mu.Unlock()
	root = root.Level(parsed)
}

// GetLogger returns the root logger.
func GetLogger() Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &zeroLogger{l: root}
}

// GetLoggerWithName returns a logger tagged with the given component name.
func GetLoggerWithName(name string) Logger {
	mu.RLock()
	defer mu.RUnlock()
	return &zeroLogger{l: root.With().Str(ComponentKey, name).Logger()}
}

type zeroLogger struct {
	l zerolog.Logger
}

func (z *zeroLogger) Debug(msg string, keysAndValues ...interface{}) {
	emit(z.l.Debug(), msg, keysAndValues)
}

func (z *zeroLogger) Info(msg string, keysAndValues ...interface{}) {
	emit(z.l.Info(), msg, keysAndValues)
}

func (z *zeroLogger) Warn(msg string, keysAndValues ...interface{}) {
	emit(z.l.Warn(), msg, keysAndValues)
}

func (z *zeroLogger) Error(msg string, keysAndValues ...interface{}) {
	emit(z.l.Error(), msg, keysAndValues)
}

func (z *zeroLogger) With(keysAndValues ...interface{}) Logger {
	ctx := z.l.With()
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		ctx = ctx.Interface(key, keysAndValues[i+1])
	}
	return &zeroLogger{l: ctx.Logger()}
}

func emit(e *zerolog.Event, msg string, keysAndValues []interface{}) {
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		e = e.Interface(key, keysAndValues[i+1])
	}
	e.Msg(msg)
}
