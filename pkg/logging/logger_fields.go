package logging

import (
	"time"
)

// Common field constructors
func String(key, value string) Field {
	return Field{Key: key, Value: value}
}

func Int(key string, value int) Field {
	return Field{Key: key, Value: value}
}

func Float64(key string, value float64) Field {
	return Field{Key: key, Value: value}
}

func Bool(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

func Any(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Field helpers for the entities this tool works with
func ModelName(name string) Field {
	return String("model", name)
}

func ComponentName(name string) Field {
	return String("component", name)
}

func VariableName(qualified string) Field {
	return String("variable", qualified)
}

func UnitsName(name string) Field {
	return String("units", name)
}

func Operation(op string) Field {
	return String("operation", op)
}

func Line(n int) Field {
	return Int("line", n)
}

func Warnings(n int) Field {
	return Int("warnings", n)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func Count(n int) Field {
	return Int("count", n)
}

func Path(p string) Field {
	return String("path", p)
}
