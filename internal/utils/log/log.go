package log

import (
	"go.uber.org/zap"
)

var logger = zap.Must(zap.NewDevelopment())

// Replace swaps the package logger (tests, or production config).
func Replace(l *zap.Logger) {
	if l != nil {
		logger = l
	}
}

func Debug(msg string, fields ...zap.Field) {
	logger.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger.Info(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger.Error(msg, fields...)
}

func Fatal(msg string, fields ...zap.Field) {
	logger.Fatal(msg, fields...)
}
