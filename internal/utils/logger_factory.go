package utils

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level: %s"
	unsupportedLogFormatTemplateConstant = "unsupported log format: %s"
)

// LogLevel is the configured minimum severity: debug, info, warn or error.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat selects JSON ("structured") or human-readable ("console") diagnostics.
type LogFormat string

const (
	LogFormatStructured LogFormat = "structured"
	LogFormatConsole    LogFormat = "console"
)

func (level LogLevel) zapLevel() (zapcore.Level, error) {
	switch level {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, level)
}

func (format LogFormat) zapEncoding() (string, error) {
	switch format {
	case LogFormatStructured:
		return "json", nil
	case LogFormatConsole:
		return "console", nil
	}
	return "", fmt.Errorf(unsupportedLogFormatTemplateConstant, format)
}

// LoggerOutputs holds the diagnostic logger and the console logger that narrates git and gh
// commands. ConsoleLogger discards everything unless the format is console.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds projectdesk's loggers. Diagnostics go to stderr through zap's production
// configuration; console narration goes to the console writer.
type LoggerFactory struct {
	consoleWriter io.Writer
}

// NewLoggerFactory writes console narration to stderr.
func NewLoggerFactory() *LoggerFactory {
	return NewLoggerFactoryWithConsoleWriter(nil)
}

// NewLoggerFactoryWithConsoleWriter writes console narration to consoleWriter, or stderr when nil.
func NewLoggerFactoryWithConsoleWriter(consoleWriter io.Writer) *LoggerFactory {
	if consoleWriter == nil {
		consoleWriter = os.Stderr
	}
	return &LoggerFactory{consoleWriter: consoleWriter}
}

// CreateLogger builds the diagnostic logger.
func (factory *LoggerFactory) CreateLogger(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (*zap.Logger, error) {
	level, levelError := requestedLogLevel.zapLevel()
	if levelError != nil {
		return nil, levelError
	}
	encoding, formatError := requestedLogFormat.zapEncoding()
	if formatError != nil {
		return nil, formatError
	}

	productionConfiguration := zap.NewProductionConfig()
	productionConfiguration.Level = zap.NewAtomicLevelAt(level)
	productionConfiguration.Encoding = encoding
	return productionConfiguration.Build()
}

// CreateLoggerOutputs builds both loggers. Console narration lines carry the level and message only.
func (factory *LoggerFactory) CreateLoggerOutputs(requestedLogLevel LogLevel, requestedLogFormat LogFormat) (LoggerOutputs, error) {
	diagnosticLogger, creationError := factory.CreateLogger(requestedLogLevel, requestedLogFormat)
	if creationError != nil {
		return LoggerOutputs{}, creationError
	}

	outputs := LoggerOutputs{DiagnosticLogger: diagnosticLogger, ConsoleLogger: zap.NewNop()}
	if requestedLogFormat != LogFormatConsole {
		return outputs, nil
	}

	level, _ := requestedLogLevel.zapLevel()
	narrationEncoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:  "message",
		LevelKey:    "level",
		EncodeLevel: zapcore.CapitalLevelEncoder,
	})
	outputs.ConsoleLogger = zap.New(zapcore.NewCore(narrationEncoder, newConsoleWriteSyncer(factory.consoleWriter), level))
	return outputs, nil
}
