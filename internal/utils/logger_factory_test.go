package utils_test

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/temirov/projectdesk/internal/utils"
)

const (
	testProgressMessageConstant = "Pushing main to origin"
	testInvalidValueConstant    = "verbose"
)

func TestLoggerFactoryCreateLogger(testInstance *testing.T) {
	testCases := []struct {
		name            string
		level           utils.LogLevel
		format          utils.LogFormat
		expectError     bool
		enabledLevel    zapcore.Level
		suppressedLevel zapcore.Level
	}{
		{name: "debug_structured", level: utils.LogLevelDebug, format: utils.LogFormatStructured, enabledLevel: zapcore.DebugLevel, suppressedLevel: zapcore.DebugLevel - 1},
		{name: "info_console", level: utils.LogLevelInfo, format: utils.LogFormatConsole, enabledLevel: zapcore.InfoLevel, suppressedLevel: zapcore.DebugLevel},
		{name: "warn_structured", level: utils.LogLevelWarn, format: utils.LogFormatStructured, enabledLevel: zapcore.WarnLevel, suppressedLevel: zapcore.InfoLevel},
		{name: "error_console", level: utils.LogLevelError, format: utils.LogFormatConsole, enabledLevel: zapcore.ErrorLevel, suppressedLevel: zapcore.WarnLevel},
		{name: "unknown_level", level: utils.LogLevel(testInvalidValueConstant), format: utils.LogFormatStructured, expectError: true},
		{name: "unknown_format", level: utils.LogLevelInfo, format: utils.LogFormat(testInvalidValueConstant), expectError: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			logger, creationError := utils.NewLoggerFactory().CreateLogger(testCase.level, testCase.format)
			if testCase.expectError {
				require.Error(testInstance, creationError)
				require.Contains(testInstance, creationError.Error(), testInvalidValueConstant)
				require.Nil(testInstance, logger)
				return
			}

			require.NoError(testInstance, creationError)
			require.True(testInstance, logger.Core().Enabled(testCase.enabledLevel))
			require.False(testInstance, logger.Core().Enabled(testCase.suppressedLevel))
		})
	}
}

func TestLoggerFactoryCreateLoggerOutputs(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		requestedLogFormat   utils.LogFormat
		expectConsoleMessage bool
	}{
		{name: "console_format_writes_progress", requestedLogFormat: utils.LogFormatConsole, expectConsoleMessage: true},
		{name: "structured_format_discards_progress", requestedLogFormat: utils.LogFormatStructured, expectConsoleMessage: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			consoleBuffer := &bytes.Buffer{}
			loggerFactory := utils.NewLoggerFactoryWithConsoleWriter(consoleBuffer)

			outputs, creationError := loggerFactory.CreateLoggerOutputs(utils.LogLevelInfo, testCase.requestedLogFormat)
			require.NoError(testInstance, creationError)
			require.NotNil(testInstance, outputs.DiagnosticLogger)
			require.NotNil(testInstance, outputs.ConsoleLogger)

			outputs.ConsoleLogger.Info(testProgressMessageConstant)
			if testCase.expectConsoleMessage {
				require.Equal(testInstance, "INFO\t"+testProgressMessageConstant+"\n", consoleBuffer.String())
				return
			}
			require.Empty(testInstance, consoleBuffer.String())
		})
	}
}

func TestConsoleLoggerFlushesBufferedWriter(testInstance *testing.T) {
	destination := &bytes.Buffer{}
	bufferedWriter := bufio.NewWriterSize(destination, 4096)

	outputs, creationError := utils.NewLoggerFactoryWithConsoleWriter(bufferedWriter).CreateLoggerOutputs(utils.LogLevelInfo, utils.LogFormatConsole)
	require.NoError(testInstance, creationError)

	outputs.ConsoleLogger.Info(testProgressMessageConstant)
	require.Contains(testInstance, destination.String(), testProgressMessageConstant)
	require.Zero(testInstance, bufferedWriter.Buffered())
}
