package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/leakaudit/internal/utils"
)

const (
	testAuditLogMessageConstant       = "audit logger probe"
	testFilteredLogMessageConstant    = "filtered debug detail"
	testUnknownLogLevelConstant       = "chatty"
	testUnknownLogFormatConstant      = "plain"
	unsupportedLevelFragmentConstant  = "unsupported log level"
	unsupportedFormatFragmentConstant = "unsupported log format"
)

// captureStderr redirects os.Stderr for the duration of the callback and
// returns whatever the callback wrote there.
func captureStderr(testInstance *testing.T, callback func()) []byte {
	testInstance.Helper()

	pipeReader, pipeWriter, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStderr := os.Stderr
	os.Stderr = pipeWriter
	callback()
	os.Stderr = originalStderr

	require.NoError(testInstance, pipeWriter.Close())
	capturedOutput, readError := io.ReadAll(pipeReader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, pipeReader.Close())

	return capturedOutput
}

func flushLogger(testInstance *testing.T, logger interface{ Sync() error }) {
	testInstance.Helper()
	if syncError := logger.Sync(); syncError != nil {
		require.True(testInstance, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL))
	}
}

func TestLoggerFactoryStructuredOutputIsJSON(testInstance *testing.T) {
	loggerFactory := utils.NewLoggerFactory()

	capturedOutput := captureStderr(testInstance, func() {
		logger, creationError := loggerFactory.CreateLogger(utils.LogLevelInfo, utils.LogFormatStructured)
		require.NoError(testInstance, creationError)
		logger.Info(testAuditLogMessageConstant)
		flushLogger(testInstance, logger)
	})

	trimmedOutput := bytes.TrimSpace(capturedOutput)
	require.Contains(testInstance, string(trimmedOutput), testAuditLogMessageConstant)
	require.True(testInstance, json.Valid(trimmedOutput))
}

func TestLoggerFactoryConsoleOutputIsNotJSON(testInstance *testing.T) {
	loggerFactory := utils.NewLoggerFactory()

	capturedOutput := captureStderr(testInstance, func() {
		logger, creationError := loggerFactory.CreateLogger(utils.LogLevelInfo, utils.LogFormatConsole)
		require.NoError(testInstance, creationError)
		logger.Info(testAuditLogMessageConstant)
		flushLogger(testInstance, logger)
	})

	trimmedOutput := bytes.TrimSpace(capturedOutput)
	require.Contains(testInstance, string(trimmedOutput), testAuditLogMessageConstant)
	require.False(testInstance, json.Valid(trimmedOutput))
}

func TestLoggerFactoryLevelFiltersVerboseEntries(testInstance *testing.T) {
	loggerFactory := utils.NewLoggerFactory()

	capturedOutput := captureStderr(testInstance, func() {
		logger, creationError := loggerFactory.CreateLogger(utils.LogLevelError, utils.LogFormatStructured)
		require.NoError(testInstance, creationError)
		logger.Debug(testFilteredLogMessageConstant)
		logger.Info(testFilteredLogMessageConstant)
		flushLogger(testInstance, logger)
	})

	require.NotContains(testInstance, string(capturedOutput), testFilteredLogMessageConstant)
}

func TestLoggerFactoryRejectsUnknownSettings(testInstance *testing.T) {
	testCases := []struct {
		name               string
		requestedLogLevel  utils.LogLevel
		requestedLogFormat utils.LogFormat
		expectedFragment   string
	}{
		{
			name:               "unknown_level",
			requestedLogLevel:  utils.LogLevel(testUnknownLogLevelConstant),
			requestedLogFormat: utils.LogFormatConsole,
			expectedFragment:   unsupportedLevelFragmentConstant,
		},
		{
			name:               "unknown_format",
			requestedLogLevel:  utils.LogLevelWarn,
			requestedLogFormat: utils.LogFormat(testUnknownLogFormatConstant),
			expectedFragment:   unsupportedFormatFragmentConstant,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			loggerFactory := utils.NewLoggerFactory()

			logger, creationError := loggerFactory.CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)

			require.Error(testInstance, creationError)
			require.Nil(testInstance, logger)
			require.Contains(testInstance, creationError.Error(), testCase.expectedFragment)
		})
	}
}
