package dashboard

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	requestIDHeaderConstant    = "X-Request-ID"
	requestHandledLogMessage   = "request handled"
	logFieldRequestIDConstant  = "request_id"
	logFieldMethodConstant     = "method"
	logFieldStatusCodeConstant = "status"
	logFieldDurationConstant   = "duration"
	maximumRequestIDLength     = 128
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (recorder *statusRecorder) WriteHeader(status int) {
	recorder.status = status
	recorder.ResponseWriter.WriteHeader(status)
}

func (recorder *statusRecorder) Write(payload []byte) (int, error) {
	if recorder.status == 0 {
		recorder.status = http.StatusOK
	}
	return recorder.ResponseWriter.Write(payload)
}

// withRequestLogging tags every request with an ID, echoing a caller-supplied one, and logs
// the completed request.
func (server *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(responseWriter http.ResponseWriter, request *http.Request) {
		requestID := strings.TrimSpace(request.Header.Get(requestIDHeaderConstant))
		if len(requestID) == 0 || len(requestID) > maximumRequestIDLength {
			requestID = server.requestIDGenerator()
		}
		responseWriter.Header().Set(requestIDHeaderConstant, requestID)

		recorder := &statusRecorder{ResponseWriter: responseWriter}
		startedAt := server.clock.Now()
		next.ServeHTTP(recorder, request)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		server.logger.Info(requestHandledLogMessage,
			zap.String(logFieldRequestIDConstant, requestID),
			zap.String(logFieldMethodConstant, request.Method),
			zap.String(logFieldRequestPathConstant, request.URL.Path),
			zap.Int(logFieldStatusCodeConstant, status),
			zap.Duration(logFieldDurationConstant, server.clock.Now().Sub(startedAt)))
	})
}
