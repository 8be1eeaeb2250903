package dashboard

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/projectdesk/internal/reconcile"
	"github.com/temirov/projectdesk/internal/shared"
	"github.com/temirov/projectdesk/internal/workspace"
)

const (
	maximumRequestBodyBytes     = 1 << 20
	contentTypeHeaderConstant   = "Content-Type"
	cacheControlHeaderConstant  = "Cache-Control"
	jsonContentTypeConstant     = "application/json; charset=utf-8"
	noStoreConstant             = "no-store"
	emptyJSONObjectConstant     = "{}"
	readBodyErrorTemplate       = "read request body: %v"
	invalidJSONErrorTemplate    = "invalid json: %v"
	encodeResponseFailedMessage = "unable to encode response"
	internalErrorLogMessage     = "request failed"
	logFieldRequestPathConstant = "path"
)

// requestError marks client-side input problems.
type requestError struct {
	message string
}

func (inputError requestError) Error() string {
	return inputError.message
}

type errorResponse struct {
	Error string `json:"error"`
}

func readJSON(request *http.Request, destination any) error {
	if request.Body == nil {
		return json.Unmarshal([]byte(emptyJSONObjectConstant), destination)
	}
	defer request.Body.Close()

	body, readError := io.ReadAll(io.LimitReader(request.Body, maximumRequestBodyBytes))
	if readError != nil {
		return requestError{message: fmt.Sprintf(readBodyErrorTemplate, readError)}
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		body = []byte(emptyJSONObjectConstant)
	}
	if decodeError := json.Unmarshal(body, destination); decodeError != nil {
		return requestError{message: fmt.Sprintf(invalidJSONErrorTemplate, decodeError)}
	}
	return nil
}

func (server *Server) writeJSON(responseWriter http.ResponseWriter, status int, payload any) {
	encoded, encodeError := json.Marshal(payload)
	if encodeError != nil {
		server.logger.Error(encodeResponseFailedMessage, zap.Error(encodeError))
		status = http.StatusInternalServerError
		encoded, _ = json.Marshal(errorResponse{Error: encodeResponseFailedMessage})
	}
	responseWriter.Header().Set(contentTypeHeaderConstant, jsonContentTypeConstant)
	responseWriter.Header().Set(cacheControlHeaderConstant, noStoreConstant)
	responseWriter.WriteHeader(status)
	_, _ = responseWriter.Write(append(encoded, '\n'))
}

func (server *Server) writeError(responseWriter http.ResponseWriter, request *http.Request, failure error) {
	status := statusForError(failure)
	if status == http.StatusInternalServerError {
		server.logger.Error(internalErrorLogMessage,
			zap.String(logFieldRequestPathConstant, request.URL.Path),
			zap.Error(failure))
	}
	server.writeJSON(responseWriter, status, errorResponse{Error: failure.Error()})
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(failure error) int {
	var (
		inputError       requestError
		escapeError      workspace.PathEscapeError
		projectMissing   workspace.ProjectNotFoundError
		fileMissing      workspace.FileNotFoundError
		alreadyInitError reconcile.RepositoryAlreadyInitializedError
		busyError        shared.PathBusyError
	)
	switch {
	case errors.As(failure, &inputError),
		errors.As(failure, &escapeError),
		errors.Is(failure, shared.ErrProjectNameRequired),
		errors.Is(failure, shared.ErrProjectNameInvalid),
		errors.Is(failure, workspace.ErrRelativePathRequired),
		errors.Is(failure, workspace.ErrPathIsDirectory):
		return http.StatusBadRequest
	case errors.As(failure, &projectMissing), errors.As(failure, &fileMissing):
		return http.StatusNotFound
	case errors.As(failure, &alreadyInitError), errors.As(failure, &busyError):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
