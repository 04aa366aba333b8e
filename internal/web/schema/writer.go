package schema

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Writer helps writing unified responses
type Writer struct {
	InternalErrorHook func(err error)
}

// NewWriter creates a writer logging internal errors on behalf of the given component
func NewWriter(component string) *Writer {
	return &Writer{
		InternalErrorHook: func(err error) {
			log.Error().Err(err).Msgf("the %s experienced an unexpected error", component)
		},
	}
}

// WriteJSONCode writes the JSON representation of value to the given response writer using the given HTTP status code
func (writer *Writer) WriteJSONCode(rw http.ResponseWriter, code int, value any) {
	val, err := json.Marshal(value)
	if err != nil {
		writer.WriteInternalError(rw, err)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	_, _ = rw.Write(val)
}

// WriteErrors sends an error response
func (writer *Writer) WriteErrors(rw http.ResponseWriter, code int, errs ...*Error) {
	response := &ErrorResponse{
		Status: code,
		Errors: make([]*Error, 0, len(errs)),
	}
	for _, err := range errs {
		cpy := *err
		if cpy.Details == nil {
			cpy.Details = map[string]any{}
		}
		response.Errors = append(response.Errors, &cpy)
	}
	writer.WriteJSONCode(rw, code, response)
}

// WriteInternalError processes an internal error and writes it to the response
func (writer *Writer) WriteInternalError(rw http.ResponseWriter, err error) {
	if writer.InternalErrorHook != nil {
		writer.InternalErrorHook(err)
	}
	response, _ := json.Marshal(&ErrorResponse{
		Status: http.StatusInternalServerError,
		Errors: []*Error{{Type: ErrInternal.Type, Message: ErrInternal.Message, Details: map[string]any{}}},
	})
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(http.StatusInternalServerError)
	_, _ = rw.Write(response)
}
