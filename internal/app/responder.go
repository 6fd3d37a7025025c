package app

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/thushan/relay/internal/core/constants"
	"github.com/thushan/relay/internal/core/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrorMessage picks the text for an error envelope. Anything that is not an
// error, or an error with nothing to say, becomes "Unknown error".
func ErrorMessage(v any) string {
	err, ok := v.(error)
	if !ok || err == nil {
		return domain.UnknownErrorMessage
	}
	if msg := errorText(err); msg != "" {
		return msg
	}
	return domain.UnknownErrorMessage
}

// errorText guards against typed nil errors whose Error method dereferences
func errorText(err error) (msg string) {
	defer func() {
		if recover() != nil {
			msg = ""
		}
	}()
	return err.Error()
}

// WriteErrorResponse writes {"err": "..."} with a 500
func WriteErrorResponse(w http.ResponseWriter, v any) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(domain.ErrorEnvelope{Err: ErrorMessage(v)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
