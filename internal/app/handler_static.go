package app

import (
	_ "embed"
	"net/http"

	"github.com/thushan/relay/internal/core/constants"
)

//go:embed static/index.html
var indexHTML []byte

func (a *Application) indexHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set(constants.ContentTypeHeader, constants.ContentTypeHTML)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(indexHTML)
}
