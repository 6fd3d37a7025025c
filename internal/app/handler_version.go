package app

import (
	"net/http"
	"runtime"

	"github.com/thushan/relay/internal/version"
)

type VersionResponse struct {
	version.Info
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

func (a *Application) versionHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{
		Info:      version.GetInfo(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	})
}
