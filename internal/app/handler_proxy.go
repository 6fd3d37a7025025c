package app

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/thushan/relay/internal/app/middleware"
	"github.com/thushan/relay/internal/core/constants"
	"github.com/thushan/relay/internal/core/domain"
)

var errUpstreamRead = errors.New("upstream read failed")

// proxyHandler forwards to the route's fixed upstream and streams the answer
// back. Any failure before the first byte becomes the 500 error envelope.
func (a *Application) proxyHandler(route domain.Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rlog := middleware.GetLogger(r.Context(), a.logger)

		resp, err := a.forwarder.Forward(r.Context(), route.Target)
		if err != nil {
			a.stats.RecordForward(route.Path, false, http.StatusInternalServerError, time.Since(start), 0)
			WriteErrorResponse(w, err)
			return
		}
		defer resp.Close()

		header := w.Header()
		for name, values := range resp.Header {
			if name == constants.HeaderRequestID {
				continue
			}
			header[name] = values
		}
		w.WriteHeader(resp.StatusCode)

		// flushing now commits the headers without a Content-Length
		rc := http.NewResponseController(w)
		_ = rc.Flush()

		written, err := a.streamBody(w, rc, resp.Body)
		a.stats.RecordForward(route.Path, err == nil, resp.StatusCode, time.Since(start), written)

		switch {
		case err == nil:
			rlog.InfoWithRoute("Proxied", route.Path,
				"status", resp.StatusCode,
				"bytes", written,
				"latency_ms", time.Since(start).Milliseconds())
		case errors.Is(err, errUpstreamRead):
			rlog.WarnWithUpstream("Upstream stream interrupted", route.Target,
				"route", route.Path,
				"bytes", written,
				"error", err)
			// headers are gone, the only signal left is a broken response
			panic(http.ErrAbortHandler)
		default:
			rlog.Debug("Client went away mid-stream", "route", route.Path, "bytes", written, "error", err)
		}
	}
}

// streamBody copies the upstream body through a pooled buffer, flushing each
// chunk so nothing waits on our side.
func (a *Application) streamBody(w io.Writer, rc *http.ResponseController, body io.Reader) (int64, error) {
	buf := a.bufferPool.Get()
	defer a.bufferPool.Put(buf)

	var written int64
	for {
		n, readErr := body.Read(*buf)
		if n > 0 {
			wn, writeErr := w.Write((*buf)[:n])
			written += int64(wn)
			if writeErr != nil {
				return written, writeErr
			}
			_ = rc.Flush()
		}
		if readErr == io.EOF {
			return written, nil
		}
		if readErr != nil {
			return written, errors.Join(errUpstreamRead, readErr)
		}
	}
}
