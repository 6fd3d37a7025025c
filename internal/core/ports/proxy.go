package ports

import (
	"context"
	"io"
	"net/http"
)

// Forwarder performs one time-bounded, cancellable fetch of an upstream URL
type Forwarder interface {
	Forward(ctx context.Context, targetURL string) (*ProxyResponse, error)
}

// ProxyResponse is the sanitised upstream response. Body is the live upstream
// stream; callers must Close the response once it has been written out, which
// also releases the operation's cancellation token.
type ProxyResponse struct {
	Header     http.Header
	Body       io.ReadCloser
	release    func()
	Status     string
	StatusCode int
}

func NewProxyResponse(statusCode int, status string, header http.Header, body io.ReadCloser, release func()) *ProxyResponse {
	return &ProxyResponse{
		StatusCode: statusCode,
		Status:     status,
		Header:     header,
		Body:       body,
		release:    release,
	}
}

func (r *ProxyResponse) Close() error {
	var err error
	if r.Body != nil {
		err = r.Body.Close()
	}
	if r.release != nil {
		r.release()
	}
	return err
}
