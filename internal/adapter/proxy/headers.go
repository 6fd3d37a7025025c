package proxy

import (
	"compress/gzip"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/thushan/relay/internal/core/constants"
)

// hop-by-hop headers (RFC 7230 6.1) are connection specific
var hopByHopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"TE",
	"Trailer",
	"Trailers",
	"Transfer-Encoding",
	"Upgrade",
}

// strippedHeaders no longer describe the bytes the caller receives once the
// body has been decoded and re-framed by our server
var strippedHeaders = []string{
	constants.HeaderContentEncoding,
	constants.HeaderContentLength,
}

func isHopByHopHeader(header string) bool {
	return slices.ContainsFunc(hopByHopHeaders, func(h string) bool {
		return strings.EqualFold(h, header)
	})
}

func isStrippedHeader(header string) bool {
	return slices.ContainsFunc(strippedHeaders, func(h string) bool {
		return strings.EqualFold(h, header)
	})
}

// sanitiseHeaders copies the upstream headers minus anything that would
// confuse the caller
func sanitiseHeaders(upstream http.Header) http.Header {
	header := make(http.Header, len(upstream))
	for name, values := range upstream {
		if isHopByHopHeader(name) || isStrippedHeader(name) {
			continue
		}
		header[name] = slices.Clone(values)
	}
	return header
}

// decodeBody unwraps a gzip body the transport left encoded. The transport
// normally does this itself when it negotiated compression.
func decodeBody(resp *http.Response) error {
	if resp.Uncompressed {
		return nil
	}
	if !strings.EqualFold(strings.TrimSpace(resp.Header.Get(constants.HeaderContentEncoding)), "gzip") {
		return nil
	}

	reader, err := gzip.NewReader(resp.Body)
	if err != nil {
		return fmt.Errorf("invalid gzip body: %w", err)
	}
	resp.Body = &gzipBody{Reader: reader, upstream: resp.Body}
	resp.Uncompressed = true
	return nil
}

type gzipBody struct {
	*gzip.Reader
	upstream interface{ Close() error }
}

func (g *gzipBody) Close() error {
	gzErr := g.Reader.Close()
	if err := g.upstream.Close(); err != nil {
		return err
	}
	return gzErr
}
