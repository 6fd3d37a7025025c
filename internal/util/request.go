package util

import (
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"strings"
)

// GenerateRequestID returns a short, human-friendly id such as "swift_baton_0a3f"
func GenerateRequestID() string {
	runners := []string{
		"swift", "steady", "nimble", "eager", "brisk",
		"quiet", "bold", "lively", "keen", "spry",
	}
	batons := []string{
		"baton", "parcel", "packet", "letter", "signal",
		"relay", "dispatch", "courier", "beacon", "token",
	}

	runner := runners[rand.Intn(len(runners))]
	baton := batons[rand.Intn(len(batons))]
	suffix := fmt.Sprintf("%04x", rand.Intn(65536))

	return fmt.Sprintf("%s_%s_%s", runner, baton, suffix)
}

// GetClientIP works out the caller's IP, only honouring X-Forwarded-For / X-Real-IP
// when the direct peer sits inside one of the trusted CIDRs.
func GetClientIP(r *http.Request, trustProxyHeaders bool, trustedCIDRs []*net.IPNet) string {
	if !trustProxyHeaders {
		return remoteHost(r)
	}

	sourceIP := getSourceIP(r)
	if sourceIP == nil || !isIPInTrustedCIDRs(sourceIP, trustedCIDRs) {
		return remoteHost(r)
	}

	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return strings.TrimSpace(strings.Split(ip, ",")[0])
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return strings.TrimSpace(ip)
	}

	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return ip
	}
	return r.RemoteAddr
}

func getSourceIP(r *http.Request) net.IP {
	return net.ParseIP(remoteHost(r))
}
