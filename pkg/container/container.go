package container

import (
	"os"
	"strings"
)

const (
	RuntimeNone       = ""
	RuntimeDocker     = "docker"
	RuntimeContainerd = "containerd"
	RuntimeKubernetes = "kubernetes"
)

// probe paths, swapped out in tests
var (
	dockerEnvFile = "/.dockerenv"
	initCGroup    = "/proc/1/cgroup"
)

// Detect names the container runtime we appear to be running under, or
// RuntimeNone when we look like a plain host process.
func Detect() string {
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return RuntimeKubernetes
	}
	if _, err := os.Stat(dockerEnvFile); err == nil {
		return RuntimeDocker
	}

	data, err := os.ReadFile(initCGroup)
	if err != nil {
		return RuntimeNone
	}
	content := string(data)
	switch {
	case strings.Contains(content, "kubepods"):
		return RuntimeKubernetes
	case strings.Contains(content, "docker"):
		return RuntimeDocker
	case strings.Contains(content, "containerd"):
		return RuntimeContainerd
	}
	return RuntimeNone
}
