package nerdstats

import (
	"runtime"
	"runtime/debug"
	"time"

	"github.com/thushan/relay/pkg/format"
)

/*
	NerdStats takes a snapshot of the Go runtime for the report logged at
	shutdown: memory, GC and goroutine counts plus how long we were up.

	See: https://pkg.go.dev/runtime#MemStats for the underlying fields.
*/

const (
	PressureLow    = "LOW"
	PressureMedium = "MEDIUM"
	PressureHigh   = "HIGH"

	GoroutinesHealthy    = "HEALTHY"
	GoroutinesNormal     = "NORMAL"
	GoroutinesElevated   = "ELEVATED"
	GoroutinesConcerning = "CONCERNING"
)

type NerdStats struct {
	LastGC      time.Time
	BuildInfo   *debug.BuildInfo
	GoVersion   string
	Uptime      time.Duration
	TotalGCTime time.Duration

	HeapAlloc    uint64
	HeapSys      uint64
	HeapInuse    uint64
	HeapReleased uint64
	StackInuse   uint64
	TotalAlloc   uint64
	Mallocs      uint64
	Frees        uint64

	GCCPUFraction float64
	NumGoroutines int
	NumCPU        int
	GOMAXPROCS    int
	NumGC         uint32
}

func Snapshot(startTime time.Time) *NerdStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	stats := &NerdStats{
		HeapAlloc:     m.HeapAlloc,
		HeapSys:       m.HeapSys,
		HeapInuse:     m.HeapInuse,
		HeapReleased:  m.HeapReleased,
		StackInuse:    m.StackInuse,
		TotalAlloc:    m.TotalAlloc,
		Mallocs:       m.Mallocs,
		Frees:         m.Frees,
		NumGC:         m.NumGC,
		GCCPUFraction: m.GCCPUFraction,
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		GoVersion:     runtime.Version(),
		Uptime:        time.Since(startTime),
	}

	if m.LastGC > 0 {
		stats.LastGC = time.Unix(0, int64(m.LastGC))
		stats.TotalGCTime = time.Duration(m.PauseTotalNs)
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		stats.BuildInfo = info
	}

	return stats
}

// MemoryPressure is a rough read of heap occupancy and allocation churn
func (ns *NerdStats) MemoryPressure() string {
	if ns.HeapSys == 0 {
		return PressureLow
	}
	heapUsageRatio := float64(ns.HeapInuse) / float64(ns.HeapSys)
	allocsPerFree := float64(ns.Mallocs) / float64(ns.Frees+1)

	switch {
	case heapUsageRatio > 0.9 && allocsPerFree > 1.5:
		return PressureHigh
	case heapUsageRatio > 0.7 || allocsPerFree > 1.2:
		return PressureMedium
	}
	return PressureLow
}

// GoroutineHealth flags goroutine counts well beyond what a handful of
// routes should ever need
func (ns *NerdStats) GoroutineHealth() string {
	switch {
	case ns.NumGoroutines > 1000:
		return GoroutinesConcerning
	case ns.NumGoroutines > 500:
		return GoroutinesElevated
	case ns.NumGoroutines > 100:
		return GoroutinesNormal
	}
	return GoroutinesHealthy
}

func (ns *NerdStats) AverageGCPause() string {
	if ns.NumGC == 0 {
		return "N/A"
	}
	return format.Duration(ns.TotalGCTime / time.Duration(ns.NumGC))
}

// BuildSettings picks the interesting VCS/toolchain settings from the build info
func (ns *NerdStats) BuildSettings() map[string]string {
	summary := make(map[string]string)
	if ns.BuildInfo == nil {
		return summary
	}

	summary["path"] = ns.BuildInfo.Path
	for _, setting := range ns.BuildInfo.Settings {
		switch setting.Key {
		case "CGO_ENABLED", "GOARCH", "GOOS", "vcs.revision", "vcs.time":
			summary[setting.Key] = setting.Value
		}
	}
	return summary
}

// MemoryFields returns slog-style key/value pairs for the memory report
func (ns *NerdStats) MemoryFields() []any {
	return []any{
		"heap_alloc", format.Bytes(ns.HeapAlloc),
		"heap_sys", format.Bytes(ns.HeapSys),
		"heap_inuse", format.Bytes(ns.HeapInuse),
		"heap_released", format.Bytes(ns.HeapReleased),
		"stack_inuse", format.Bytes(ns.StackInuse),
		"total_alloc", format.Bytes(ns.TotalAlloc),
		"memory_pressure", ns.MemoryPressure(),
	}
}
