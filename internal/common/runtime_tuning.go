package common

import (
	"os"
	"runtime"
	"runtime/debug"

	"github.com/rs/zerolog/log"
)

const (
	// Small host: 2 vCPU, around 4GB RAM.
	smallHostGOGC     = 400
	smallHostMemLimit = 2 * 1024 * 1024 * 1024

	// Larger hosts.
	defaultGOGC     = 600
	defaultMemLimit = 6 * 1024 * 1024 * 1024
)

// InitRuntime applies GC and scheduler settings sized to the host. The pool
// registry and per-request payloads churn small allocations, so a high GOGC
// with GOMEMLIMIT as the backstop beats the default collector cadence.
// GOGC, GOMAXPROCS and GOMEMLIMIT environment variables win when set.
func InitRuntime() {
	gogc, memLimit := defaultGOGC, int64(defaultMemLimit)
	if runtime.NumCPU() <= 2 {
		gogc, memLimit = smallHostGOGC, smallHostMemLimit
	}

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(gogc)
	}
	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(memLimit)
	}
	if os.Getenv("GOMAXPROCS") == "" {
		procs := runtime.NumCPU()
		if procs > 4 {
			procs = procs / 2
		}
		runtime.GOMAXPROCS(procs)
	}

	log.Info().
		Int("numCpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Int("gogc", gogc).
		Int64("memLimit", memLimit).
		Str("goVersion", runtime.Version()).
		Msg("[runtime] runtime configured")
}
