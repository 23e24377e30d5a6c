// Package sysstats snapshots this process's resource usage for the
// /health and /status HTTP endpoints and the health-check/status CLI
// commands. Grounded on the teacher's pkg/executor/core.go
// detectTotalMemory helper, generalized from "total system memory for
// executor capacity planning" to a small read-only snapshot: this
// service schedules its own work rather than bidding for capacity, so
// there's nothing here to plan around beyond reporting it.
package sysstats

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Snapshot is a point-in-time resource reading.
type Snapshot struct {
	GoroutineCount int     `json:"goroutineCount"`
	HeapAllocMB    uint64  `json:"heapAllocMb"`
	TotalMemMB     uint64  `json:"totalMemMb"`
	UsedMemPercent float64 `json:"usedMemPercent"`
	CPUPercent     float64 `json:"cpuPercent"`
	Uptime         string  `json:"uptime"`
}

var startedAt = time.Now()

// Read takes a snapshot. Memory/CPU detection failures degrade to zero
// values rather than erroring, since a stats endpoint should never be the
// reason /health fails.
func Read() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	snap := Snapshot{
		GoroutineCount: runtime.NumGoroutine(),
		HeapAllocMB:    m.HeapAlloc / 1024 / 1024,
		Uptime:         time.Since(startedAt).Round(time.Second).String(),
	}

	if v, err := mem.VirtualMemory(); err == nil {
		snap.TotalMemMB = v.Total / 1024 / 1024
		snap.UsedMemPercent = v.UsedPercent
	}

	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		snap.CPUPercent = percents[0]
	}

	return snap
}
