// Package performance samples the resource footprint of the running process,
// so a simulation report can show what a pool of a given size costs.
package performance

import (
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ajitpratap0/spawnpool/pkg/errors"
)

// ResourceMonitor monitors the current process from the moment it is created.
type ResourceMonitor struct {
	process      *process.Process
	startCPUTime float64
	startTime    time.Time
	startMem     runtime.MemStats
	mu           sync.RWMutex
}

// NewResourceMonitor creates a resource monitor for this process.
func NewResourceMonitor() (*ResourceMonitor, error) {
	proc, err := process.NewProcess(int32(os.Getpid())) //nolint:gosec // pid fits in int32
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeInternal, "failed to open process handle")
	}

	rm := &ResourceMonitor{
		process:   proc,
		startTime: time.Now(),
	}
	if cpuTime, err := proc.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	runtime.ReadMemStats(&rm.startMem)
	return rm, nil
}

// Reset restarts the measurement window.
func (rm *ResourceMonitor) Reset() {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.startTime = time.Now()
	if cpuTime, err := rm.process.Times(); err == nil {
		rm.startCPUTime = cpuTime.Total()
	}
	runtime.ReadMemStats(&rm.startMem)
}

// Usage returns resource usage since the monitor was created or last reset.
// Fields the platform cannot report are left zero.
func (rm *ResourceMonitor) Usage() *ResourceUsage {
	rm.mu.RLock()
	defer rm.mu.RUnlock()

	usage := &ResourceUsage{
		Elapsed: time.Since(rm.startTime),
	}

	if cpuTime, err := rm.process.Times(); err == nil {
		if elapsed := usage.Elapsed.Seconds(); elapsed > 0 {
			usage.CPUPercent = ((cpuTime.Total() - rm.startCPUTime) / elapsed) * 100
		}
	}

	if memInfo, err := rm.process.MemoryInfo(); err == nil {
		usage.MemoryRSS = memInfo.RSS
		usage.MemoryVMS = memInfo.VMS
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		usage.SystemMemoryPercent = vmStat.UsedPercent
		usage.SystemMemoryAvailable = vmStat.Available
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	usage.HeapAlloc = ms.HeapAlloc
	usage.TotalAlloc = ms.TotalAlloc - rm.startMem.TotalAlloc
	usage.Mallocs = ms.Mallocs - rm.startMem.Mallocs
	usage.GCCount = ms.NumGC - rm.startMem.NumGC

	usage.GoroutineCount = runtime.NumGoroutine()
	usage.ThreadCount, _ = rm.process.NumThreads()

	return usage
}

// ResourceUsage contains resource usage information
type ResourceUsage struct {
	Elapsed               time.Duration `json:"elapsed"`
	CPUPercent            float64       `json:"cpu_percent"`
	MemoryRSS             uint64        `json:"memory_rss"`
	MemoryVMS             uint64        `json:"memory_vms"`
	SystemMemoryPercent   float64       `json:"system_memory_percent"`
	SystemMemoryAvailable uint64        `json:"system_memory_available"`
	HeapAlloc             uint64        `json:"heap_alloc"`
	TotalAlloc            uint64        `json:"total_alloc"`
	Mallocs               uint64        `json:"mallocs"`
	GCCount               uint32        `json:"gc_count"`
	GoroutineCount        int           `json:"goroutines"`
	ThreadCount           int32         `json:"threads"`
}
