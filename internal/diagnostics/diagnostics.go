// Package diagnostics gathers the host facts that matter for running local
// language models: free memory, CPU, disk headroom and GPUs. The doctor
// command renders its output.
package diagnostics

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/jaypipes/ghw"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// MinModelMemoryMB is the available-memory floor below which small local
// models start swapping and generation slows to a crawl.
const MinModelMemoryMB = 4096

// MinDiskFreeGB is the free-disk floor for pulling new model weights.
const MinDiskFreeGB = 10

// GPUInfo describes one graphics card, best-effort.
type GPUInfo struct {
	Name string `json:"name"`
}

// Snapshot is one reading of the host.
type Snapshot struct {
	CPUModel   string  `json:"cpu_model"`
	CPUCores   int     `json:"cpu_cores"`
	CPUThreads int     `json:"cpu_threads"`

	MemTotalMB     float64 `json:"mem_total_mb"`
	MemAvailableMB float64 `json:"mem_available_mb"`
	MemPercent     float64 `json:"mem_percent"`

	DiskFreeGB  float64 `json:"disk_free_gb"`
	DiskPercent float64 `json:"disk_percent"`

	LoadAvg1 float64 `json:"load_avg_1"`

	GPUs []GPUInfo `json:"gpus,omitempty"`
}

// Collect takes a snapshot. Every probe is best-effort: a reading that
// fails leaves its fields zero rather than failing the whole snapshot.
func Collect() Snapshot {
	var s Snapshot

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		s.CPUModel = strings.TrimSpace(infos[0].ModelName)
	}
	if cores, err := cpu.Counts(false); err == nil {
		s.CPUCores = cores
	}
	if threads, err := cpu.Counts(true); err == nil {
		s.CPUThreads = threads
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		s.MemTotalMB = float64(vm.Total) / 1024 / 1024
		s.MemAvailableMB = float64(vm.Available) / 1024 / 1024
		s.MemPercent = vm.UsedPercent
	}

	if usage, err := disk.Usage(rootDiskPath()); err == nil {
		s.DiskFreeGB = float64(usage.Free) / 1024 / 1024 / 1024
		s.DiskPercent = usage.UsedPercent
	}

	if avg, err := load.Avg(); err == nil {
		s.LoadAvg1 = avg.Load1
	}

	s.GPUs = queryGPUs()
	return s
}

func rootDiskPath() string {
	if runtime.GOOS == "windows" {
		return "C:"
	}
	return "/"
}

// queryGPUs lists graphics cards via ghw. No VRAM or utilization numbers:
// ghw only enumerates hardware, which is enough to tell CPU-only hosts from
// accelerated ones.
func queryGPUs() []GPUInfo {
	info, err := ghw.GPU()
	if err != nil || info == nil || len(info.GraphicsCards) == 0 {
		return nil
	}

	gpus := make([]GPUInfo, 0, len(info.GraphicsCards))
	for _, card := range info.GraphicsCards {
		name := ""
		if card.DeviceInfo != nil {
			switch {
			case card.DeviceInfo.Vendor != nil && card.DeviceInfo.Product != nil:
				name = strings.TrimSpace(card.DeviceInfo.Vendor.Name + " " + card.DeviceInfo.Product.Name)
			case card.DeviceInfo.Product != nil:
				name = strings.TrimSpace(card.DeviceInfo.Product.Name)
			case card.DeviceInfo.Vendor != nil:
				name = strings.TrimSpace(card.DeviceInfo.Vendor.Name)
			}
		}
		if name == "" {
			name = fmt.Sprintf("GPU %d", card.Index)
		}
		gpus = append(gpus, GPUInfo{Name: name})
	}
	return gpus
}
