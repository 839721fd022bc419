package diagnostics

import "fmt"

// CheckStatus grades one readiness check.
type CheckStatus string

const (
	StatusOK   CheckStatus = "ok"
	StatusWarn CheckStatus = "warn"
	StatusInfo CheckStatus = "info"
)

// Check is one doctor finding.
type Check struct {
	Name   string      `json:"name"`
	Status CheckStatus `json:"status"`
	Detail string      `json:"detail"`
}

// Checks grades the snapshot for local model readiness.
func (s Snapshot) Checks() []Check {
	checks := []Check{}

	memCheck := Check{
		Name:   "memory",
		Status: StatusOK,
		Detail: fmt.Sprintf("%.0f MB available of %.0f MB", s.MemAvailableMB, s.MemTotalMB),
	}
	if s.MemAvailableMB > 0 && s.MemAvailableMB < MinModelMemoryMB {
		memCheck.Status = StatusWarn
		memCheck.Detail = fmt.Sprintf("%.0f MB available; local models want at least %d MB", s.MemAvailableMB, MinModelMemoryMB)
	}
	checks = append(checks, memCheck)

	diskCheck := Check{
		Name:   "disk",
		Status: StatusOK,
		Detail: fmt.Sprintf("%.1f GB free", s.DiskFreeGB),
	}
	if s.DiskFreeGB > 0 && s.DiskFreeGB < MinDiskFreeGB {
		diskCheck.Status = StatusWarn
		diskCheck.Detail = fmt.Sprintf("%.1f GB free; pulling model weights wants at least %d GB", s.DiskFreeGB, MinDiskFreeGB)
	}
	checks = append(checks, diskCheck)

	gpuCheck := Check{Name: "gpu", Status: StatusInfo}
	if len(s.GPUs) == 0 {
		gpuCheck.Detail = "no GPU detected; generation will run on CPU"
	} else {
		gpuCheck.Detail = s.GPUs[0].Name
		if len(s.GPUs) > 1 {
			gpuCheck.Detail = fmt.Sprintf("%s (+%d more)", s.GPUs[0].Name, len(s.GPUs)-1)
		}
	}
	checks = append(checks, gpuCheck)

	return checks
}
