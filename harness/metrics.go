package harness

import (
	"os"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"github.com/swdee/go-rkiva/logger"
)

// Metrics is a snapshot of the process and host resource usage
type Metrics struct {
	RSS        uint64
	CPUPercent float64
	MemTotal   uint64
	MemAvail   uint64
}

// CollectMetrics reads the resource usage of the current process
func CollectMetrics() (Metrics, error) {

	var m Metrics

	proc, err := process.NewProcess(int32(os.Getpid()))

	if err != nil {
		return m, err
	}

	info, err := proc.MemoryInfo()

	if err != nil {
		return m, err
	}

	m.RSS = info.RSS

	m.CPUPercent, err = proc.CPUPercent()

	if err != nil {
		return m, err
	}

	vm, err := mem.VirtualMemory()

	if err != nil {
		return m, err
	}

	m.MemTotal = vm.Total
	m.MemAvail = vm.Available

	return m, nil
}

func (h *Harness) logMetrics() {

	m, err := CollectMetrics()

	if err != nil {
		h.log.Debugw("process metrics unavailable", logger.FieldError, err)
		return
	}

	h.log.Infow("process metrics",
		"rss_bytes", m.RSS,
		"cpu_percent", m.CPUPercent,
		"mem_total_bytes", m.MemTotal,
		"mem_available_bytes", m.MemAvail,
	)
}
