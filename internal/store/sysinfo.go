package store

import (
	"fmt"
	"log/slog"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// SysInfo describes the machine a run executed on.
type SysInfo struct {
	Platform string `json:"platform"`
	CPU      string `json:"cpu"`
	Memory   string `json:"memory"`
}

// CollectSysInfo gathers host details. Fields that cannot be read are left
// empty; it never fails.
func CollectSysInfo() *SysInfo {
	info := &SysInfo{}

	if hostStat, err := host.Info(); err == nil {
		info.Platform = hostStat.Platform
	} else {
		slog.Debug("host info unavailable", "error", err)
	}

	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		info.CPU = cpuStat[0].ModelName
	} else if err != nil {
		slog.Debug("cpu info unavailable", "error", err)
	}

	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.Memory = fmt.Sprintf("%d GB", vmStat.Total/1024/1024/1024)
	} else {
		slog.Debug("memory info unavailable", "error", err)
	}

	return info
}
