package prometheus

import (
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/process"
)

func (m *Metrics) registerProcessMetrics() {
	m.cpuUsage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "process_cpu_usage",
		Help: "CPU (System) usage.",
	})
	m.memUsageBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "process_mem_usage_bytes",
		Help: "memory usage [bytes].",
	})

	m.registry.MustRegister(m.cpuUsage)
	m.registry.MustRegister(m.memUsageBytes)

	m.addCollect(m.collectProcessMetrics)
}

func (m *Metrics) collectProcessMetrics() {
	if cpuUsagePercent, err := cpu.Percent(0, false); err != nil {
		m.log.Debugf("failed to read cpu usage: %s", err)
	} else if len(cpuUsagePercent) != 0 {
		m.cpuUsage.Set(cpuUsagePercent[0])
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		m.log.Debugf("failed to inspect process: %s", err)
		return
	}

	if memoryInfo, err := proc.MemoryInfo(); err != nil {
		m.log.Debugf("failed to read memory usage: %s", err)
	} else {
		m.memUsageBytes.Set(float64(memoryInfo.RSS))
	}
}
