package prometheus

import (
	flag "github.com/spf13/pflag"
)

const (
	// CfgPrometheusBindAddress defines the bind address of the Prometheus exporter.
	CfgPrometheusBindAddress = "prometheus.bindAddress"

	// CfgPrometheusProcessMetrics defines whether to collect the metrics of the process.
	CfgPrometheusProcessMetrics = "prometheus.processMetrics"

	// CfgPrometheusGoMetrics defines whether to collect the metrics of the Go runtime.
	CfgPrometheusGoMetrics = "prometheus.goMetrics"
)

func init() {
	flag.String(CfgPrometheusBindAddress, "127.0.0.1:9311", "the bind address on which the Prometheus exporter listens on")
	flag.Bool(CfgPrometheusProcessMetrics, true, "include process metrics")
	flag.Bool(CfgPrometheusGoMetrics, false, "include go metrics")
}
