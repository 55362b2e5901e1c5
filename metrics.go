package sedes

import "github.com/prometheus/client_golang/prometheus"

const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

var metricSerialize = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sedes",
	Subsystem: "record",
	Name:      "serialize",
}, []string{"schema", "result"})

var metricDeserialize = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sedes",
	Subsystem: "record",
	Name:      "deserialize",
}, []string{"schema", "result"})

// Metrics returns the package's collectors for registration with the
// caller's prometheus registry.
func Metrics() []prometheus.Collector {
	return []prometheus.Collector{metricSerialize, metricDeserialize}
}
