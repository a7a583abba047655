package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once    sync.Once
	pending []prometheus.Collector
)

// register is called by init() in each metrics file to queue collectors.
func register(cs ...prometheus.Collector) {
	pending = append(pending, cs...)
}

// MustRegister registers ALL queued collectors with Prometheus exactly once.
func MustRegister() {
	once.Do(func() {
		if len(pending) > 0 {
			prometheus.MustRegister(pending...)
		}
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
