package wal

import (
	"github.com/prometheus/client_golang/prometheus"

	intsegment "wal-segment/internal/segment"
)

// RegisterMetrics registers every segment metrics collector with the given
// prometheus registerer.
func RegisterMetrics(registerer prometheus.Registerer) error {
	return intsegment.RegisterMetrics(registerer)
}
