/*
Copyright 2025 The zoneops Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exposes Prometheus metrics on the manager's metrics
// endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	crmetrics "sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	// ZoneDispatches counts per-instance zone sync attempts by outcome.
	ZoneDispatches = promauto.With(crmetrics.Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "zoneops_zone_dispatches_total",
			Help: "Zone synchronization dispatches to instances, by role and outcome.",
		},
		[]string{"role", "outcome"},
	)

	// RecordPushes counts record pushes by kind and outcome.
	RecordPushes = promauto.With(crmetrics.Registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "zoneops_record_pushes_total",
			Help: "Record pushes to instances, by record kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	// BoundRecords tracks records currently bound per zone.
	BoundRecords = promauto.With(crmetrics.Registry).NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "zoneops_zone_bound_records",
			Help: "Number of records bound to a zone.",
		},
		[]string{"zone"},
	)

	// DispatchDuration observes the wall time of protocol calls.
	DispatchDuration = promauto.With(crmetrics.Registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "zoneops_dispatch_duration_seconds",
			Help:    "Duration of name-server protocol dispatches.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

const (
	OutcomeConfigured = "configured"
	OutcomeFailed     = "failed"
	OutcomeSkipped    = "skipped"
)
