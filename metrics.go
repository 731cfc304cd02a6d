// Copyright 2014-2022 Ulrich Kunitz. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package laz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records the activity of readers and writers. A nil *Metrics
// records nothing.
type Metrics struct {
	points        *prometheus.CounterVec
	chunks        *prometheus.CounterVec
	corruptChunks prometheus.Counter
	chunkBytes    prometheus.Histogram
}

// NewMetrics creates the metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		points: f.NewCounterVec(prometheus.CounterOpts{
			Name: "laz_points_total",
			Help: "Points compressed or decompressed",
		}, []string{"direction"}),
		chunks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "laz_chunks_total",
			Help: "Chunks compressed or decompressed",
		}, []string{"direction"}),
		corruptChunks: f.NewCounter(prometheus.CounterOpts{
			Name: "laz_corrupt_chunks_total",
			Help: "Chunks detected as corrupt by readers",
		}),
		chunkBytes: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "laz_chunk_bytes",
			Help:    "Compressed size of written chunks in bytes",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
		}),
	}
}

const (
	dirWrite = "write"
	dirRead  = "read"
)

func (m *Metrics) addPoints(dir string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.points.WithLabelValues(dir).Add(float64(n))
}

func (m *Metrics) chunk(dir string, size int64) {
	if m == nil {
		return
	}
	m.chunks.WithLabelValues(dir).Inc()
	if dir == dirWrite {
		m.chunkBytes.Observe(float64(size))
	}
}

func (m *Metrics) corrupt() {
	if m == nil {
		return
	}
	m.corruptChunks.Inc()
}
