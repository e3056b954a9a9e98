// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package scq

import (
	"code.hybscloud.com/atomix"
	"github.com/prometheus/client_golang/prometheus"
)

// Stats mirrors a [Queue]'s bookkeeping counters in lock-free storage so
// a metrics scrape goroutine can read them without contending the
// queue's mutex. The authoritative state backing E, F, and the per-slot
// fill buffers always remains the mutex-protected counters in [Queue];
// Stats is a read-mostly shadow copy, updated on every transition:
// reservations, promotions, deliveries and enqueues from inside the
// critical section, cart returns and closed-queue drops just after the
// mutex is released.
type Stats struct {
	carts int

	emptyCarts atomix.Int64
	fullCarts  atomix.Int64

	enqueuedTotal       atomix.Uint64
	droppedTotal        atomix.Uint64
	cartsPromotedTotal  atomix.Uint64
	cartsDeliveredTotal atomix.Uint64
	cartsReturnedTotal  atomix.Uint64
}

func newStats(cfg Config) *Stats {
	s := &Stats{carts: cfg.Carts}
	s.emptyCarts.Store(int64(cfg.Carts))
	return s
}

func (s *Stats) recordEnqueued()      { s.enqueuedTotal.Add(1) }
func (s *Stats) recordDropped()       { s.droppedTotal.Add(1) }
func (s *Stats) recordCartPromoted()  { s.fullCarts.Add(1); s.cartsPromotedTotal.Add(1) }
func (s *Stats) recordCartDelivered() { s.fullCarts.Add(-1); s.cartsDeliveredTotal.Add(1) }
func (s *Stats) recordCartReturned() {
	s.emptyCarts.Add(1)
	s.cartsReturnedTotal.Add(1)
}

// Snapshot is a point-in-time copy of a [Queue]'s counters.
type Snapshot struct {
	EmptyCarts     int64
	FullCarts      int64
	EnqueuedTotal  uint64
	DroppedTotal   uint64
	DeliveredTotal uint64
}

// Snapshot reads the current counters without taking the queue's mutex.
// Because the read is not coordinated with the mutex-protected state,
// a snapshot taken mid-transition may be momentarily inconsistent (e.g.
// EmptyCarts+FullCarts briefly over-counting a cart in flight between
// the empty pool and the full-cart buffer); it converges on the next
// read once the in-progress operation completes.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		EmptyCarts:     s.emptyCarts.Load(),
		FullCarts:      s.fullCarts.Load(),
		EnqueuedTotal:  s.enqueuedTotal.Load(),
		DroppedTotal:   s.droppedTotal.Load(),
		DeliveredTotal: s.cartsDeliveredTotal.Load(),
	}
}

var (
	statsEmptyCartsDesc = prometheus.NewDesc(
		"scq_empty_carts", "Number of carts currently in the empty pool.", []string{"queue"}, nil)
	statsFullCartsDesc = prometheus.NewDesc(
		"scq_full_carts", "Number of carts currently awaiting delivery.", []string{"queue"}, nil)
	statsEnqueuedDesc = prometheus.NewDesc(
		"scq_values_enqueued_total", "Total values successfully enqueued.", []string{"queue"}, nil)
	statsDroppedDesc = prometheus.NewDesc(
		"scq_values_dropped_total", "Total values dropped because the queue was closed.", []string{"queue"}, nil)
	statsDeliveredDesc = prometheus.NewDesc(
		"scq_carts_delivered_total", "Total carts delivered to a consumer.", []string{"queue"}, nil)
)

// Collector adapts a [Stats] snapshot to [prometheus.Collector] under a
// fixed "queue" label, for registration with a Prometheus registry.
type Collector struct {
	name  string
	stats *Stats
}

// NewCollector returns a [prometheus.Collector] for stats, labelled with
// name (typically the queue's logical name in the owning service).
func NewCollector(name string, stats *Stats) *Collector {
	return &Collector{name: name, stats: stats}
}

// Describe implements [prometheus.Collector].
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- statsEmptyCartsDesc
	ch <- statsFullCartsDesc
	ch <- statsEnqueuedDesc
	ch <- statsDroppedDesc
	ch <- statsDeliveredDesc
}

// Collect implements [prometheus.Collector].
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	snap := c.stats.Snapshot()
	ch <- prometheus.MustNewConstMetric(statsEmptyCartsDesc, prometheus.GaugeValue, float64(snap.EmptyCarts), c.name)
	ch <- prometheus.MustNewConstMetric(statsFullCartsDesc, prometheus.GaugeValue, float64(snap.FullCarts), c.name)
	ch <- prometheus.MustNewConstMetric(statsEnqueuedDesc, prometheus.CounterValue, float64(snap.EnqueuedTotal), c.name)
	ch <- prometheus.MustNewConstMetric(statsDroppedDesc, prometheus.CounterValue, float64(snap.DroppedTotal), c.name)
	ch <- prometheus.MustNewConstMetric(statsDeliveredDesc, prometheus.CounterValue, float64(snap.DeliveredTotal), c.name)
}
