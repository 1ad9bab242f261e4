// Package gchint forces a garbage collection every N commit visits, the way
// the benchmark applies memory pressure between parent resolutions.
package gchint

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"gitwalk/internal/graph"
)

type Hint struct {
	every       int64
	visits      atomic.Int64
	collections atomic.Int64
	gc          func()
	log         *logrus.Entry
}

// New returns a hint that collects every n visits. n <= 0 disables it.
func New(n int) *Hint {
	return &Hint{
		every: int64(n),
		gc:    runtime.GC,
		log:   logrus.WithField("component", "gchint"),
	}
}

// Enabled reports whether the hint ever collects.
func (h *Hint) Enabled() bool {
	return h != nil && h.every > 0
}

// Visit counts a visit and collects when the count is a multiple of n. It has
// the signature of walker.VisitFunc.
func (h *Hint) Visit(_ context.Context, c *graph.Commit) {
	if !h.Enabled() {
		return
	}
	if h.visits.Add(1)%h.every != 0 {
		return
	}
	h.gc()
	n := h.collections.Add(1)

	if h.log.Logger.IsLevelEnabled(logrus.TraceLevel) {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		h.log.WithFields(logrus.Fields{
			"commit":      c.ID,
			"collections": n,
			"heap":        humanize.Bytes(ms.HeapAlloc),
		}).Trace("forced gc")
	}
}

func (h *Hint) Visits() int64 {
	return h.visits.Load()
}

func (h *Hint) Collections() int64 {
	return h.collections.Load()
}

// Report logs the collections performed so far and the current heap size.
func (h *Hint) Report() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	h.log.WithFields(logrus.Fields{
		"visits":      humanize.Comma(h.Visits()),
		"collections": humanize.Comma(h.Collections()),
		"heap":        humanize.Bytes(ms.HeapAlloc),
		"total_alloc": humanize.Bytes(ms.TotalAlloc),
		"num_gc":      ms.NumGC,
	}).Info("memory")
}
