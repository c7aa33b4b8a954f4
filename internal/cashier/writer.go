package cashier

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// snapshotWriter applies snapshot saves in mutation order on a single
// goroutine. The caller never waits for a write to complete; a bounded
// channel keeps memory in check while preserving ordering — no reordering,
// no coalescing, so every intermediate state reaches the store.
type snapshotWriter struct {
	store  SessionStore
	jobs   chan writeJob
	done   chan struct{}
	onWarn func(PersistenceWarning)
}

type writeJob struct {
	op   string
	snap Snapshot
}

const defaultWriteQueue = 64

func newSnapshotWriter(store SessionStore, queueSize int, onWarn func(PersistenceWarning)) *snapshotWriter {
	if queueSize <= 0 {
		queueSize = defaultWriteQueue
	}
	w := &snapshotWriter{
		store:  store,
		jobs:   make(chan writeJob, queueSize),
		done:   make(chan struct{}),
		onWarn: onWarn,
	}
	go w.run()
	return w
}

// enqueue submits a snapshot for persistence. Blocks only when the queue is
// full, which keeps writes ordered without unbounded buffering.
func (w *snapshotWriter) enqueue(op string, snap Snapshot) {
	w.jobs <- writeJob{op: op, snap: snap}
}

func (w *snapshotWriter) run() {
	defer close(w.done)
	for job := range w.jobs {
		// Each write gets its own deadline so a hung store cannot stall
		// the queue forever.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := w.store.Save(ctx, job.snap)
		cancel()
		if err == nil {
			continue
		}
		log.Warn().Err(err).Str("op", job.op).Msg("cashier: snapshot write failed")
		if w.onWarn != nil {
			w.onWarn(PersistenceWarning{Op: job.op, Err: err, Time: time.Now()})
		}
	}
}

// close drains pending writes and waits for the goroutine to exit.
func (w *snapshotWriter) close() {
	close(w.jobs)
	<-w.done
}
