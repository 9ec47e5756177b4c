// internals/metrics/metrics.go
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	initOnce sync.Once

	batchRows      *prometheus.CounterVec
	batchDuration  *prometheus.HistogramVec
	orphansDeleted prometheus.Counter
	orphanFiles    *prometheus.CounterVec
	digestsSent    *prometheus.CounterVec
	queueAppends   *prometheus.CounterVec
)

// Init registers the collectors on the default registry. Safe to call more
// than once.
func Init() {
	initOnce.Do(func() {
		batchRows = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "propertytools_batch_rows_total",
			Help: "Listings handled by status batches, by operation and result",
		}, []string{"op", "result"})

		batchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "propertytools_batch_duration_seconds",
			Help:    "Time taken to process one status batch",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		}, []string{"op"})

		orphansDeleted = promauto.NewCounter(prometheus.CounterOpts{
			Name: "propertytools_orphans_deleted_total",
			Help: "Orphaned media attachments permanently deleted",
		})

		orphanFiles = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "propertytools_orphan_files_total",
			Help: "Stored media files removed for orphans, by result",
		}, []string{"result"})

		digestsSent = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "propertytools_digests_sent_total",
			Help: "Digest emails sent, by digest kind and result",
		}, []string{"kind", "result"})

		queueAppends = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "propertytools_notification_queue_appends_total",
			Help: "Entries appended to the notification queue, by action",
		}, []string{"action"})
	})
}

func ObserveBatch(op string, started time.Time, processed, attempted int) {
	Init()
	batchDuration.WithLabelValues(op).Observe(time.Since(started).Seconds())
	batchRows.WithLabelValues(op, "ok").Add(float64(processed))
	if failed := attempted - processed; failed > 0 {
		batchRows.WithLabelValues(op, "skipped").Add(float64(failed))
	}
}

func AddOrphansDeleted(n int) {
	Init()
	orphansDeleted.Add(float64(n))
}

func AddOrphanFile(ok bool) {
	Init()
	orphanFiles.WithLabelValues(result(ok)).Inc()
}

func AddDigest(kind string, ok bool) {
	Init()
	digestsSent.WithLabelValues(kind, result(ok)).Inc()
}

func AddQueueAppend(action string) {
	Init()
	queueAppends.WithLabelValues(action).Inc()
}

func result(ok bool) string {
	if ok {
		return "ok"
	}
	return "error"
}
