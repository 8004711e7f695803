package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	IssueRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seqid_issue_requests_total",
		Help: "Total ID issue requests.",
	})
	IDsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "seqid_ids_issued_total",
		Help: "IDs issued by sequence.",
	}, []string{"sequence"})
	Rewinds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "seqid_position_rewinds_total",
		Help: "Position assignments that moved a sequence backwards.",
	}, []string{"sequence"})
	CacheHit = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seqid_sequence_cache_hit_total",
		Help: "Sequence lookups served from memory.",
	})
	CacheMiss = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seqid_sequence_cache_miss_total",
		Help: "Sequence lookups that went to the store.",
	})
	IssueEventsDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "seqid_issue_events_dropped_total",
		Help: "Issue events dropped due to full buffer.",
	})
)

func init() {
	prometheus.MustRegister(IssueRequests, IDsIssued, Rewinds, CacheHit, CacheMiss, IssueEventsDropped)
}

func Handler(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}
