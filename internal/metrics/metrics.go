package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the Prometheus collectors exported by the service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	servings           *prometheus.CounterVec
	portionsServed     prometheus.Counter
	envelopesPublished *prometheus.CounterVec
	transportFallbacks prometheus.Counter
	inboxInserts       *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		servings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitchenstock",
			Name:      "servings_total",
			Help:      "Serve attempts by result.",
		}, []string{"result"}),
		portionsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kitchenstock",
			Name:      "portions_served_total",
			Help:      "Portions deducted from stock by successful serves.",
		}),
		envelopesPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitchenstock",
			Name:      "envelopes_published_total",
			Help:      "Envelopes sent, by transport kind.",
		}, []string{"transport"}),
		transportFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "kitchenstock",
			Name:      "transport_fallbacks_total",
			Help:      "Switches from the live transport to the local loopback.",
		}),
		inboxInserts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kitchenstock",
			Name:      "inbox_inserts_total",
			Help:      "Inbox insert attempts by outcome.",
		}, []string{"outcome"}),
	}

	if reg != nil {
		reg.MustRegister(m.servings, m.portionsServed, m.envelopesPublished, m.transportFallbacks, m.inboxInserts)
	}
	return m
}

// ServeResult counts one serve attempt.
func (m *Metrics) ServeResult(result string, portions int) {
	if m == nil {
		return
	}
	m.servings.WithLabelValues(result).Inc()
	if portions > 0 {
		m.portionsServed.Add(float64(portions))
	}
}

// EnvelopePublished counts an envelope sent over the given transport kind.
func (m *Metrics) EnvelopePublished(kind string) {
	if m == nil {
		return
	}
	m.envelopesPublished.WithLabelValues(kind).Inc()
}

// TransportFallback counts a live to local switch.
func (m *Metrics) TransportFallback() {
	if m == nil {
		return
	}
	m.transportFallbacks.Inc()
}

// InboxInsert counts an inbox insert; duplicate marks a dropped envelope.
func (m *Metrics) InboxInsert(duplicate bool) {
	if m == nil {
		return
	}
	outcome := "stored"
	if duplicate {
		outcome = "duplicate"
	}
	m.inboxInserts.WithLabelValues(outcome).Inc()
}
