package browser

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts session activity. A nil *Metrics records nothing.
type Metrics struct {
	navigations       prometheus.Counter
	overlaysDismissed *prometheus.CounterVec
	sectionsExpanded  prometheus.Counter
	restarts          prometheus.Counter
	bans              prometheus.Counter
}

// NewMetrics creates the session counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		navigations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rymscraper",
			Name:      "navigations_total",
			Help:      "Page navigations issued by browser sessions.",
		}),
		overlaysDismissed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rymscraper",
			Name:      "overlays_dismissed_total",
			Help:      "Consent overlays clicked away, by class.",
		}, []string{"class"}),
		sectionsExpanded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rymscraper",
			Name:      "sections_expanded_total",
			Help:      "Collapsible sections clicked open.",
		}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rymscraper",
			Name:      "restarts_total",
			Help:      "Browser restarts caused by rate limiting.",
		}),
		bans: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rymscraper",
			Name:      "bans_total",
			Help:      "Pages that reported the client IP as blocked.",
		}),
	}

	collectors := []prometheus.Collector{
		m.navigations,
		m.overlaysDismissed,
		m.sectionsExpanded,
		m.restarts,
		m.bans,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) navigation() {
	if m != nil {
		m.navigations.Inc()
	}
}

func (m *Metrics) overlay(class string) {
	if m != nil {
		m.overlaysDismissed.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) expanded() {
	if m != nil {
		m.sectionsExpanded.Inc()
	}
}

func (m *Metrics) restart() {
	if m != nil {
		m.restarts.Inc()
	}
}

func (m *Metrics) ban() {
	if m != nil {
		m.bans.Inc()
	}
}
