// Package metrics exports invitation and guest lifecycle counters to
// Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ITOUMEUCK/livemory/internal/services/invitations/domain"
)

const namespace = "livemory"

// Collector records lifecycle events. It satisfies domain.Observer.
type Collector struct {
	created     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	guests      prometheus.Counter
	conversions prometheus.Counter
	collisions  *prometheus.CounterVec
	registry    *prometheus.Registry
}

var _ domain.Observer = (*Collector)(nil)

// New builds a collector on its own registry, including Go runtime and
// process collectors.
func New() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		registry: reg,
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invitations",
			Name:      "created_total",
			Help:      "Invitations created, by target kind.",
		}, []string{"target"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "invitations",
			Name:      "transitions_total",
			Help:      "Invitation status transitions applied.",
		}, []string{"from", "to"}),
		guests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guests",
			Name:      "created_total",
			Help:      "Guest identities created.",
		}),
		conversions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "guests",
			Name:      "converted_total",
			Help:      "Guests converted into registered users.",
		}),
		collisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_collisions_total",
			Help:      "Token insert retries caused by a uniqueness conflict.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		c.created,
		c.transitions,
		c.guests,
		c.conversions,
		c.collisions,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// InvitationCreated counts a new invitation.
func (c *Collector) InvitationCreated(target domain.Target) {
	kind := "group"
	if target.IsEvent() {
		kind = "event"
	}
	c.created.WithLabelValues(kind).Inc()
}

// InvitationTransitioned counts an applied status change.
func (c *Collector) InvitationTransitioned(from, to domain.Status) {
	c.transitions.WithLabelValues(from.String(), to.String()).Inc()
}

// GuestCreated counts a new guest.
func (c *Collector) GuestCreated() { c.guests.Inc() }

// GuestConverted counts a guest conversion.
func (c *Collector) GuestConverted() { c.conversions.Inc() }

// TokenCollision counts a retried token insert.
func (c *Collector) TokenCollision(kind string) {
	c.collisions.WithLabelValues(kind).Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
