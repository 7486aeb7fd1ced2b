package mcserver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors the connection driver and
// listener update. The zero value is not usable; construct with
// NewMetrics.
type Metrics struct {
	ConnectionsAccepted prometheus.Counter
	ActiveConnections   prometheus.Gauge
	StatusRequests      prometheus.Counter
	LoginAttempts       prometheus.Counter
	LoginSuccesses      prometheus.Counter
	LoginFailures       *prometheus.CounterVec
}

// NewMetrics registers the server's collectors against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectionsAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mcserver",
			Name:      "connections_accepted_total",
			Help:      "The total number of TCP connections accepted.",
		}),
		ActiveConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "mcserver",
			Name:      "active_connections",
			Help:      "The number of connection driver goroutines currently running.",
		}),
		StatusRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mcserver",
			Name:      "status_requests_total",
			Help:      "The total number of server-list ping requests served.",
		}),
		LoginAttempts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mcserver",
			Name:      "login_attempts_total",
			Help:      "The total number of login attempts started.",
		}),
		LoginSuccesses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "mcserver",
			Name:      "login_successes_total",
			Help:      "The total number of logins that reached Play state.",
		}),
		LoginFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mcserver",
			Name:      "login_failures_total",
			Help:      "The total number of logins aborted, by reason.",
		}, []string{"reason"}),
	}
}
