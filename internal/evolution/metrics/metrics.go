package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the evolution ledger.
// Tracks committed commands, stage transitions, rare supply and rejections.
type Metrics struct {
	AssetsIssued     prometheus.Counter
	ActivityRecorded prometheus.Counter
	StageTransitions *prometheus.CounterVec
	RareAcquired     prometheus.Counter
	RareBurned       prometheus.Counter
	CommandFailures  *prometheus.CounterVec
	CommandDuration  *prometheus.HistogramVec
}

// New creates a new Metrics instance registered on the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AssetsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "evonft_assets_issued_total",
			Help: "Total number of assets issued",
		}),
		ActivityRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "evonft_activity_recorded_total",
			Help: "Total number of activity events recorded",
		}),
		StageTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evonft_stage_transitions_total",
			Help: "Stage advances by cause (activity, rare_burn) and reached stage",
		}, []string{"cause", "stage"}),
		RareAcquired: factory.NewCounter(prometheus.CounterOpts{
			Name: "evonft_rare_units_acquired_total",
			Help: "Total rare units credited",
		}),
		RareBurned: factory.NewCounter(prometheus.CounterOpts{
			Name: "evonft_rare_units_burned_total",
			Help: "Total rare units burned by evolution",
		}),
		CommandFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "evonft_command_failures_total",
			Help: "Rejected commands by kind and error code",
		}, []string{"kind", "code"}),
		CommandDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "evonft_command_duration_seconds",
			Help:    "Duration of command execution including commit",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"kind"}),
	}
}

// ObserveCommand records the duration of a command.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCommand(kind string, start time.Time) {
	m.CommandDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementStageTransition(cause, stage string) {
	m.StageTransitions.WithLabelValues(cause, stage).Inc()
}

func (m *Metrics) IncrementFailure(kind, code string) {
	m.CommandFailures.WithLabelValues(kind, code).Inc()
}
