package metrics

import (
	"errors"

	"git.solver4all.com/azaryc2s/vrpspd"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Collector exposes column generation progress as prometheus metrics.
type Collector struct {
	Iterations      prometheus.Counter
	ColumnsAdded    prometheus.Counter
	Duplicates      prometheus.Counter
	LabelsExpanded  prometheus.Counter
	LabelsDominated prometheus.Counter
	Infeasible      prometheus.Counter
	MasterDuration  prometheus.Histogram
	PricingDuration prometheus.Histogram
	LPObjective     prometheus.Gauge
	PoolSize        prometheus.Gauge
	// Runs counts finished runs by final stage.
	Runs *prometheus.CounterVec
}

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 60}

// NewCollector creates the metrics and registers them with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		Iterations:      prometheus.NewCounter(prometheus.CounterOpts{Name: "vrpspd_iterations_total", Help: "Column generation iterations."}),
		ColumnsAdded:    prometheus.NewCounter(prometheus.CounterOpts{Name: "vrpspd_columns_added_total", Help: "Routes added to the master problem."}),
		Duplicates:      prometheus.NewCounter(prometheus.CounterOpts{Name: "vrpspd_duplicate_columns_total", Help: "Priced routes already in the pool."}),
		LabelsExpanded:  prometheus.NewCounter(prometheus.CounterOpts{Name: "vrpspd_labels_expanded_total", Help: "Labels extended by the pricing search."}),
		LabelsDominated: prometheus.NewCounter(prometheus.CounterOpts{Name: "vrpspd_labels_dominated_total", Help: "Labels discarded by dominance."}),
		Infeasible:      prometheus.NewCounter(prometheus.CounterOpts{Name: "vrpspd_infeasible_extensions_total", Help: "Label extensions breaking capacity or duration."}),
		MasterDuration:  prometheus.NewHistogram(prometheus.HistogramOpts{Name: "vrpspd_master_duration_seconds", Help: "Master LP solve time.", Buckets: durationBuckets}),
		PricingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Name: "vrpspd_pricing_duration_seconds", Help: "Pricing time.", Buckets: durationBuckets}),
		LPObjective:     prometheus.NewGauge(prometheus.GaugeOpts{Name: "vrpspd_lp_objective", Help: "Last master LP objective."}),
		PoolSize:        prometheus.NewGauge(prometheus.GaugeOpts{Name: "vrpspd_pool_size", Help: "Routes in the master problem."}),
		Runs:            prometheus.NewCounterVec(prometheus.CounterOpts{Name: "vrpspd_runs_total", Help: "Finished runs by final stage."}, []string{"stage"}),
	}
	reg.MustRegister(c.Iterations, c.ColumnsAdded, c.Duplicates, c.LabelsExpanded, c.LabelsDominated, c.Infeasible,
		c.MasterDuration, c.PricingDuration, c.LPObjective, c.PoolSize, c.Runs)
	return c
}

// NewRegistry returns a dedicated registry with Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

func (c *Collector) IterationDone(it vrpspd.IterationStats) {
	c.Iterations.Inc()
	c.ColumnsAdded.Add(float64(it.Added))
	c.Duplicates.Add(float64(it.Duplicates))
	c.LabelsExpanded.Add(float64(it.Pricing.LabelsExpanded))
	c.LabelsDominated.Add(float64(it.Pricing.DominatedAtPop + it.Pricing.DominatedAtPush))
	c.Infeasible.Add(float64(it.Pricing.InfeasibleExtensions))
	c.MasterDuration.Observe(it.MasterTime.Seconds())
	c.PricingDuration.Observe(it.PricingTime.Seconds())
	c.LPObjective.Set(it.LPObjective)
	c.PoolSize.Set(float64(it.Pool))
}

func (c *Collector) RunDone(res *vrpspd.Result, err error) {
	var rerr *vrpspd.RunError
	switch {
	case errors.As(err, &rerr):
		c.Runs.WithLabelValues(rerr.Stage.String()).Inc()
	case err != nil:
		c.Runs.WithLabelValues("ERROR").Inc()
	default:
		c.Runs.WithLabelValues(res.Stage.String()).Inc()
	}
}

var _ vrpspd.Observer = (*Collector)(nil)
