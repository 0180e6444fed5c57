package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/telhawk-systems/trackgen/pkg/payload"
)

// Metrics counts what a run generated. A nil *Metrics is valid and records nothing.
type Metrics struct {
	CollectionsGenerated prometheus.Counter
	PayloadsGenerated    prometheus.Counter
	SignaturesComputed   prometheus.Counter
	BodyBytes            prometheus.Counter
}

// New registers the trackgen counters on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CollectionsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "trackgen_collections_generated_total",
			Help: "Total number of collections generated",
		}),
		PayloadsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "trackgen_payloads_generated_total",
			Help: "Total number of payload records generated",
		}),
		SignaturesComputed: factory.NewCounter(prometheus.CounterOpts{
			Name: "trackgen_signatures_computed_total",
			Help: "Total number of body signatures computed",
		}),
		BodyBytes: factory.NewCounter(prometheus.CounterOpts{
			Name: "trackgen_body_bytes_total",
			Help: "Total bytes of serialized bodies",
		}),
	}
}

// ObserveCollection counts one generated collection and its payloads.
func (m *Metrics) ObserveCollection(c *payload.Collection) {
	if m == nil || c == nil {
		return
	}
	m.CollectionsGenerated.Inc()
	m.PayloadsGenerated.Add(float64(len(c.Payloads)))
}

// ObserveBody adds the size of one signed body.
func (m *Metrics) ObserveBody(n int) {
	if m == nil {
		return
	}
	m.BodyBytes.Add(float64(n))
}

// ObserveSignature counts one computed signature.
func (m *Metrics) ObserveSignature() {
	if m == nil {
		return
	}
	m.SignaturesComputed.Inc()
}

// Sample is one counter value read back from a registry.
type Sample struct {
	Name  string
	Value float64
}

// Summary gathers every counter from g, sorted by name.
func Summary(g prometheus.Gatherer) ([]Sample, error) {
	families, err := g.Gather()
	if err != nil {
		return nil, err
	}

	var samples []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			if m.GetCounter() == nil {
				continue
			}
			samples = append(samples, Sample{Name: mf.GetName(), Value: m.GetCounter().GetValue()})
		}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i].Name < samples[j].Name })
	return samples, nil
}
