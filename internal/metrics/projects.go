// Package metrics define las métricas Prometheus del dominio de proyectos.
// Vive separado de internal/http para que projects y store puedan
// registrarlas sin ciclos de import.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
)

// Recorder implementa projects.Recorder sobre contadores Prometheus.
type Recorder struct {
	provisioned *prometheus.CounterVec
	anomalies   *prometheus.CounterVec
	invariants  *prometheus.CounterVec
}

var _ projects.Recorder = (*Recorder)(nil)

// NewRecorder crea y registra los contadores en reg (default si nil).
// Registrar dos veces sobre el mismo registry reutiliza los collectors existentes.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	provisioned, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "projects_provisioned_total",
		Help: "Proyectos aprovisionados por resultado",
	}, []string{"result"})) // result: ok|validation|invariant|error
	if err != nil {
		return nil, err
	}

	anomalies, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "project_owner_anomalies_total",
		Help: "Anomalías no fatales al vincular owners",
	}, []string{"kind"}))
	if err != nil {
		return nil, err
	}

	invariants, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "project_invariant_violations_total",
		Help: "Violaciones de invariantes del grafo de configuración por tipo de registro",
	}, []string{"record_kind"}))
	if err != nil {
		return nil, err
	}

	return &Recorder{provisioned: provisioned, anomalies: anomalies, invariants: invariants}, nil
}

func (r *Recorder) ProjectProvisioned(result string) {
	r.provisioned.WithLabelValues(result).Inc()
}

func (r *Recorder) OwnerAnomaly(kind projects.AnomalyKind) {
	r.anomalies.WithLabelValues(string(kind)).Inc()
}

func (r *Recorder) InvariantViolation(recordKind string) {
	r.invariants.WithLabelValues(recordKind).Inc()
}

// registerCounterVec registra c; si ya estaba registrado retorna el existente.
func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}
