package projects_test

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/hellojohn-projects/internal/projects"
	"github.com/dropDatabas3/hellojohn-projects/internal/store/adapters/memory"
)

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }
func intptr(i int) *int       { return &i }

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

// seqIDs genera ids determinísticos "id-1", "id-2", ...
func seqIDs() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("id-%d", n.Add(1)) }
}

type recorder struct {
	mu         sync.Mutex
	results    []string
	anomalies  []projects.AnomalyKind
	invariants []string
}

func (r *recorder) ProjectProvisioned(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recorder) OwnerAnomaly(kind projects.AnomalyKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anomalies = append(r.anomalies, kind)
}

func (r *recorder) InvariantViolation(recordKind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invariants = append(r.invariants, recordKind)
}

func newProvisioner(t *testing.T, opts ...projects.Option) (*projects.Provisioner, *memory.Store, *recorder) {
	t.Helper()
	s := memory.New()
	rec := &recorder{}
	base := []projects.Option{
		projects.WithRecorder(rec),
		projects.WithClock(func() time.Time { return fixedNow }),
		projects.WithIDGenerator(seqIDs()),
	}
	return projects.NewProvisioner(s, append(base, opts...)...), s, rec
}

// acmeRequest es el request de ejemplo: google shared habilitado y github
// standard deshabilitado.
func acmeRequest() projects.CreateProjectRequest {
	return projects.CreateProjectRequest{
		DisplayName: "Acme",
		Config: &projects.CreateConfigRequest{
			OAuthProviders: []projects.OAuthProviderInput{
				{ID: "google", Type: "shared", Enabled: true},
				{ID: "github", Type: "standard", Enabled: false, ClientID: strptr("x"), ClientSecret: strptr("y")},
			},
		},
	}
}
