package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fortuna/matchday/internal/domain"
)

func TestRecorderCountsBySource(t *testing.T) {
	r := NewRecorder()
	r.ObserveFixture(domain.SourceDirectory, 300*time.Millisecond)
	r.ObserveFixture(domain.SourceDirectory, time.Second)
	r.ObserveFixture(domain.SourceNone, time.Second)
	r.ObserveLogo(domain.LogoSynthetic, 2*time.Second)
	r.ObserveHTTP("GET", "200")

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	out := string(body)

	for _, want := range []string{
		`matchday_fixture_resolutions_total{source="directory"} 2`,
		`matchday_fixture_resolutions_total{source="none"} 1`,
		`matchday_logo_resolutions_total{source="synthetic"} 1`,
		`matchday_http_requests_total{code="200",method="GET"} 1`,
		`matchday_resolution_duration_seconds_count{kind="fixture"} 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	r.ObserveFixture(domain.SourceAI, time.Second)
	r.ObserveLogo(domain.LogoCacheExact, time.Second)
	r.ObserveHTTP("GET", "500")
}
