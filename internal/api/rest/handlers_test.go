package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/metrics"
	"github.com/fortuna/matchday/internal/store"
	"github.com/rs/zerolog"
)

type fakeService struct {
	batches  [][]domain.MatchRequest
	upErr    error
	logoPath string
	hints    []string
}

func (f *fakeService) Resolve(_ context.Context, req domain.MatchRequest) domain.ResolvedFixture {
	if req.Home == "Nowhere" {
		return domain.ResolvedFixture{HomeName: req.Home, AwayName: req.Away, Source: domain.SourceNone}
	}
	return domain.ResolvedFixture{HomeName: req.Home, AwayName: req.Away, Date: "20 MART", Time: "21:00", Source: domain.SourceDirectory}
}

func (f *fakeService) ResolveBatch(ctx context.Context, reqs []domain.MatchRequest) []domain.ResolvedFixture {
	f.batches = append(f.batches, reqs)
	out := make([]domain.ResolvedFixture, len(reqs))
	for i, r := range reqs {
		out[i] = f.Resolve(ctx, r)
	}
	return out
}

func (f *fakeService) ResolveWithLogos(ctx context.Context, req domain.MatchRequest) (domain.ResolvedFixture, [2]domain.LogoResult) {
	return f.Resolve(ctx, req), [2]domain.LogoResult{
		{Path: "/logos/home.png", Source: domain.LogoCacheExact},
		{Path: "/logos/placeholders/away.png", Source: domain.LogoSynthetic},
	}
}

func (f *fakeService) ResolveLogo(_ context.Context, team, hint string) domain.LogoResult {
	f.hints = append(f.hints, hint)
	return domain.LogoResult{Path: f.logoPath, Source: domain.LogoDirectory}
}

func (f *fakeService) Upcoming(context.Context) ([]domain.UpcomingFixture, error) {
	if f.upErr != nil {
		return nil, f.upErr
	}
	return []domain.UpcomingFixture{{League: "Turkish Super Lig", HomeName: "Galatasaray", AwayName: "Fenerbahçe", Date: "20 MART", Time: "20:00"}}, nil
}

type fakeHistory struct {
	limits []int
	err    error
}

func (f *fakeHistory) Recent(_ context.Context, limit int) ([]*store.Resolution, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return nil, f.err
	}
	return []*store.Resolution{{ID: "a", HomeName: "Göztepe", AwayName: "Samsunspor", Source: "ai"}}, nil
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

func newTestServer(svc Service, history History) (*Server, *Handler) {
	h := NewHandler(svc, history, "test")
	return NewServer("0", h, metrics.NewRecorder(), nil, zerolog.Nop()), h
}

func do(t *testing.T, s *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	s, h := newTestServer(&fakeService{}, nil)
	h.AddCheck("postgres", checkFunc(func(context.Context) error { return nil }))

	rec := do(t, s, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("missing request id header")
	}

	h.AddCheck("redis", checkFunc(func(context.Context) error { return errors.New("connection refused") }))
	rec = do(t, s, "GET", "/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	decode(t, rec, &body)
	if body.Status != "degraded" || body.Dependencies["redis"] != "connection refused" || body.Dependencies["postgres"] != "ok" {
		t.Errorf("body = %+v", body)
	}
}

func TestResolveFixture(t *testing.T) {
	s, _ := newTestServer(&fakeService{}, nil)

	rec := do(t, s, "POST", "/api/v1/fixtures/resolve", `{"home":"Kocaelispor","away":"Antalyaspor"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}
	var got resolveResponse
	decode(t, rec, &got)
	if got.Date != "20 MART" || got.Time != "21:00" || got.Source != domain.SourceDirectory || got.NotFound {
		t.Errorf("got %+v", got)
	}
	if got.HomeLogo != nil {
		t.Error("logos returned without ?logos=true")
	}

	rec = do(t, s, "POST", "/api/v1/fixtures/resolve", `{"home":"Nowhere","away":"Nobody"}`)
	decode(t, rec, &got)
	if !got.NotFound || got.Source != domain.SourceNone {
		t.Errorf("not found: got %+v", got)
	}
}

func TestResolveFixtureWithLogos(t *testing.T) {
	s, _ := newTestServer(&fakeService{}, nil)

	rec := do(t, s, "POST", "/api/v1/fixtures/resolve?logos=true", `{"home":"Kocaelispor","away":"Antalyaspor"}`)
	var got resolveResponse
	decode(t, rec, &got)
	if got.HomeLogo == nil || got.AwayLogo == nil {
		t.Fatalf("missing logos: %s", rec.Body)
	}
	if got.AwayLogo.Source != domain.LogoSynthetic {
		t.Errorf("away logo = %+v", got.AwayLogo)
	}
}

func TestResolveFixtureRejectsBadInput(t *testing.T) {
	s, _ := newTestServer(&fakeService{}, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"home":`},
		{"missing away", `{"home":"Kocaelispor"}`},
		{"blank home", `{"home":"  ","away":"Antalyaspor"}`},
		{"unknown field", `{"home":"A","away":"B","league":"x"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, "POST", "/api/v1/fixtures/resolve", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rec.Code)
			}
			var body map[string]interface{}
			decode(t, rec, &body)
			if body["error"] == nil || body["status"] != float64(http.StatusBadRequest) {
				t.Errorf("body = %v", body)
			}
		})
	}
}

func TestResolveBatch(t *testing.T) {
	svc := &fakeService{}
	s, _ := newTestServer(svc, nil)

	body := `{"matches":[{"home":"Rizespor","away":"Kasımpaşa"}],
		"lines":["Galatasaray vs Fenerbahçe 1.85 3.40 4.10","Nowhere - Nobody yok"],
		"night_rollback":true}`
	rec := do(t, s, "POST", "/api/v1/fixtures/batch", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body)
	}

	var got struct {
		Count    int               `json:"count"`
		Fixtures []resolveResponse `json:"fixtures"`
	}
	decode(t, rec, &got)
	if got.Count != 3 {
		t.Fatalf("count = %d", got.Count)
	}
	if got.Fixtures[1].HomeName != "Galatasaray" || got.Fixtures[1].AwayName != "Fenerbahçe" {
		t.Errorf("line parse: %+v", got.Fixtures[1])
	}
	if !got.Fixtures[2].NotFound {
		t.Errorf("third fixture should be not found: %+v", got.Fixtures[2])
	}

	reqs := svc.batches[0]
	if reqs[0].NightRollback || !reqs[1].NightRollback || !reqs[2].NightRollback {
		t.Errorf("night rollback flags = %+v", reqs)
	}
}

func TestResolveBatchLimits(t *testing.T) {
	s, _ := newTestServer(&fakeService{}, nil)

	if rec := do(t, s, "POST", "/api/v1/fixtures/batch", `{}`); rec.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d", rec.Code)
	}
	if rec := do(t, s, "POST", "/api/v1/fixtures/batch", `{"lines":["just one team"]}`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad line status = %d", rec.Code)
	}

	lines := make([]string, maxBatchSize+1)
	for i := range lines {
		lines[i] = `"A vs B"`
	}
	rec := do(t, s, "POST", "/api/v1/fixtures/batch", `{"lines":[`+strings.Join(lines, ",")+`]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("oversized batch status = %d", rec.Code)
	}
}

func TestGetUpcoming(t *testing.T) {
	s, _ := newTestServer(&fakeService{}, nil)
	rec := do(t, s, "GET", "/api/v1/fixtures/upcoming", "")
	var got struct {
		Count    int                      `json:"count"`
		Fixtures []domain.UpcomingFixture `json:"fixtures"`
	}
	decode(t, rec, &got)
	if got.Count != 1 || got.Fixtures[0].League != "Turkish Super Lig" {
		t.Errorf("got %+v", got)
	}

	down := domain.Unavailable("sportsdb", errors.New("timeout"))
	s, _ = newTestServer(&fakeService{upErr: down}, nil)
	if rec := do(t, s, "GET", "/api/v1/fixtures/upcoming", ""); rec.Code != http.StatusBadGateway {
		t.Errorf("unavailable status = %d", rec.Code)
	}
}

func TestGetLogo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sivasspor.png")
	if err := os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nfake"), 0o644); err != nil {
		t.Fatal(err)
	}
	svc := &fakeService{logoPath: path}
	s, _ := newTestServer(svc, nil)

	rec := do(t, s, "GET", "/api/v1/logos/Sivasspor?hint=https://www.thesportsdb.com/images/media/team/badge/b.png", "")
	var got map[string]string
	decode(t, rec, &got)
	if got["path"] != path || got["source"] != "directory" || got["team"] != "Sivasspor" {
		t.Errorf("got %v", got)
	}
	if svc.hints[0] != "https://www.thesportsdb.com/images/media/team/badge/b.png" {
		t.Errorf("hint = %q", svc.hints[0])
	}

	rec = do(t, s, "GET", "/api/v1/logos/Sivasspor?format=png", "")
	if rec.Code != http.StatusOK || rec.Header().Get("X-Logo-Source") != "directory" {
		t.Fatalf("status = %d headers=%v", rec.Code, rec.Header())
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Error("body is not the logo file")
	}
}

func TestGetLogoRejectsForeignHints(t *testing.T) {
	svc := &fakeService{}
	s, _ := newTestServer(svc, nil)

	hints := []string{
		"http://169.254.169.254/latest/meta-data/",
		"http://localhost:6379/",
		"https://example.com/b.png",
		"https://thesportsdb.com.attacker.io/b.png",
		"file:///etc/passwd",
		"//www.thesportsdb.com/b.png",
	}
	for _, hint := range hints {
		t.Run(hint, func(t *testing.T) {
			rec := do(t, s, "GET", "/api/v1/logos/Sivasspor?hint="+url.QueryEscape(hint), "")
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d", rec.Code)
			}
		})
	}
	if len(svc.hints) != 0 {
		t.Errorf("rejected hints reached the resolver: %v", svc.hints)
	}
}

func TestGetRecentResolutions(t *testing.T) {
	s, _ := newTestServer(&fakeService{}, nil)
	if rec := do(t, s, "GET", "/api/v1/resolutions/recent", ""); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("no history status = %d", rec.Code)
	}

	hist := &fakeHistory{}
	s, _ = newTestServer(&fakeService{}, hist)

	rec := do(t, s, "GET", "/api/v1/resolutions/recent?limit=5000", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	do(t, s, "GET", "/api/v1/resolutions/recent", "")
	if hist.limits[0] != 200 || hist.limits[1] != 20 {
		t.Errorf("limits = %v", hist.limits)
	}

	if rec := do(t, s, "GET", "/api/v1/resolutions/recent?limit=abc", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d", rec.Code)
	}

	hist.err = errors.New("db down")
	if rec := do(t, s, "GET", "/api/v1/resolutions/recent", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("db error status = %d", rec.Code)
	}
}

func TestMetricsEndpointCountsRequests(t *testing.T) {
	s, _ := newTestServer(&fakeService{}, nil)
	do(t, s, "GET", "/health", "")

	rec := do(t, s, "GET", "/metrics", "")
	if !strings.Contains(rec.Body.String(), `matchday_http_requests_total{code="200",method="GET"} 1`) {
		t.Errorf("metrics output missing request counter:\n%s", rec.Body)
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	h := RecoveryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rec.Code)
	}
}
