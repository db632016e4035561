package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/fortuna/matchday/internal/domain"
	"github.com/fortuna/matchday/internal/pipeline"
	"github.com/fortuna/matchday/internal/store"
	"github.com/fortuna/matchday/internal/store/repository"
	"github.com/gorilla/mux"
)

const (
	maxBodyBytes = 1 << 20
	maxBatchSize = 50
)

// Service is the resolution pipeline as seen by the API.
type Service interface {
	Resolve(ctx context.Context, req domain.MatchRequest) domain.ResolvedFixture
	ResolveBatch(ctx context.Context, reqs []domain.MatchRequest) []domain.ResolvedFixture
	ResolveWithLogos(ctx context.Context, req domain.MatchRequest) (domain.ResolvedFixture, [2]domain.LogoResult)
	ResolveLogo(ctx context.Context, team, hint string) domain.LogoResult
	Upcoming(ctx context.Context) ([]domain.UpcomingFixture, error)
}

// History lists stored resolutions.
type History interface {
	Recent(ctx context.Context, limit int) ([]*store.Resolution, error)
}

// HealthChecker is a backing service probed by /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	svc     Service
	history History
	checks  map[string]HealthChecker
	version string
}

// NewHandler creates a new handler. history may be nil when no database is configured.
func NewHandler(svc Service, history History, version string) *Handler {
	return &Handler{
		svc:     svc,
		history: history,
		checks:  make(map[string]HealthChecker),
		version: version,
	}
}

// AddCheck registers a dependency reported by the health endpoint.
func (h *Handler) AddCheck(name string, c HealthChecker) {
	h.checks[name] = c
}

// resolveResponse is a fixture, optionally with both logos.
type resolveResponse struct {
	domain.ResolvedFixture
	NotFound bool               `json:"not_found"`
	HomeLogo *domain.LogoResult `json:"home_logo,omitempty"`
	AwayLogo *domain.LogoResult `json:"away_logo,omitempty"`
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	deps := make(map[string]string, len(h.checks))
	for name, c := range h.checks {
		if err := c.HealthCheck(ctx); err != nil {
			deps[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		deps[name] = "ok"
	}

	state := "healthy"
	if status != http.StatusOK {
		state = "degraded"
	}
	respondJSON(w, status, map[string]interface{}{
		"status":       state,
		"service":      "matchday",
		"version":      h.version,
		"dependencies": deps,
	})
}

// ResolveFixture resolves one match. ?logos=true also resolves both crests.
func (h *Handler) ResolveFixture(w http.ResponseWriter, r *http.Request) {
	var req domain.MatchRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if err := validate(req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid match", err)
		return
	}

	withLogos, _ := strconv.ParseBool(r.URL.Query().Get("logos"))
	if !withLogos {
		fx := h.svc.Resolve(r.Context(), req)
		respondJSON(w, http.StatusOK, resolveResponse{ResolvedFixture: fx, NotFound: fx.NotFound()})
		return
	}

	fx, logos := h.svc.ResolveWithLogos(r.Context(), req)
	respondJSON(w, http.StatusOK, resolveResponse{
		ResolvedFixture: fx,
		NotFound:        fx.NotFound(),
		HomeLogo:        &logos[0],
		AwayLogo:        &logos[1],
	})
}

// ResolveBatch resolves a list of matches, keeping request order.
// It accepts either a JSON array of requests or {"lines": [...]} of raw match lines.
func (h *Handler) ResolveBatch(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Matches       []domain.MatchRequest `json:"matches"`
		Lines         []string              `json:"lines"`
		NightRollback bool                  `json:"night_rollback"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	reqs := body.Matches
	for i, line := range body.Lines {
		home, away, err := pipeline.ParseMatchLine(line)
		if err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid line %d", i+1), err)
			return
		}
		reqs = append(reqs, domain.MatchRequest{Home: home, Away: away, NightRollback: body.NightRollback})
	}

	if len(reqs) == 0 {
		respondError(w, http.StatusBadRequest, "No matches given", nil)
		return
	}
	if len(reqs) > maxBatchSize {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("At most %d matches per batch", maxBatchSize), nil)
		return
	}
	for i, req := range reqs {
		if err := validate(req); err != nil {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid match %d", i+1), err)
			return
		}
	}

	out := h.svc.ResolveBatch(r.Context(), reqs)
	resp := make([]resolveResponse, len(out))
	for i, fx := range out {
		resp[i] = resolveResponse{ResolvedFixture: fx, NotFound: fx.NotFound()}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(resp),
		"fixtures": resp,
	})
}

// GetUpcoming lists upcoming fixtures across the configured leagues.
func (h *Handler) GetUpcoming(w http.ResponseWriter, r *http.Request) {
	fixtures, err := h.svc.Upcoming(r.Context())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrSourceUnavailable) {
			status = http.StatusBadGateway
		}
		respondError(w, status, "Failed to fetch upcoming fixtures", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(fixtures),
		"fixtures": fixtures,
	})
}

// GetLogo resolves a team crest. ?format=png streams the file instead of JSON.
func (h *Handler) GetLogo(w http.ResponseWriter, r *http.Request) {
	team := strings.TrimSpace(mux.Vars(r)["team"])
	if team == "" {
		respondError(w, http.StatusBadRequest, "Team is required", nil)
		return
	}

	hint := r.URL.Query().Get("hint")
	if err := checkBadgeHint(hint); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid hint", err)
		return
	}

	res := h.svc.ResolveLogo(r.Context(), team, hint)
	if r.URL.Query().Get("format") == "png" {
		w.Header().Set("X-Logo-Source", string(res.Source))
		w.Header().Set("Content-Type", "image/png")
		http.ServeFile(w, r, res.Path)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"team":   team,
		"path":   res.Path,
		"source": res.Source,
	})
}

// GetRecentResolutions lists the latest stored resolutions.
func (h *Handler) GetRecentResolutions(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "History is not configured", nil)
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid limit", err)
			return
		}
		limit = n
	}

	rows, err := h.history.Recent(r.Context(), repository.ClampLimit(limit))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch resolutions", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":       len(rows),
		"resolutions": rows,
	})
}

// badgeHosts are the only hosts a client-supplied logo hint may point at.
var badgeHosts = []string{"thesportsdb.com"}

// checkBadgeHint accepts an empty hint or an http(s) URL on a directory badge host.
func checkBadgeHint(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	host := strings.ToLower(u.Hostname())
	for _, allowed := range badgeHosts {
		if host == allowed || strings.HasSuffix(host, "."+allowed) {
			return nil
		}
	}
	return fmt.Errorf("host %q is not a badge host", host)
}

func validate(req domain.MatchRequest) error {
	if strings.TrimSpace(req.Home) == "" || strings.TrimSpace(req.Away) == "" {
		return errors.New("home and away are required")
	}
	return nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
