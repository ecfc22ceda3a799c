package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"reviewpulse/internal/adapters/sources"
	"reviewpulse/internal/app"
	"reviewpulse/internal/domain"
)

type Analyzer interface {
	Run(ctx context.Context, req app.AnalyzeRequest) (domain.AnalysisRecord, error)
}

type History interface {
	ListRecent(ctx context.Context, owner string, limit int) ([]domain.AnalysisSummary, error)
	Get(ctx context.Context, owner, id string) (domain.AnalysisRecord, error)
}

type Comparer interface {
	Compare(ctx context.Context, req app.CompareRequest) (app.CompareResult, error)
}

type Handlers struct {
	A      Analyzer
	H      History // nil when no store is configured
	C      Comparer
	V      *Validator
	Locale domain.Locale // defaults for requests that omit lang/country
}

const (
	ownerHeader  = "X-Owner-ID"
	defaultOwner = "anonymous"
	maxBodyBytes = 64 << 10
)

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type analyzeBody struct {
	Platform string `json:"platform" validate:"required,oneof=google apple"`
	AppID    string `json:"appId" validate:"required,max=512"`
	AppName  string `json:"appName" validate:"omitempty,max=200"`
	Lang     string `json:"lang" validate:"omitempty,len=2"`
	Country  string `json:"country" validate:"omitempty,len=2"`
}

type compareBody struct {
	Platform    string   `json:"platform" validate:"required,oneof=google apple"`
	MainAppID   string   `json:"mainAppId" validate:"required,max=512"`
	Competitors []string `json:"competitors" validate:"required,min=1,max=5,dive,required,max=512"`
	Lang        string   `json:"lang" validate:"omitempty,len=2"`
	Country     string   `json:"country" validate:"omitempty,len=2"`
}

func (s *Server) MountHandlers(h *Handlers) {
	if h.V == nil {
		h.V = NewValidator()
	}
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Post("/v1/analyses", h.createAnalysis)
	s.mux.Get("/v1/analyses", h.listAnalyses)
	s.mux.Get("/v1/analyses/{id}", h.getAnalysis)
	s.mux.Post("/v1/compare", h.compare)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps domain errors onto problem responses. An expired request
// deadline wins over whatever error it caused downstream. Unknown errors are
// logged and reported with a generic detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(r.Context().Err(), context.DeadlineExceeded):
		writeProblem(w, http.StatusGatewayTimeout, "Timeout", "analysis did not finish in time")
	case errors.As(err, &ve):
		writeProblem(w, http.StatusBadRequest, "Invalid request", ve.Error())
	case errors.Is(err, domain.ErrValidation):
		writeProblem(w, http.StatusBadRequest, "Invalid request", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "analysis not found")
	case errors.Is(err, domain.ErrFetchFailed):
		writeProblem(w, http.StatusBadGateway, "Review fetch failed", err.Error())
	case errors.Is(err, domain.ErrClassificationUnavailable):
		writeProblem(w, http.StatusServiceUnavailable, "Sentiment service unavailable", "sentiment analysis failed for every batch")
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// writeCacheable serves v with a weak ETag and answers 304 when the client has it.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "unexpected error")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write body")
	}
}

func owner(r *http.Request) string {
	if o := strings.TrimSpace(r.Header.Get(ownerHeader)); o != "" {
		return o
	}
	return defaultOwner
}

func (h *Handlers) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("body", "malformed JSON: "+err.Error())
	}
	return h.V.Struct(dst)
}

func (h *Handlers) locale(lang, country string) domain.Locale {
	loc := h.Locale
	if lang != "" {
		loc.Lang = strings.ToLower(lang)
	}
	if country != "" {
		loc.Country = strings.ToLower(country)
	}
	return loc
}

func (h *Handlers) createAnalysis(w http.ResponseWriter, r *http.Request) {
	var body analyzeBody
	if err := h.decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	p := domain.Platform(body.Platform)
	id, err := sources.ParseAppID(p, body.AppID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rec, err := h.A.Run(r.Context(), app.AnalyzeRequest{
		OwnerID:  owner(r),
		Platform: p,
		AppID:    id,
		AppName:  strings.TrimSpace(body.AppName),
		Locale:   h.locale(body.Lang, body.Country),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/analyses/"+rec.ID)
	writeJSON(w, http.StatusCreated, rec)
}

func (h *Handlers) listAnalyses(w http.ResponseWriter, r *http.Request) {
	if h.H == nil {
		writeProblem(w, http.StatusServiceUnavailable, "History disabled", "no analysis store is configured")
		return
	}
	limit := 10
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > app.MaxHistory {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and "+strconv.Itoa(app.MaxHistory))
			return
		}
		limit = l
	}

	out, err := h.H.ListRecent(r.Context(), owner(r), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, map[string]any{"items": out})
}

func (h *Handlers) getAnalysis(w http.ResponseWriter, r *http.Request) {
	if h.H == nil {
		writeProblem(w, http.StatusServiceUnavailable, "History disabled", "no analysis store is configured")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id is required")
		return
	}
	rec, err := h.H.Get(r.Context(), owner(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCacheable(w, r, rec)
}

func (h *Handlers) compare(w http.ResponseWriter, r *http.Request) {
	var body compareBody
	if err := h.decode(w, r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	p := domain.Platform(body.Platform)
	mainID, err := sources.ParseAppID(p, body.MainAppID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	competitors := make([]string, 0, len(body.Competitors))
	for _, c := range body.Competitors {
		id, err := sources.ParseAppID(p, c)
		if err != nil {
			writeError(w, r, domain.Invalid("competitors", c+": "+err.Error()))
			return
		}
		competitors = append(competitors, id)
	}

	res, err := h.C.Compare(r.Context(), app.CompareRequest{
		Platform:    p,
		MainAppID:   mainID,
		Competitors: competitors,
		Locale:      h.locale(body.Lang, body.Country),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
