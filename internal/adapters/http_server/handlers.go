package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"hazards_directory/internal/app"
	"hazards_directory/internal/domain"
	"hazards_directory/internal/query"
	"hazards_directory/internal/seo"
)

const maxBodyBytes = 1 << 20

type Handlers struct {
	Q       *app.QueryService
	C       *app.CommandService
	SiteURL string
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/robots.txt", h.robots)
	s.mux.Get("/sitemap.xml", h.sitemap)

	s.mux.Route("/v1", func(r chi.Router) {
		r.Get("/providers", h.listProviders)
		r.Post("/providers", h.createProvider)
		r.Get("/providers/{id}", h.getProvider)
		r.Get("/states", h.listStates)
		r.Get("/states/{state}/counties", h.listCounties)
		r.Get("/top-rated", h.topRated)
		r.Get("/regions/{region}", h.region)
		r.Get("/organization", h.organization)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps service errors onto problem responses. Store failures
// are logged and reported without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		writeProblem(w, http.StatusBadRequest, "Validation Failed", ve.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "resource not found")
	default:
		log.Error().Err(err).
			Str("request_id", chimw.GetReqID(r.Context())).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
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

// writeJSON sends v with a weak ETag, answering 304 when the client already has it.
func writeJSON(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
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
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

// normalizeZip keeps the digits of raw and truncates to five. ok is false
// when fewer than five digits remain.
func normalizeZip(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			if b.Len() == 5 {
				return b.String(), true
			}
		}
	}
	return "", false
}

func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

type listingResponse struct {
	app.BrowsePage
	Meta seo.PageMeta `json:"meta"`
}

func (h *Handlers) listProviders(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	f := query.Filters{
		State:  strings.TrimSpace(qs.Get("state")),
		County: strings.TrimSpace(qs.Get("county")),
		Search: qs.Get("search"),
	}
	if c := strings.TrimSpace(qs.Get("category")); c != "" {
		f.ServiceCategory = string(domain.ParseCategory(c))
	}
	if z := qs.Get("zip_code"); z != "" {
		zip, ok := normalizeZip(z)
		if !ok {
			writeProblem(w, http.StatusBadRequest, "Invalid zip_code", "zip_code must contain 5 digits")
			return
		}
		f.ZipCode = zip
	}
	page, err := strconv.Atoi(qs.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > h.Q.MaxPage() {
		writeProblem(w, http.StatusBadRequest, "Invalid page", "page is out of range")
		return
	}

	out, err := h.Q.BrowseProviders(r.Context(), f, page)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, listingResponse{BrowsePage: out, Meta: seo.ListingMeta(f.State, f.ServiceCategory)})
}

func (h *Handlers) getProvider(w http.ResponseWriter, r *http.Request) {
	p, err := h.Q.GetProvider(r.Context(), pathParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, struct {
		Provider domain.Provider         `json:"provider"`
		Schema   seo.LocalBusinessSchema `json:"schema"`
	}{p, seo.LocalBusiness(p)})
}

func (h *Handlers) createProvider(w http.ResponseWriter, r *http.Request) {
	var in app.CreateProviderInput
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&in); err != nil || in == nil {
		writeProblem(w, http.StatusBadRequest, "Invalid JSON", "request body must be a JSON object")
		return
	}

	p, err := h.C.CreateProvider(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Location", "/v1/providers/"+url.PathEscape(p.ID))
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(map[string]any{"success": true, "data": p}); err != nil {
		log.Error().Err(err).Msg("failed to write createProvider body")
	}
}

func (h *Handlers) listStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.Q.States(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"states": states})
}

func (h *Handlers) listCounties(w http.ResponseWriter, r *http.Request) {
	state := pathParam(r, "state")
	counties, err := h.Q.Counties(r.Context(), state)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{"state": state, "counties": counties})
}

func (h *Handlers) topRated(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	limit := app.DefaultTopRated
	if ls := qs.Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil || l <= 0 || l > app.MaxTopRated {
			writeProblem(w, http.StatusBadRequest, "Invalid limit", "limit must be an integer between 1 and 50")
			return
		}
		limit = l
	}
	category := domain.DefaultCategory
	if c := strings.TrimSpace(qs.Get("category")); c != "" {
		category = domain.ParseCategory(c)
	}
	state := strings.TrimSpace(qs.Get("state"))

	ps, err := h.Q.TopRated(r.Context(), category, state, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, map[string]any{
		"category": category,
		"label":    category.Label(),
		"state":    state,
		"items":    ps,
	})
}

func (h *Handlers) region(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Q.RegionSummary(r.Context(), pathParam(r, "region"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, sum)
}

func (h *Handlers) organization(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, seo.Organization(h.SiteURL))
}

func (h *Handlers) sitemap(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Q.SitemapProviders(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	body, err := seo.Sitemap(h.SiteURL, ps)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write(body)
}

func (h *Handlers) robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(seo.Robots(h.SiteURL)))
}
