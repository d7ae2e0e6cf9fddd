package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"net/url"

	"go.uber.org/zap"

	"github.com/sean-rowe/weather-lookup/internal/adapters/secondary/geolocation"
	"github.com/sean-rowe/weather-lookup/internal/core/domain"
	"github.com/sean-rowe/weather-lookup/internal/core/services"
)

//go:embed templates/*.html
var templateFS embed.FS

// Handler serves the widget page and its two triggers.
type Handler struct {
	sessions *Sessions
	page     *template.Template
	logger   *zap.Logger
}

// NewHandler parses the embedded page template.
func NewHandler(sessions *Sessions, logger *zap.Logger) (*Handler, error) {
	page, err := template.New("index.html").
		Funcs(template.FuncMap{"deref": deref}).
		ParseFS(templateFS, "templates/index.html")

	if err != nil {
		return nil, err
	}

	return &Handler{
		sessions: sessions,
		page:     page,
		logger:   logger,
	}, nil
}

type pageData struct {
	View  domain.RenderedView
	Query string
}

// Index renders the session's current view.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	o := h.sessions.Orchestrator(w, r)

	data := pageData{
		View:  o.View(),
		Query: r.URL.Query().Get("city"),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if err := h.page.Execute(w, data); err != nil {
		h.logger.Error("failed to render page", zap.Error(err))
	}
}

// Lookup runs a city lookup from the form, then redirects back to the page.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	city := r.PostFormValue("city")
	o := h.sessions.Orchestrator(w, r)

	if _, err := o.Submit(r.Context(), city); errors.Is(err, services.ErrSuperseded) {
		h.logger.Debug("city lookup superseded", zap.String("city", city))
	}

	http.Redirect(w, r, "/?city="+url.QueryEscape(city), http.StatusSeeOther)
}

// Location runs a lookup at the coordinates the browser reported.
func (h *Handler) Location(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	provider, err := geolocation.FromBrowser(q.Get("lat"), q.Get("lon"), q.Get("geo_error"))

	if err != nil {
		provider = geolocation.Unavailable{Err: err}
	}

	o := h.sessions.Orchestrator(w, r)

	if _, err := o.UseLocation(r.Context(), provider); errors.Is(err, services.ErrSuperseded) {
		h.logger.Debug("location lookup superseded")
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}

	return *v
}
