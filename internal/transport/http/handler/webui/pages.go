package webui

import (
	"io/fs"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mandalnilabja/roboadmin/internal/failure"
	"github.com/mandalnilabja/roboadmin/internal/session"
	"github.com/mandalnilabja/roboadmin/web"
)

// Section is one area of the admin shell.
type Section struct {
	Slug  string
	Label string
}

// Sections lists the admin areas in navigation order.
var Sections = []Section{
	{Slug: "portfolios", Label: "Portfolios"},
	{Slug: "model-portfolios", Label: "Model Portfolios"},
	{Slug: "strategies", Label: "Strategies"},
	{Slug: "executions", Label: "Executions"},
	{Slug: "risk", Label: "Risk"},
	{Slug: "settings", Label: "Settings"},
}

// LookupSection finds a section by slug.
func LookupSection(slug string) (Section, bool) {
	for _, s := range Sections {
		if s.Slug == slug {
			return s, true
		}
	}
	return Section{}, false
}

type adminPage struct {
	Title    string
	Heading  string
	Current  string
	UserID   string
	Sections []Section
	Broker   string
	Brokers  []Broker
}

// Admin serves the admin landing page (GET /admin).
func (h *Handlers) Admin(w http.ResponseWriter, r *http.Request) {
	h.render(w, "admin.html", http.StatusOK, adminPage{
		Title:    "Dashboard",
		UserID:   currentUserID(r),
		Sections: Sections,
		Broker:   currentBroker(r),
		Brokers:  Brokers,
	})
}

// Section serves one admin area (GET /admin/{section}).
func (h *Handlers) Section(w http.ResponseWriter, r *http.Request) {
	section, ok := LookupSection(mux.Vars(r)["section"])
	if !ok {
		h.NotFound(w, r)
		return
	}
	h.render(w, "admin.html", http.StatusOK, adminPage{
		Title:    section.Label,
		Heading:  section.Label,
		Current:  section.Slug,
		UserID:   currentUserID(r),
		Sections: Sections,
		Broker:   currentBroker(r),
		Brokers:  Brokers,
	})
}

type errorPage struct {
	Title   string
	Failure *failure.Failure
}

// ErrorPage shows the most recent recovered failure (GET /error). It needs
// no session.
func (h *Handlers) ErrorPage(w http.ResponseWriter, r *http.Request) {
	data := errorPage{Title: "Error"}
	if f, ok := h.Failures.Last(); ok {
		data.Failure = &f
	}
	h.render(w, "error.html", http.StatusOK, data)
}

type notFoundPage struct {
	Title string
	Path  string
}

// NotFound renders the generic not-found page.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.render(w, "notfound.html", http.StatusNotFound, notFoundPage{
		Title: "Not Found",
		Path:  r.URL.Path,
	})
}

// Static serves embedded assets; mount it under /static/.
func (h *Handlers) Static() http.Handler {
	staticFS, err := fs.Sub(web.FS, "static")
	if err != nil {
		// This should never happen with a valid embed
		panic("failed to create sub filesystem: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(staticFS)))
}

func currentUserID(r *http.Request) string {
	if _, store := session.FromContext(r.Context()); store != nil {
		return store.CurrentSession().UserID
	}
	return ""
}
