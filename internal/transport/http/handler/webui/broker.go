package webui

import (
	"net/http"
	"strings"

	"github.com/mandalnilabja/roboadmin/internal/session"
)

// Broker is a brokerage whose client portfolios the admin can manage.
type Broker struct {
	Slug  string
	Label string
}

// Brokers lists the selectable brokers; the first one is the default.
var Brokers = []Broker{
	{Slug: "tinkoff_brokers", Label: "Тинькофф"},
	{Slug: "tradernet_ff", Label: "Tradernet"},
	{Slug: "finam_broker", Label: "Финам"},
}

// DefaultBroker is used until the admin picks another one.
var DefaultBroker = Brokers[0].Slug

// LookupBroker finds a broker by slug.
func LookupBroker(slug string) (Broker, bool) {
	for _, b := range Brokers {
		if b.Slug == slug {
			return b, true
		}
	}
	return Broker{}, false
}

// SelectBroker handles POST /admin/broker. The choice is kept on the session
// and scopes later portfolio calls.
func (h *Handlers) SelectBroker(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	broker, ok := LookupBroker(r.PostFormValue("broker"))
	if !ok {
		http.Error(w, "unknown broker", http.StatusBadRequest)
		return
	}

	id, store := session.FromContext(r.Context())
	if store == nil {
		http.Redirect(w, r, h.loginPath(), http.StatusFound)
		return
	}
	store.SetBroker(broker.Slug)
	if err := h.Sessions.Persist(id); err != nil {
		h.Logger.Warn("broker choice not persisted", "error", err)
	}
	h.Logger.Info("broker selected", "broker", broker.Slug)

	http.Redirect(w, r, adminReturnPath(r.PostFormValue("next")), http.StatusFound)
}

// adminReturnPath accepts only admin shell paths, so the form cannot be used
// as an open redirect.
func adminReturnPath(next string) string {
	if slug, ok := strings.CutPrefix(next, "/admin/"); ok {
		if _, known := LookupSection(slug); known {
			return next
		}
	}
	return "/admin"
}

func currentBroker(r *http.Request) string {
	if _, store := session.FromContext(r.Context()); store != nil {
		if b := store.Broker(); b != "" {
			return b
		}
	}
	return DefaultBroker
}
