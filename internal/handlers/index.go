package handlers

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/aigoflow/attrition-service/internal/components"
)

type IndexHandler struct {
	page templ.Component
}

func NewIndexHandler(mode string) *IndexHandler {
	return &IndexHandler{page: components.Index(mode)}
}

func (h *IndexHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/", h)
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "GET only", http.StatusMethodNotAllowed)
		return
	}
	templ.Handler(h.page).ServeHTTP(w, r)
}
