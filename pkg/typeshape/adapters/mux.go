package adapters

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/toyz/typeshape/pkg/typeshape"
)

// MuxAdapter mounts operation routes on a gorilla/mux router, for plain
// net/http servers
type MuxAdapter struct {
	binder *typeshape.Binder
}

// NewMuxAdapter creates a new gorilla/mux adapter
func NewMuxAdapter(binder *typeshape.Binder) *MuxAdapter {
	return &MuxAdapter{binder: binder}
}

// Name returns the adapter name
func (ma *MuxAdapter) Name() string {
	return "Mux"
}

// Mount registers every route with the router
func (ma *MuxAdapter) Mount(router *mux.Router, routes []typeshape.Route) {
	for _, route := range routes {
		router.Handle(route.Path, ma.Handler(route)).Methods(route.Method)
	}
}

// Handler converts a route into an http.Handler
func (ma *MuxAdapter) Handler(route typeshape.Route) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, typeshape.ErrBadRequest(err.Error()))
			return
		}

		status, payload := ma.binder.Serve(r.Context(), route, typeshape.Request{
			Body:  body,
			Query: r.URL.Query(),
		})
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, payload)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
