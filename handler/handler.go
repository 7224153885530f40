// Package handler exposes the document collections over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/stevemurr/simple-doc-store/docstore"
	"github.com/stevemurr/simple-doc-store/pool"
	"github.com/stevemurr/simple-doc-store/store"
)

// Handler holds the server dependencies and registers routes.
type Handler struct {
	reg *docstore.Registry
	mux *http.ServeMux
	log *slog.Logger
}

// New creates a Handler and wires up all routes.
func New(reg *docstore.Registry, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{reg: reg, mux: http.NewServeMux(), log: log}
	h.routes()
	return h
}

// ServeHTTP makes Handler an http.Handler. Every response carries the
// request id, taken from X-Request-ID or generated.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get("X-Request-ID")
	if id == "" {
		id = uuid.NewString()
	}
	w.Header().Set("X-Request-ID", id)
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	// Health / status
	h.mux.HandleFunc("GET /", h.root)
	h.mux.HandleFunc("GET /health", h.health)

	h.mux.HandleFunc("GET /collections", h.listCollections)
	h.mux.HandleFunc("GET /collections/{collection}/items", h.collection(h.all))
	h.mux.HandleFunc("GET /collections/{collection}/items/{key}", h.collection(h.get))
	h.mux.HandleFunc("PUT /collections/{collection}/items/{key}", h.collection(h.set))
	h.mux.HandleFunc("DELETE /collections/{collection}/items/{key}", h.collection(h.delete))
	h.mux.HandleFunc("GET /collections/{collection}/has/{key}", h.collection(h.has))
	h.mux.HandleFunc("POST /collections/{collection}/items/{key}/push", h.collection(h.push))
	h.mux.HandleFunc("POST /collections/{collection}/items/{key}/add", h.collection(h.add))
	h.mux.HandleFunc("POST /collections/{collection}/items/{key}/subtract", h.collection(h.subtract))
}

// ---------- helpers ----------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// fail maps an operation error onto a status code and logs it.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, docstore.ErrInvalidOperand):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, store.ErrInvalidCollection):
		status = http.StatusBadRequest
	case errors.Is(err, pool.ErrConnectivity):
		status = http.StatusServiceUnavailable
	}
	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	h.log.Log(r.Context(), level, "request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", status,
		"request_id", w.Header().Get("X-Request-ID"),
		"err", err)
	writeError(w, status, err.Error())
}

type collectionHandler func(w http.ResponseWriter, r *http.Request, c *docstore.Collection)

// collection resolves {collection} against the registry.
func (h *Handler) collection(next collectionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("collection")
		c, ok := h.reg.Collection(name)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", name))
			return
		}
		next(w, r, c)
	}
}

// ---------- status endpoints ----------

func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	// Only match exact root path
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "Simple Doc Store",
	})
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) listCollections(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.reg.Names())
}

// ---------- document operations ----------

func (h *Handler) all(w http.ResponseWriter, r *http.Request, c *docstore.Collection) {
	entries, err := c.All(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request, c *docstore.Collection) {
	v, ok, err := c.Get(r.Context(), r.PathValue("key"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (h *Handler) set(w http.ResponseWriter, r *http.Request, c *docstore.Collection) {
	var value any
	if err := readJSON(r, &value); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	stored, err := c.Set(r.Context(), r.PathValue("key"), value)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request, c *docstore.Collection) {
	key := r.PathValue("key")
	deleted, err := c.Delete(r.Context(), key)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": deleted, "key": key})
}

func (h *Handler) has(w http.ResponseWriter, r *http.Request, c *docstore.Collection) {
	exists, err := c.Has(r.Context(), r.PathValue("key"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"exists": exists})
}

func (h *Handler) push(w http.ResponseWriter, r *http.Request, c *docstore.Collection) {
	var value any
	if err := readJSON(r, &value); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	arr, err := c.Push(r.Context(), r.PathValue("key"), value)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, arr)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request, c *docstore.Collection) {
	h.arith(w, r, c.Add)
}

func (h *Handler) subtract(w http.ResponseWriter, r *http.Request, c *docstore.Collection) {
	h.arith(w, r, c.Subtract)
}

func (h *Handler) arith(w http.ResponseWriter, r *http.Request, op func(context.Context, string, any) (float64, error)) {
	var operand any
	if err := readJSON(r, &operand); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	n, err := op(r.Context(), r.PathValue("key"), operand)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}
