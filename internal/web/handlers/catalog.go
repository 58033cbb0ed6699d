package handlers

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/ocr-screening/internal/catalog"
	"github.com/ocr-screening/internal/match"
)

// CatalogHandler exposes the test catalog and the matcher behind it
type CatalogHandler struct {
	Catalog *catalog.Catalog
	Matcher *match.Matcher
}

// CatalogResponse lists catalog entries
type CatalogResponse struct {
	Count int             `json:"count"`
	Tests []catalog.Entry `json:"tests"`
}

// MatchResponse is the cascade outcome for one name. Test and Scores are
// set only when a unit or status was supplied.
type MatchResponse struct {
	Query   string             `json:"query"`
	Matched bool               `json:"matched"`
	Result  *match.Result      `json:"result,omitempty"`
	Test    *match.TestMatch   `json:"test,omitempty"`
	Scores  map[string]float64 `json:"scores,omitempty"`
}

// ListTests returns every catalog entry ordered by key.
func (h *CatalogHandler) ListTests(w http.ResponseWriter, r *http.Request) {
	keys := h.Catalog.Keys()
	resp := CatalogResponse{Count: len(keys), Tests: make([]catalog.Entry, 0, len(keys))}
	for _, key := range keys {
		e, _ := h.Catalog.Lookup(key)
		resp.Tests = append(resp.Tests, e)
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetTest returns one catalog entry.
func (h *CatalogHandler) GetTest(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	e, ok := h.Catalog.Lookup(key)
	if !ok {
		writeError(w, http.StatusNotFound, "Test not found", key)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// MatchName resolves ?name= against the catalog. Optional ?unit= and
// ?status= resolve the whole test and break its confidence down per field.
func (h *CatalogHandler) MatchName(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		writeError(w, http.StatusBadRequest, "Name required", "")
		return
	}
	unit, status := strings.TrimSpace(q.Get("unit")), strings.TrimSpace(q.Get("status"))

	resp := MatchResponse{Query: name}
	if res, ok := h.Matcher.MatchName(name); ok {
		resp.Matched = true
		resp.Result = &res
	}
	if resp.Matched && (unit != "" || status != "") {
		if tm, ok := h.Matcher.MatchTest(name, 0, unit, status); ok {
			resp.Test = &tm
			resp.Scores = h.Matcher.Scorer().Explain(tm)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
