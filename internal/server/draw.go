package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/randomizedcoder/trng/internal/batch"
)

// maxBatchBody caps POST /v1/integers request bodies.
const maxBatchBody = 1 << 20

type errorBody struct {
	Category    batch.Category `json:"category"`
	Message     string         `json:"message"`
	Description string         `json:"description,omitempty"`
}

type itemResponse struct {
	Index int           `json:"index"`
	JSON  *batch.Result `json:"json,omitempty"`
	Error *errorBody    `json:"error,omitempty"`
}

// handleInteger serves GET /v1/integer?min=&max=.
func (s *Server) handleInteger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	item := batch.Item{
		Min: queryValue(q.Has("min"), q.Get("min"), s.defaults.Min),
		Max: queryValue(q.Has("max"), q.Get("max"), s.defaults.Max),
	}

	res, err := s.drawer.Draw(r.Context(), item)
	if err != nil {
		ierr := batch.Wrap(0, err)
		status := http.StatusBadGateway
		if ierr.Category == batch.CategoryInput {
			status = http.StatusBadRequest
		}
		s.logger.Warn("draw failed",
			zap.String("category", string(ierr.Category)),
			zap.Error(err),
		)
		writeJSON(w, status, toErrorBody(ierr))
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleIntegers serves POST /v1/integers with a JSON array of
// {"min":..,"max":..} items. The response holds one entry per item, in
// order; per-item failures do not fail the request.
func (s *Server) handleIntegers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBatchBody))
	dec.UseNumber()

	var items []batch.Item
	if err := dec.Decode(&items); err != nil {
		http.Error(w, "request body must be a JSON array of {min, max} items", http.StatusBadRequest)
		return
	}

	for i := range items {
		if items[i].Min == nil {
			items[i].Min = s.defaults.Min
		}
		if items[i].Max == nil {
			items[i].Max = s.defaults.Max
		}
	}

	outcomes := s.drawer.Run(r.Context(), items)

	resp := make([]itemResponse, len(outcomes))
	for i, o := range outcomes {
		resp[i] = itemResponse{Index: o.Index, JSON: o.Result}
		if o.Err != nil {
			resp[i].Error = toErrorBody(o.Err)
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// queryValue turns a query parameter into the value a JSON client would
// have sent: numeric text becomes a json.Number, anything else stays a
// string so validation rejects it as not a number.
func queryValue(present bool, raw string, def int64) any {
	if !present {
		return def
	}

	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}

func toErrorBody(e *batch.ItemError) *errorBody {
	return &errorBody{
		Category:    e.Category,
		Message:     e.Message,
		Description: e.Description,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
