package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/truetone/api/internal/model"
)

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse wraps a collection response with optional metadata
type CollectionResponse struct {
	Data  interface{}       `json:"data"`
	Meta  interface{}       `json:"meta,omitempty"`
	Links map[string]string `json:"_links,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	WriteJSON(w, status, DataResponse{
		Data:  data,
		Links: links,
	})
}

// WriteCollection writes a collection response with metadata
func WriteCollection(w http.ResponseWriter, status int, data interface{}, meta interface{}, links map[string]string) {
	WriteJSON(w, status, CollectionResponse{
		Data:  data,
		Meta:  meta,
		Links: links,
	})
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// recordID accepts either a bare key or a full "table:key" id from a path
// parameter and returns the full id. Ids for other tables are rejected.
func recordID(table, raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if strings.Contains(raw, ":") {
		if !strings.HasPrefix(raw, table+":") || len(raw) == len(table)+1 {
			return "", false
		}
		return raw, true
	}
	return table + ":" + raw, true
}
