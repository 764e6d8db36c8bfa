package httpapi

import (
	"encoding/json"
	"net/http"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondWithError logs the underlying cause (if any) and writes a
// standardized JSON error body.
func (s *Server) respondWithError(w http.ResponseWriter, code int, msg string, err error) {
	if err != nil {
		s.Logger.Error(msg, "error", err)
	}
	s.respondWithJSON(w, code, errorResponse{Error: msg})
}

// respondWithJSON marshals payload, sets the content-type header, and
// writes the status code and body.
func (s *Server) respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	data, err := json.Marshal(payload)
	if err != nil {
		s.Logger.Error("error marshalling JSON", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(code)
	if _, err := w.Write(data); err != nil {
		s.Logger.Error("error writing response", "error", err)
	}
}
