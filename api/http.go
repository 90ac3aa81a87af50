package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// maxBodyBytes bounds the request body read by ServeHTTP.
const maxBodyBytes = 10 << 20

var _ http.Handler = (*Handler)(nil)

// ServeHTTP adapts Handle to net/http. Header names are lower-cased and
// the first value of each header is used.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, MessageBody{Message: msgInvalidBody})
		return
	}

	headers := make(map[string]string, len(r.Header))
	for name, values := range r.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}

	resp, err := h.Handle(r.Context(), Request{Method: r.Method, Headers: headers, Body: body})
	if err != nil {
		h.logger.Error("endpoint request failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, resp.Status, resp.Body)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}
