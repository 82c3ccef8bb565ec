package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/09junaid/full-ecommerce/internal/logger"

	"go.uber.org/zap"
)

// envelope is the response shape every endpoint writes: success, an optional
// message, and one payload field named per endpoint.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.L().Error("failed to encode response", zap.Error(err))
	}
}

func ok(w http.ResponseWriter, status int, payload envelope) {
	if payload == nil {
		payload = envelope{}
	}
	payload["success"] = true
	writeJSON(w, status, payload)
}

func fail(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

func decode(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
