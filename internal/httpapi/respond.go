package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"memento/internal/apperr"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// errorBody is the JSON shape every error response shares.
type errorBody struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// writeError unwraps err to an AppError (if any) and writes the matching
// status and body, logging internal-type errors at error level and
// everything else at debug/info since they are expected client mistakes.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		logger.Error("unhandled error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: string(apperr.TypeInternal), Message: "internal error"})
		return
	}
	if ae.Type == apperr.TypeInternal || ae.Type == apperr.TypeIntegrity {
		logger.Error("request failed", zap.String("type", string(ae.Type)), zap.Error(ae))
	}
	writeJSON(w, ae.HTTPStatus, errorBody{Error: string(ae.Type), Message: ae.Message, Details: ae.Details})
}

// agentText writes the agent-facing envelope {content:[{type:"text", text}]}.
// The recall, skip-check, consolidation and context handlers write it by
// default and switch to writeJSON with the structured payload when the
// request carries format=json; the other handlers always call writeJSON.
func agentText(w http.ResponseWriter, text string) {
	writeJSON(w, http.StatusOK, map[string]any{
		"content": []map[string]string{{"type": "text", "text": text}},
	})
}

// wantsJSON reports whether the caller asked for the structured JSON shape
// via ?format=json, instead of the default agent-facing text envelope.
func wantsJSON(r *http.Request) bool {
	return r.URL.Query().Get("format") == "json"
}
