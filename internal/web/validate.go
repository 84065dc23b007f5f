package web

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"user-registry/internal/validation"
)

type fieldCheckRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

// handleValidate answers the browser script's per-keystroke checks.
// Email uniqueness is not checked here so the endpoint cannot be used to
// probe which addresses are registered.
func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req fieldCheckRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid form body"})
			return
		}
		req.Field = r.PostForm.Get("field")
		req.Value = r.PostForm.Get("value")
	}

	check, err := h.users.CheckField(req.Field, req.Value)
	if err != nil {
		if errors.Is(err, validation.ErrUnknownField) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.serverError(w, r, "check field", err)
		return
	}
	writeJSON(w, http.StatusOK, check)
}
