package handlers

import (
	"net/http"

	"echelon-backend/internal/middleware"
)

// Me returns the verified principal of the request.
func Me(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Not signed in", r))
		return
	}
	writeJSON(w, http.StatusOK, principal)
}
