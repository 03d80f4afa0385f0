package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// requireAdmin gates operator endpoints behind the configured key header.
// This is a deliberate hard-coded credential check, not an account system.
func (s *HTTPServer) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.Admin.Key == "" {
			writeError(w, http.StatusForbidden, "admin access is not configured")
			return
		}

		header := strings.TrimSpace(s.cfg.Admin.Header)
		if header == "" {
			header = "x-admin-key"
		}

		key := strings.TrimSpace(r.Header.Get(header))
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(s.cfg.Admin.Key)) != 1 {
			writeError(w, http.StatusUnauthorized, "invalid admin key")
			return
		}

		next(w, r)
	}
}
