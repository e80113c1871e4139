package web

import (
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/sipico/cf-usage-dashboard/internal/config"
	"github.com/sipico/cf-usage-dashboard/internal/metrics"
)

const authCookieName = "auth"

// authCookieMaxAge keeps the login cookie valid for 30 days.
const authCookieMaxAge = 30 * 24 * 60 * 60

// checkPassword validates a submitted or cookie-borne password. When a
// bcrypt hash is configured it takes precedence; otherwise the plain
// shared secret is compared in constant time. An unconfigured password
// rejects everything.
func (h *Handler) checkPassword(r *http.Request, candidate string) bool {
	if candidate == "" {
		return false
	}

	if hash := h.resolver.Resolve(r.Context(), config.KeyWebPasswordHash, ""); hash != "" {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
	}

	expected := h.resolver.Resolve(r.Context(), config.KeyWebPassword, "")
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(expected)) == 1
}

// isAuthenticated grants access on a valid auth cookie or a whitelisted
// client IP.
func (h *Handler) isAuthenticated(r *http.Request) bool {
	if cookie, err := r.Cookie(authCookieName); err == nil && h.checkPassword(r, cookie.Value) {
		return true
	}

	ip := clientIP(r)
	if ip == "" {
		return false
	}
	ok, err := h.storage.IsWhitelisted(r.Context(), ip)
	if err != nil {
		h.logger.Warn("whitelist lookup failed", "ip", ip, "error", err)
		return false
	}
	return ok
}

// HandleLogin processes dashboard login.
// POST /login
// Form data: password=<value>
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	password := r.FormValue("password")
	if !h.checkPassword(r, password) {
		metrics.RecordAuthFailure("invalid_password")
		h.logger.Warn("failed login attempt", "ip", clientIP(r))
		http.Error(w, "Invalid password", http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    password,
		Path:     "/",
		MaxAge:   authCookieMaxAge,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	h.recordAccess(r, "login")
	h.logger.Info("login successful", "ip", clientIP(r))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// clientIP extracts the originating client address, honoring the usual
// proxy headers before falling back to the socket peer.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		return strings.TrimSpace(first)
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return strings.TrimSpace(real)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// clientLocation reads the edge-provided country tag, if any.
func clientLocation(r *http.Request) string {
	return r.Header.Get("CF-IPCountry")
}
