// internal/handlers/guest.go
package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/lastletter/lastletter/internal/auth"
)

const authCookieName = "auth_token"

// EnsureGuestToken resolves the caller's guest identity from the auth_token
// cookie, minting a fresh identity and setting the cookie when the token is
// missing or no longer verifies. Must run before the WebSocket upgrade so the
// Set-Cookie header rides on the handshake response.
func EnsureGuestToken(w http.ResponseWriter, r *http.Request) (string, error) {
	cookieHeader := r.Header.Get("Cookie")
	if strings.Contains(cookieHeader, authCookieName+"=") {
		token := extractCookieToken(cookieHeader, authCookieName)
		if guestID, err := auth.AuthenticateGuestToken(token); err == nil {
			return guestID, nil
		}
		// fall through and replace the bad token
	}

	guestID := uuid.NewString()
	token, err := auth.CreateGuestToken(guestID)
	if err != nil {
		return "", fmt.Errorf("failed to create guest token: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
	})
	return guestID, nil
}
