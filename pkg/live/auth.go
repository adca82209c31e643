package live

import (
	"net/http"
	"strings"

	"github.com/gopass/dashboard/pkg/session"
)

// Authorizer decides whether the request may open a live socket
type Authorizer func(r *http.Request) error

// requestToken reads the bearer token of a socket request. Browsers cannot set headers on a
// websocket handshake so the token query parameter is accepted too.
func requestToken(r *http.Request) string {
	if token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); found {
		return token
	}

	return r.URL.Query().Get("token")
}

// SessionAuthorizer lets through callers holding the access token of the operator session
func SessionAuthorizer(operatorSession *session.Session) Authorizer {
	return func(r *http.Request) error {
		return operatorSession.Authorize(requestToken(r))
	}
}

// originChecker accepts the listed origins. Without any, gorilla's same origin check applies.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	if len(allowedOrigins) == 0 {
		return nil
	}

	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(strings.ToLower(origin), "/")] = struct{}{}
	}

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}

		_, ok := allowed[strings.ToLower(origin)]
		return ok
	}
}
