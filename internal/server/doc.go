// Package server provides the small local HTTP surface stagelog needs: a
// router with middleware and the OAuth2 callback listener.
//
// # Router Infrastructure
//
// [BasicRouter] wraps [http.ServeMux] and registers routes as method
// patterns. [Middleware] wraps handlers in reverse order (last added
// executes first).
//
// # OAuth Callback Handler
//
// The backend finishes a social login by redirecting the browser to
// /oauth2/callback, optionally with ?error=. The refresh cookie it set is
// scoped to /api/auth/refresh on the backend host, so [OAuthCallbackHandler]
// answers the callback with a bridge page that POSTs to the listener's own
// /api/auth/refresh. The browser attaches the cookie there, the handler copies
// it into the CLI's jar and completes the login by refreshing.
//
// Only the first callback is processed; the result is delivered once on
// [OAuthCallbackHandler.Result].
package server
