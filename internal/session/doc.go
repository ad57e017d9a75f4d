// Package session holds the signed-in identity of the stagelog client.
//
// A [Store] is the single source of truth for the access token and user info.
// It keeps both in memory for lock-light reads and mirrors them into a
// [Backend] so a restarted process resumes the session without a network
// round trip. The token's validity is never checked here: the next API call
// finds out.
//
// The refresh token is an HttpOnly cookie owned by the server. [Jar] keeps it
// (and any other cookie) across runs without application code ever reading it.
package session
