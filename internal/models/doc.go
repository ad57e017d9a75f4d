// Package models defines the wire types exchanged with the Stagelog API and the
// entities stagelog keeps locally.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): JSON shapes of the REST API
//   - [TokenResponse], [LoginRequest], [SignupRequest] : auth endpoints
//   - [PerformanceListItem], [PerformanceDetail], [CalendarPerformance] : performance catalogue
//   - [ReviewListItem], [ReviewDetail], [ReviewRequest], [Track] : reviews and their playlists
//   - [InterestedPerformanceItem] : performances a user has bookmarked
//   - [SpotifyTrack] : proxied Spotify search results
//   - [Page] : the backend's paged list envelope
//   - [ErrorResponse] : the backend's error body
//
// 2. Persistent Entities: rows in the local SQLite store
//   - [CachedPerformance] : a performance detail kept for offline display
//
// Review content is HTML produced by a rich-text editor. It is carried as an
// opaque string and never parsed or rewritten on the way to or from the API.
package models
