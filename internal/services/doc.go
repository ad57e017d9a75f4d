// Package services is the Stagelog REST API client.
//
// # Dispatcher
//
// Every request goes through [Dispatcher.Send]. It attaches
// "Authorization: Bearer <token>" when the [session.Store] has a token and
// omits the header otherwise, applies a fixed timeout, and sends cookies from
// a persistent jar so the refresh cookie reaches /api/auth/refresh.
//
// Results are either a [Response] or one of:
//   - [*APIError] : the server answered with a non-2xx status
//   - [*NetworkError] : no response (transport failure, timeout, cancellation)
//
// # Token refresh
//
// A 401 on a request of [KindStandard] is handed to the [RefreshCoordinator]
// before the caller sees it. The coordinator is either Idle or Refreshing:
//   - Idle: the caller flips it to Refreshing and performs the one refresh call
//   - Refreshing: the caller waits for that refresh to settle
//
// On success every caller re-sends its own request once with the new token.
// On failure the session is cleared, the [SignOutFunc] is told to go to
// [SignInEntry], and every caller gets an error wrapping
// [shared.ErrRefreshFailed]. A request that gets 401 again after its retry
// fails with [shared.ErrSessionRejected] and is never retried twice.
//
// Login, signup and refresh are tagged with their [Kind] and never trigger a
// refresh.
//
// Explicit refreshes ([AuthService.Refresh], OAuth2 completion) go through
// [RefreshCoordinator.Refresh] and join a refresh already in flight.
//
// # Services
//
// [AuthService], [PerformanceService], [ReviewService], [InterestedService],
// [SpotifyService] and the raw [APIService] are thin wrappers that build
// [Request] values and decode [models] types. [NewClient] wires them over one
// dispatcher.
package services
