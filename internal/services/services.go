// package services implements the Stagelog API client
package services

import (
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/stagelog/internal/session"
	"github.com/desertthunder/stagelog/internal/shared"
)

// ClientOpts configures [NewClient].
type ClientOpts struct {
	Config     shared.APIConfig
	Store      *session.Store
	Jar        *session.Jar
	HTTPClient *http.Client
	Logger     *log.Logger
	SignOut    SignOutFunc
	Refresh    RefreshFunc
}

// Client bundles every API service over one shared [Dispatcher], so the
// whole process has a single refresh coordinator.
type Client struct {
	Dispatcher   *Dispatcher
	Auth         *AuthService
	Performances *PerformanceService
	Reviews      *ReviewService
	Interested   *InterestedService
	Spotify      *SpotifyService
	API          *APIService
}

func NewClient(opts ClientOpts) *Client {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}

	dopts := DispatcherOpts{
		BaseURL:           opts.Config.BaseURL,
		Timeout:           opts.Config.Timeout,
		RequestsPerSecond: opts.Config.RequestsPerSecond,
		HTTPClient:        opts.HTTPClient,
		Store:             opts.Store,
		Logger:            opts.Logger,
		SignOut:           opts.SignOut,
		Refresh:           opts.Refresh,
	}
	if opts.Jar != nil {
		dopts.Jar = opts.Jar
	}
	d := NewDispatcher(dopts)

	return &Client{
		Dispatcher:   d,
		Auth:         NewAuthService(d, opts.Jar, opts.Logger),
		Performances: NewPerformanceService(d),
		Reviews:      NewReviewService(d),
		Interested:   NewInterestedService(d),
		Spotify:      NewSpotifyService(d),
		API:          NewAPIService(d),
	}
}

// Store is the session store shared by all services.
func (c *Client) Store() *session.Store { return c.Dispatcher.Store() }
