// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/stagelog/internal/shared"
)

// newApp builds the root command around r.
func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "stagelog",
		Usage:   "Browse performances and keep concert reviews from the terminal",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   shared.DefaultConfigPath(),
				Sources: cli.EnvVars("STAGELOG_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Before:   r.Before,
		After:    r.After,
		Commands: r.register(),
	}
}

// setupCommand handles first-run configuration and storage initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file from the built-in template",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "Overwrite an existing config file"},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize storage and run migrations",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "rollback", Usage: "Revert the most recent migration instead"},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand handles sign-in and session management
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage your Stagelog session",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in with user ID and password",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Aliases: []string{"u"}, Usage: "User ID (prompted when omitted)"},
					&cli.StringFlag{Name: "password", Usage: "Password (prompted when omitted)", Sources: cli.EnvVars("STAGELOG_PASSWORD")},
				},
				Action: r.AuthLogin,
			},
			{
				Name:  "signup",
				Usage: "Create an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Aliases: []string{"u"}, Usage: "User ID (2-20 letters, digits or underscores)"},
					&cli.StringFlag{Name: "nickname", Aliases: []string{"n"}, Usage: "Display name"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Email address"},
					&cli.BoolFlag{Name: "login", Usage: "Sign in after the account is created", Value: true},
				},
				Action: r.AuthSignup,
			},
			{
				Name:   "logout",
				Usage:  "Sign out and forget the stored session",
				Action: r.AuthLogout,
			},
			{
				Name:  "oauth",
				Usage: "Sign in through a social provider in the browser",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "provider", Aliases: []string{"p"}, Usage: "OAuth2 provider (kakao, naver, google)"},
					&cli.BoolFlag{Name: "no-browser", Usage: "Print the login URL instead of opening a browser"},
				},
				Action: r.AuthOAuth,
			},
			{
				Name:  "status",
				Usage: "Show the signed-in user and access token claims",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.AuthStatus,
			},
			{
				Name:   "refresh",
				Usage:  "Exchange the refresh cookie for a new access token",
				Action: r.AuthRefresh,
			},
			{
				Name:      "check-userid",
				Usage:     "Check whether a user ID is available",
				Arguments: []cli.Argument{&cli.StringArg{Name: "user-id"}},
				Action:    r.AuthCheckUserID,
			},
		},
	}
}

// performancesCommand handles the performance catalogue
func performancesCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "performances",
		Aliases: []string{"perf", "p"},
		Usage:   "Browse performances",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List performances page by page",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "page", Usage: "Page number, starting at 1", Value: 1},
					&cli.IntFlag{Name: "size", Usage: "Performances per page", Value: 6},
					&cli.StringFlag{Name: "sort", Usage: "Sort by startDate, endDate or title", Value: "startDate"},
					&cli.StringFlag{Name: "keyword", Aliases: []string{"k"}, Usage: "Search by title"},
					&cli.BoolFlag{Name: "festival", Usage: "Only festivals"},
					&cli.BoolFlag{Name: "concert", Usage: "Only concerts"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PerformancesList,
			},
			{
				Name:      "show",
				Usage:     "Show one performance",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "offline", Usage: "Read from the local cache instead of the API"},
					&cli.BoolFlag{Name: "cache", Usage: "Store the fetched detail in the local cache"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PerformancesShow,
			},
			{
				Name:  "calendar",
				Usage: "List performances in a month",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "year", Usage: "Year (default: current)"},
					&cli.IntFlag{Name: "month", Usage: "Month 1-12 (default: current)"},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.PerformancesCalendar,
			},
		},
	}
}

// reviewsCommand handles the signed-in user's reviews
func reviewsCommand(r *Runner) *cli.Command {
	contentFlags := []cli.Flag{
		&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Review title"},
		&cli.StringFlag{Name: "content", Usage: "Review body as HTML"},
		&cli.StringFlag{Name: "content-file", Aliases: []string{"f"}, Usage: "Read the HTML body from a file"},
		&cli.StringFlag{Name: "playlist-title", Usage: "Playlist title"},
		&cli.StringSliceFlag{Name: "track", Usage: "Add the first Spotify match for a search (repeatable)"},
	}

	return &cli.Command{
		Name:    "reviews",
		Aliases: []string{"review", "r"},
		Usage:   "Write and manage your reviews",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List your reviews",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.ReviewsList,
			},
			{
				Name:      "show",
				Usage:     "Show one review",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
					&cli.BoolFlag{Name: "html", Usage: "Print the stored HTML instead of Markdown"},
				},
				Action: r.ReviewsShow,
			},
			{
				Name:   "create",
				Usage:  "Write a new review",
				Flags:  contentFlags,
				Action: r.ReviewsCreate,
			},
			{
				Name:      "edit",
				Usage:     "Edit a review",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Flags: append(append([]cli.Flag{}, contentFlags...),
					&cli.IntSliceFlag{Name: "remove-track", Usage: "Remove the track at position (1-based, repeatable)"},
					&cli.BoolFlag{Name: "clear-tracks", Usage: "Remove every track before adding new ones"},
				),
				Action: r.ReviewsEdit,
			},
			{
				Name:      "delete",
				Usage:     "Delete a review",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.ReviewsDelete,
			},
			{
				Name:  "export",
				Usage: "Export every review to files",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "format", Usage: "Export format: json, yaml, markdown or csv"},
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "Output directory"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent downloads"},
					&cli.FloatFlag{Name: "rate-limit", Usage: "Requests per second"},
				},
				Action: r.ReviewsExport,
			},
		},
	}
}

// interestedCommand handles bookmarked performances
func interestedCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "interested",
		Aliases: []string{"i"},
		Usage:   "Manage interested performances",
		Commands: []*cli.Command{
			{
				Name:      "add",
				Usage:     "Mark a performance as interested",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.InterestedAdd,
			},
			{
				Name:  "list",
				Usage: "List interested performances",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.InterestedList,
			},
			{
				Name:      "remove",
				Usage:     "Unmark a performance",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.InterestedRemove,
			},
		},
	}
}

// spotifyCommand handles track search for review playlists
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Search Spotify tracks for review playlists",
		Commands: []*cli.Command{
			{
				Name:      "search",
				Usage:     "Search tracks",
				Arguments: []cli.Argument{&cli.StringArg{Name: "keyword"}},
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Usage: "Maximum number of tracks", Value: 10},
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.SpotifySearch,
			},
		},
	}
}

// apiCommand handles raw API calls
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Raw authenticated API calls for debugging",
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "GET a path and print the response",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output compact JSON"},
				},
				Action: r.APIGet,
			},
			{
				Name:      "post",
				Usage:     "POST a JSON body to a path",
				Arguments: []cli.Argument{&cli.StringArg{Name: "path"}},
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "data", Aliases: []string{"d"}, Usage: "JSON body to send", Required: true},
				},
				Action: r.APIPost,
			},
		},
	}
}

// cacheCommand handles the offline performance cache
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Offline cache of interested performances",
		Commands: []*cli.Command{
			{
				Name:  "sync",
				Usage: "Download every interested performance into the cache",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "workers", Usage: "Concurrent downloads"},
					&cli.FloatFlag{Name: "rate-limit", Usage: "Requests per second"},
				},
				Action: r.CacheSync,
			},
			{
				Name:  "list",
				Usage: "List cached performances",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Output raw JSON"},
				},
				Action: r.CacheList,
			},
			{
				Name:      "show",
				Usage:     "Show a cached performance",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
				Action:    r.CacheShow,
			},
			{
				Name:   "clear",
				Usage:  "Remove every cached performance",
				Action: r.CacheClear,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive browsing.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive performance browser",
		Action:  r.TUI,
	}
}
