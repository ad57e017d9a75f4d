package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/shared"
	tu "github.com/desertthunder/stagelog/internal/testing"
)

// harness runs the real command tree against a fake backend with an
// on-disk SQLite store, so sessions survive between invocations like they
// do between processes.
type harness struct {
	f       *tu.FakeBackend
	r       *Runner
	out     *bytes.Buffer
	cfgPath string
	dir     string
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	f := tu.NewFakeBackend(t)
	dir := t.TempDir()

	cfg := shared.DefaultConfig()
	cfg.API.BaseURL = f.URL
	cfg.API.Timeout = 5 * time.Second
	cfg.API.RequestsPerSecond = 0
	cfg.Storage.Driver = shared.DriverSQLite
	cfg.Storage.Path = filepath.Join(dir, "stagelog.db")
	cfg.Log.Level = "error"

	cfgPath := filepath.Join(dir, "config.toml")
	if err := shared.SaveConfig(cfgPath, cfg); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	out := &bytes.Buffer{}
	r := NewRunner(RunnerOpts{
		Logger: shared.NewLogger(io.Discard),
		Output: out,
		Input:  strings.NewReader(input),
	})
	r.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.Local) }
	r.openBrowser = func(string) error { return errors.New("no browser in tests") }
	return &harness{f: f, r: r, out: out, cfgPath: cfgPath, dir: dir}
}

// run executes one command line and returns its error. Output is reset first.
func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()
	h.out.Reset()
	argv := append([]string{"stagelog", "--config", h.cfgPath}, args...)
	return newApp(h.r).Run(context.Background(), argv)
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	if err := h.run(t, args...); err != nil {
		t.Fatalf("%s: unexpected error: %v", strings.Join(args, " "), err)
	}
	return h.out.String()
}

func reviewFixture(id int64) models.ReviewDetail {
	return models.ReviewDetail{
		ID:        id,
		Title:     fmt.Sprintf("Review %d", id),
		Content:   fmt.Sprintf("<p>night <em>%d</em></p>", id),
		CreatedAt: "2025-03-02T20:00:00",
	}
}

func (h *harness) login(t *testing.T) {
	t.Helper()
	h.mustRun(t, "auth", "login", "--user-id", "stagefan", "--password", "abc123!@")
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to stdout")
			}
			if runner.httpClient == nil {
				t.Error("expected default http client")
			}
			if runner.client != nil || runner.engine != nil {
				t.Error("expected client to be built lazily")
			}
		})

		t.Run("with injected input disables terminal prompts", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Input: strings.NewReader("")})
			if runner.secretFD != -1 {
				t.Errorf("expected secretFD -1, got %d", runner.secretFD)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.Contains(output.String(), "\n  \"key\": \"value\"\n") {
				t.Errorf("expected indented JSON, got %q", output.String())
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
			if err := runner.writeJSON(make(chan int), false); err == nil {
				t.Error("expected error for non-serializable data")
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
			if err := runner.writePlain("hello %s", "world"); err == nil {
				t.Error("expected error")
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "auth", "performances", "reviews", "interested", "spotify", "api", "cache", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, name := range want {
			if commands[i].Name != name {
				t.Errorf("command %d: expected %s, got %s", i, name, commands[i].Name)
			}
		}
	})

	t.Run("prompt", func(t *testing.T) {
		t.Run("reads lines in order", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: io.Discard, Input: strings.NewReader("first\r\nsecond")})
			first, err := runner.prompt("One")
			if err != nil || first != "first" {
				t.Fatalf("expected first, got %q (%v)", first, err)
			}
			second, err := runner.promptSecret("Two")
			if err != nil || second != "second" {
				t.Fatalf("expected second, got %q (%v)", second, err)
			}
			if _, err := runner.prompt("Three"); err == nil {
				t.Error("expected error at end of input")
			}
		})
	})

	t.Run("parseID", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)

		tc := []struct {
			name string
			arg  string
			want error
		}{
			{name: "not a number", arg: "abc", want: shared.ErrInvalidArgument},
			{name: "zero", arg: "0", want: shared.ErrInvalidArgument},
			{name: "negative", arg: "-4", want: shared.ErrInvalidArgument},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				err := h.run(t, "performances", "show", "--", tt.arg)
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}

		t.Run("missing", func(t *testing.T) {
			if err := h.run(t, "reviews", "delete"); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})
}

func TestExitCode(t *testing.T) {
	tc := []struct {
		name string
		err  error
		want int
	}{
		{name: "not signed in", err: fmt.Errorf("x: %w", shared.ErrNotAuthenticated), want: exitSession},
		{name: "refresh failed", err: fmt.Errorf("x: %w", shared.ErrRefreshFailed), want: exitSession},
		{name: "field errors", err: shared.FieldErrors{"title": "title is required"}, want: exitUsage},
		{name: "bad flag", err: shared.ErrInvalidFlag, want: exitUsage},
		{name: "network", err: shared.ErrNetwork, want: exitError},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCode(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestSetupCommands(t *testing.T) {
	t.Run("config writes the template once", func(t *testing.T) {
		h := newHarness(t, "")
		path := filepath.Join(h.dir, "fresh", "config.toml")

		h.out.Reset()
		err := newApp(h.r).Run(context.Background(), []string{"stagelog", "--config", path, "setup", "config"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tu.AssertFileExists(t, path)
		if !strings.Contains(h.out.String(), "Config written to") {
			t.Errorf("expected confirmation, got %q", h.out.String())
		}

		err = newApp(h.r).Run(context.Background(), []string{"stagelog", "--config", path, "setup", "config"})
		if err == nil {
			t.Error("expected error when config already exists")
		}
		err = newApp(h.r).Run(context.Background(), []string{"stagelog", "--config", path, "setup", "config", "--force"})
		if err != nil {
			t.Errorf("expected --force to overwrite, got %v", err)
		}
	})

	t.Run("database applies migrations", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "setup", "database")

		tu.AssertFileExists(t, filepath.Join(h.dir, "stagelog.db"))
		if !strings.Contains(out, "applied") {
			t.Errorf("expected migration status, got %q", out)
		}
		if strings.Contains(out, "pending") {
			t.Errorf("expected no pending migrations, got %q", out)
		}

		out = h.mustRun(t, "setup", "database", "--rollback")
		if !strings.Contains(out, "pending") {
			t.Errorf("expected the last migration to be pending, got %q", out)
		}
	})
}

func TestAuthCommands(t *testing.T) {
	t.Run("login persists across runs", func(t *testing.T) {
		h := newHarness(t, "")
		out := h.mustRun(t, "auth", "login", "--user-id", "stagefan", "--password", "abc123!@")
		if !strings.Contains(out, "Signed in as stagefan") {
			t.Errorf("expected sign-in confirmation, got %q", out)
		}

		out = h.mustRun(t, "auth", "status", "--json")
		var status authStatus
		if err := json.Unmarshal([]byte(out), &status); err != nil {
			t.Fatalf("failed to decode status: %v", err)
		}
		if !status.Authenticated || status.Nickname != "stagefan" || status.Email != "fan@stagelog.kr" {
			t.Errorf("unexpected status %+v", status)
		}
		if status.Cookies == 0 {
			t.Error("expected the refresh cookie to be persisted")
		}
	})

	t.Run("login prompts for missing credentials", func(t *testing.T) {
		h := newHarness(t, "stagefan\nabc123!@\n")
		out := h.mustRun(t, "auth", "login")
		if !strings.Contains(out, "User ID: ") || !strings.Contains(out, "Password: ") {
			t.Errorf("expected prompts, got %q", out)
		}
		if !strings.Contains(out, "Signed in as stagefan") {
			t.Errorf("expected sign-in confirmation, got %q", out)
		}
	})

	t.Run("login rejects malformed input before any request", func(t *testing.T) {
		h := newHarness(t, "\n\n")
		err := h.run(t, "auth", "login")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if n := h.f.Count(http.MethodPost, "/api/auth/login"); n != 0 {
			t.Errorf("expected no login request, got %d", n)
		}
	})

	t.Run("wrong password is an auth error", func(t *testing.T) {
		h := newHarness(t, "")
		err := h.run(t, "auth", "login", "--user-id", "stagefan", "--password", "wrong123!@")
		if err == nil {
			t.Fatal("expected error")
		}
		if h.r.client != nil && h.r.client.Store().Authenticated() {
			t.Error("expected no session")
		}
	})

	t.Run("signup and login", func(t *testing.T) {
		h := newHarness(t, "newfan\nNewFan\nnew@stagelog.kr\nsecret1!\nsecret1!\n")
		out := h.mustRun(t, "auth", "signup")
		if !strings.Contains(out, "Account created, signed in as") {
			t.Errorf("expected signup confirmation, got %q", out)
		}
		if n := h.f.Count(http.MethodPost, "/api/auth/signup"); n != 1 {
			t.Errorf("expected one signup request, got %d", n)
		}
	})

	t.Run("logout clears the session", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)

		if out := h.mustRun(t, "auth", "logout"); !strings.Contains(out, "Signed out") {
			t.Errorf("expected sign-out confirmation, got %q", out)
		}
		if out := h.mustRun(t, "auth", "status"); !strings.Contains(out, "Not signed in") {
			t.Errorf("expected no session, got %q", out)
		}
	})

	t.Run("refresh rotates the token", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)

		if out := h.mustRun(t, "auth", "refresh"); !strings.Contains(out, "Token refreshed") {
			t.Errorf("expected refresh confirmation, got %q", out)
		}
		h.mustRun(t, "performances", "list")
		if n := h.f.Count(http.MethodPost, "/api/auth/refresh"); n != 1 {
			t.Errorf("expected one refresh, got %d", n)
		}
	})

	t.Run("check-userid", func(t *testing.T) {
		h := newHarness(t, "")
		if out := h.mustRun(t, "auth", "check-userid", "stagefan"); !strings.Contains(out, "already taken") {
			t.Errorf("expected taken, got %q", out)
		}
		if out := h.mustRun(t, "auth", "check-userid", "someone_new"); !strings.Contains(out, "is available") {
			t.Errorf("expected available, got %q", out)
		}
	})
}

func TestSessionHandling(t *testing.T) {
	t.Run("commands require a session", func(t *testing.T) {
		h := newHarness(t, "")
		err := h.run(t, "performances", "list")
		if !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Fatalf("expected ErrNotAuthenticated, got %v", err)
		}
		if exitCode(err) != exitSession {
			t.Errorf("expected exit code %d, got %d", exitSession, exitCode(err))
		}
		if n := len(h.f.Requests()); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("expired token is refreshed transparently", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)
		h.f.SetAccessToken("T2")

		out := h.mustRun(t, "performances", "show", "1")
		if !strings.Contains(out, "Performance 1") {
			t.Errorf("expected detail, got %q", out)
		}
		if n := h.f.Count(http.MethodPost, "/api/auth/refresh"); n != 1 {
			t.Errorf("expected one refresh, got %d", n)
		}
	})

	t.Run("failed refresh signs out", func(t *testing.T) {
		h := newHarness(t, "")
		h.login(t)
		h.f.SetAccessToken("rotated-elsewhere")
		h.f.FailRefresh(http.StatusUnauthorized)

		err := h.run(t, "performances", "list")
		if !errors.Is(err, shared.ErrRefreshFailed) {
			t.Fatalf("expected ErrRefreshFailed, got %v", err)
		}
		if out := h.mustRun(t, "auth", "status"); !strings.Contains(out, "Not signed in") {
			t.Errorf("expected the stored session to be cleared, got %q", out)
		}
	})
}

func TestPerformanceCommands(t *testing.T) {
	h := newHarness(t, "")
	h.login(t)

	t.Run("list", func(t *testing.T) {
		out := h.mustRun(t, "performances", "list")
		if !strings.Contains(out, "Performance 1") || strings.Contains(out, "Performance 7") {
			t.Errorf("expected the first six performances, got %q", out)
		}
		if !strings.Contains(out, "Page 1 of 2 (8 performances)") {
			t.Errorf("expected page footer, got %q", out)
		}
		if !strings.Contains(out, "--page 2") {
			t.Errorf("expected next page hint, got %q", out)
		}

		out = h.mustRun(t, "performances", "list", "--page", "2")
		if !strings.Contains(out, "Performance 8") || strings.Contains(out, "--page 3") {
			t.Errorf("unexpected second page %q", out)
		}
	})

	t.Run("list flags", func(t *testing.T) {
		tc := []struct {
			name string
			args []string
		}{
			{name: "both kinds", args: []string{"--festival", "--concert"}},
			{name: "bad sort", args: []string{"--sort", "venue"}},
			{name: "page zero", args: []string{"--page", "0"}},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				err := h.run(t, append([]string{"performances", "list"}, tt.args...)...)
				if !errors.Is(err, shared.ErrInvalidFlag) {
					t.Errorf("expected ErrInvalidFlag, got %v", err)
				}
			})
		}
	})

	t.Run("list json", func(t *testing.T) {
		out := h.mustRun(t, "performances", "list", "--size", "3", "--json")
		var page struct {
			Content    []json.RawMessage `json:"content"`
			TotalPages int               `json:"totalPages"`
		}
		if err := json.Unmarshal([]byte(out), &page); err != nil {
			t.Fatalf("failed to decode: %v", err)
		}
		if len(page.Content) != 3 || page.TotalPages != 3 {
			t.Errorf("unexpected page %+v", page)
		}
	})

	t.Run("show not found", func(t *testing.T) {
		if err := h.run(t, "performances", "show", "99"); err == nil {
			t.Error("expected error for missing performance")
		}
	})

	t.Run("calendar", func(t *testing.T) {
		out := h.mustRun(t, "performances", "calendar", "--year", "2025", "--month", "3")
		if !strings.Contains(out, "2025.03") || !strings.Contains(out, "Performance 8") {
			t.Errorf("unexpected calendar %q", out)
		}
		if err := h.run(t, "performances", "calendar", "--month", "13"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("show --cache then offline", func(t *testing.T) {
		h.mustRun(t, "performances", "show", "3", "--cache")

		out := h.mustRun(t, "performances", "show", "3", "--offline")
		if !strings.Contains(out, "Performance 3") || !strings.Contains(out, "Olympic Hall") {
			t.Errorf("expected cached detail, got %q", out)
		}

		before := len(h.f.Requests())
		h.mustRun(t, "cache", "show", "3")
		if after := len(h.f.Requests()); after != before {
			t.Errorf("expected no requests for cache show, got %d", after-before)
		}
		if out := h.mustRun(t, "cache", "clear"); !strings.Contains(out, "Removed 1") {
			t.Errorf("expected one removal, got %q", out)
		}
		if err := h.run(t, "performances", "show", "3", "--offline"); !errors.Is(err, shared.ErrPerformanceNotFound) {
			t.Errorf("expected ErrPerformanceNotFound, got %v", err)
		}
	})
}

func TestReviewCommands(t *testing.T) {
	h := newHarness(t, "")
	h.login(t)

	t.Run("create validates before sending", func(t *testing.T) {
		err := h.run(t, "reviews", "create", "--content", "<p>x</p>")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
		if n := h.f.Count(http.MethodPost, "/api/reviews"); n != 0 {
			t.Errorf("expected no create request, got %d", n)
		}
	})

	t.Run("create, edit, show and delete", func(t *testing.T) {
		content := filepath.Join(t.TempDir(), "body.html")
		if err := os.WriteFile(content, []byte("<p>The <strong>encore</strong> was loud.</p>"), 0o644); err != nil {
			t.Fatal(err)
		}

		out := h.mustRun(t, "reviews", "create",
			"--title", "Spring night",
			"--content-file", content,
			"--playlist-title", "Setlist",
			"--track", "ditto",
			"--track", "hype",
		)
		if !strings.Contains(out, "with 2 track(s)") {
			t.Fatalf("unexpected output %q", out)
		}

		list := h.mustRun(t, "reviews", "list", "--json")
		var items []struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal([]byte(list), &items); err != nil || len(items) != 1 {
			t.Fatalf("expected one review, got %q (%v)", list, err)
		}
		id := items[0].ID

		review, ok := h.f.Review(id)
		if !ok {
			t.Fatalf("review %d not stored", id)
		}
		if review.Content != "<p>The <strong>encore</strong> was loud.</p>" {
			t.Errorf("expected HTML content verbatim, got %q", review.Content)
		}
		if len(review.Tracks) != 2 || review.Tracks[0].SpotifyID != "sp2" || review.PlaylistTitle != "Setlist" {
			t.Errorf("unexpected playlist %+v", review.Tracks)
		}

		sid := fmt.Sprint(id)
		h.mustRun(t, "reviews", "edit", sid, "--title", "Spring night (encore)", "--remove-track", "1")
		review, _ = h.f.Review(id)
		if review.Title != "Spring night (encore)" || len(review.Tracks) != 1 || review.Tracks[0].SpotifyID != "sp1" {
			t.Errorf("unexpected edited review %+v", review)
		}
		if review.Content != "<p>The <strong>encore</strong> was loud.</p>" {
			t.Errorf("expected untouched content, got %q", review.Content)
		}

		h.mustRun(t, "reviews", "edit", sid, "--clear-tracks")
		review, _ = h.f.Review(id)
		if len(review.Tracks) != 0 || review.PlaylistTitle != "" {
			t.Errorf("expected empty playlist, got %+v", review)
		}

		out = h.mustRun(t, "reviews", "show", sid)
		if !strings.Contains(out, "# Spring night (encore)") || !strings.Contains(out, "**encore**") {
			t.Errorf("expected markdown, got %q", out)
		}
		out = h.mustRun(t, "reviews", "show", sid, "--html")
		if !strings.Contains(out, "<strong>encore</strong>") {
			t.Errorf("expected raw HTML, got %q", out)
		}

		h.mustRun(t, "reviews", "delete", sid)
		if _, ok := h.f.Review(id); ok {
			t.Error("expected review to be deleted")
		}
	})

	t.Run("unknown track", func(t *testing.T) {
		err := h.run(t, "reviews", "create", "--title", "t", "--content", "<p>x</p>", "--track", "no such song")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("export", func(t *testing.T) {
		for i := int64(1); i <= 3; i++ {
			h.f.AddReview(reviewFixture(i))
		}
		dir := filepath.Join(t.TempDir(), "out")

		out := h.mustRun(t, "reviews", "export", "--format", "yaml", "--output", dir, "--workers", "2")
		if !strings.Contains(out, "Exported 3 of 3 review(s) as yaml") {
			t.Errorf("unexpected output %q", out)
		}
		for i := 1; i <= 3; i++ {
			tu.AssertFileExists(t, filepath.Join(dir, fmt.Sprintf("review_%d.yaml", i)))
		}
		tu.AssertFileExists(t, filepath.Join(dir, "export_manifest.json"))

		if err := h.run(t, "reviews", "export", "--format", "pdf"); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestInterestedAndCacheCommands(t *testing.T) {
	h := newHarness(t, "")
	h.login(t)

	h.mustRun(t, "interested", "add", "2")
	h.mustRun(t, "interested", "add", "5")

	out := h.mustRun(t, "interested", "list")
	if !strings.Contains(out, "Performance 2") || !strings.Contains(out, "D-1") {
		t.Errorf("unexpected list %q", out)
	}

	out = h.mustRun(t, "cache", "sync", "--workers", "2", "--rate-limit", "50")
	if !strings.Contains(out, "Cached 2 of 2 performance(s)") {
		t.Errorf("unexpected sync output %q", out)
	}
	out = h.mustRun(t, "cache", "list")
	if !strings.Contains(out, "Performance 2") || !strings.Contains(out, "Performance 5") {
		t.Errorf("unexpected cache list %q", out)
	}

	h.mustRun(t, "interested", "remove", "2")
	out = h.mustRun(t, "interested", "list", "--json")
	if strings.Contains(out, "Performance 2") {
		t.Errorf("expected performance 2 to be removed, got %q", out)
	}

	if err := h.run(t, "interested", "remove", "2"); err == nil {
		t.Error("expected error removing twice")
	}
}

func TestSpotifyAndAPICommands(t *testing.T) {
	h := newHarness(t, "")
	h.login(t)

	out := h.mustRun(t, "spotify", "search", "hype")
	if !strings.Contains(out, "NewJeans - Hype Boy") || !strings.Contains(out, "sp1") {
		t.Errorf("unexpected search output %q", out)
	}
	if err := h.run(t, "spotify", "search"); !errors.Is(err, shared.ErrMissingArgument) {
		t.Errorf("expected ErrMissingArgument, got %v", err)
	}

	out = h.mustRun(t, "api", "get", "/api/performances/4", "--json")
	if !strings.Contains(out, `"title":"Performance 4"`) {
		t.Errorf("expected compact JSON, got %q", out)
	}

	out = h.mustRun(t, "api", "post", "/api/interested-performances", "--data", `{"performanceId":6}`)
	if !strings.Contains(out, `"id"`) {
		t.Errorf("expected created id, got %q", out)
	}
	if err := h.run(t, "api", "post", "/api/interested-performances", "--data", "{oops"); !errors.Is(err, shared.ErrInvalidFlag) {
		t.Errorf("expected ErrInvalidFlag, got %v", err)
	}
}
