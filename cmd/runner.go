package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/desertthunder/stagelog/internal/repositories"
	"github.com/desertthunder/stagelog/internal/services"
	"github.com/desertthunder/stagelog/internal/session"
	"github.com/desertthunder/stagelog/internal/shared"
	"github.com/desertthunder/stagelog/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config      *shared.Config
	configPath  string
	httpClient  *http.Client
	logger      *log.Logger
	output      io.Writer
	input       *bufio.Reader
	secretFD    int
	stores      *repositories.Stores
	jar         *session.Jar
	client      *services.Client
	engine      *tasks.Engine
	openBrowser func(string) error
	now         func() time.Time
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Client and Stores are normally built on first use from Config; tests
// inject them.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Stores     *repositories.Stores
	Jar        *session.Jar
	Client     *services.Client
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	secretFD := -1
	if opts.Input == nil {
		opts.Input = os.Stdin
		secretFD = int(os.Stdin.Fd())
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}

	r := &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		httpClient:  opts.HTTPClient,
		logger:      opts.Logger,
		output:      opts.Output,
		input:       bufio.NewReader(opts.Input),
		secretFD:    secretFD,
		stores:      opts.Stores,
		jar:         opts.Jar,
		client:      opts.Client,
		openBrowser: shared.OpenBrowser,
		now:         time.Now,
	}
	if r.client != nil {
		var cache repositories.PerformanceCache
		if r.stores != nil {
			cache = r.stores.Performances
		}
		r.engine = tasks.NewEngine(r.client, cache, r.logger)
	}
	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, performancesCommand, reviewsCommand, interestedCommand,
		spotifyCommand, apiCommand, cacheCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and applies the log level.
// A missing file falls back to the embedded defaults.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	r.configPath = cmd.String("config")

	config, err := shared.LoadConfig(r.configPath)
	switch {
	case errors.Is(err, shared.ErrMissingConfig):
		r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		config = shared.DefaultConfig()
	case err != nil:
		return ctx, err
	}
	if err := config.Validate(); err != nil {
		return ctx, err
	}
	r.config = config

	level, err := shared.ParseLogLevel(config.Log.Level)
	if err != nil {
		return ctx, err
	}
	if cmd.Bool("verbose") {
		level = log.DebugLevel
	}
	shared.SetLogLevel(r.logger, level)
	return ctx, nil
}

// After releases the storage opened by [Runner.connect].
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	if r.stores == nil {
		return nil
	}
	err := r.stores.Close()
	r.stores, r.jar, r.client, r.engine = nil, nil, nil, nil
	return err
}

// connect opens storage, restores the persisted session and builds the API
// client. It is a no-op once connected.
func (r *Runner) connect(ctx context.Context) error {
	if r.client != nil {
		return nil
	}

	stores, err := repositories.Open(r.config.Storage)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	r.stores = stores

	jar, err := session.NewJar(ctx, stores.Credentials, r.logger)
	if err != nil {
		return fmt.Errorf("failed to load cookies: %w", err)
	}
	r.jar = jar
	store := session.NewStore(stores.Credentials, r.logger)
	if store.RestoreOnLoad(ctx) {
		user, _ := store.User()
		r.logger.Debug("restored session", "user", user.Nickname)
	}

	r.client = services.NewClient(services.ClientOpts{
		Config:     r.config.API,
		Store:      store,
		Jar:        jar,
		HTTPClient: r.httpClient,
		Logger:     r.logger,
		SignOut:    r.signOut,
	})
	r.engine = tasks.NewEngine(r.client, stores.Performances, r.logger)
	return nil
}

// signOut is the CLI's sign-in navigation: the session is already cleared,
// so all that is left is telling the user how to get back in.
func (r *Runner) signOut(_ context.Context, entry string, cause error) {
	r.logger.Warn("session ended, sign in again with `stagelog auth login`", "entry", entry, "cause", cause)
}

// requireSession fails early when no session is stored.
func (r *Runner) requireSession(ctx context.Context) error {
	if err := r.connect(ctx); err != nil {
		return err
	}
	if !r.client.Store().Authenticated() {
		return fmt.Errorf("%w: run `stagelog auth login` first", shared.ErrNotAuthenticated)
	}
	return nil
}

// prompt reads one line, echoing the label first.
func (r *Runner) prompt(label string) (string, error) {
	r.writePlain("%s: ", label)
	line, err := r.input.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// promptSecret reads without echo when stdin is a terminal.
func (r *Runner) promptSecret(label string) (string, error) {
	if r.secretFD < 0 || r.input.Buffered() > 0 || !term.IsTerminal(r.secretFD) {
		return r.prompt(label)
	}
	r.writePlain("%s: ", label)
	b, err := term.ReadPassword(r.secretFD)
	r.writePlain("\n")
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", strings.ToLower(label), err)
	}
	return string(b), nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// drainProgress prints progress updates until ch is closed.
func (r *Runner) drainProgress(ch <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	for u := range ch {
		r.writePlain("%s\n", u.Message)
	}
	close(done)
}

// parseID reads a positive numeric id argument.
func parseID(cmd *cli.Command, name string) (int64, error) {
	raw := cmd.StringArg(name)
	if raw == "" {
		return 0, fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive number, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return id, nil
}
