package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/stagelog/internal/formatter"
	"github.com/desertthunder/stagelog/internal/models"
	"github.com/desertthunder/stagelog/internal/services"
	"github.com/desertthunder/stagelog/internal/shared"
	"github.com/desertthunder/stagelog/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PerformanceListView ViewState = iota
	DetailView
	SyncView
	SignInView
)

const pageSize = 10

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	view         ViewState
	client       *services.Client
	engine       *tasks.Engine
	width        int
	height       int
	list         list.Model
	filters      models.PerformanceFilters
	page         models.Page[models.PerformanceListItem]
	interested   map[int64]bool
	detail       *models.PerformanceDetail
	progressChan chan tasks.ProgressUpdate
	syncDone     chan Msg
	progress     tasks.ProgressUpdate
	syncResult   *tasks.SyncResult
	syncErr      error
	sessionCh    chan bool
	unsubscribe  func()
	status       string
	err          error
	help         help.Model
	keys         keyMap
	now          func() time.Time
}

// NewModel creates a new TUI model over client. engine may be nil, which
// disables cache sync.
func NewModel(ctx context.Context, client *services.Client, engine *tasks.Engine) *Model {
	filters := models.DefaultPerformanceFilters()
	filters.Size = pageSize

	m := &Model{
		ctx:        ctx,
		view:       PerformanceListView,
		client:     client,
		engine:     engine,
		width:      80,
		height:     24,
		filters:    filters,
		interested: map[int64]bool{},
		sessionCh:  make(chan bool, 4),
		help:       help.New(),
		keys:       newKeyMap(),
		now:        time.Now,
	}
	m.list = list.New(nil, list.NewDefaultDelegate(), m.width-4, m.height-8)
	m.list.Title = "Performances"

	m.unsubscribe = client.Store().Subscribe(func(authenticated bool) {
		select {
		case m.sessionCh <- authenticated:
		default:
		}
	})
	return m
}

// Close stops listening to session changes.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// ViewState reports the active view.
func (m *Model) ViewState() ViewState { return m.view }

// Init loads the first page and the user's interested performances.
func (m *Model) Init() tea.Cmd {
	if !m.client.Store().Authenticated() {
		m.view = SignInView
		return nil
	}
	return tea.Batch(m.fetchPage(), m.fetchInterested(), m.waitForSession())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width-4, msg.Height-8)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PerformanceListView:
			return m.handleListKeys(msg)
		case DetailView:
			return m.handleDetailKeys(msg)
		case SyncView:
			return m.handleSyncKeys(msg)
		case SignInView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		}

	case Msg:
		return m.handleMsg(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgPageFetched:
		d := msg.data.(pageFetched)
		if d.err != nil {
			return m, m.fail(d.err)
		}
		m.page = d.page
		m.status = ""
		m.refreshItems()
		return m, nil

	case MsgDetailFetched:
		d := msg.data.(detailFetched)
		if d.err != nil {
			return m, m.fail(d.err)
		}
		m.detail = &d.detail
		m.view = DetailView
		return m, nil

	case MsgInterestedFetched:
		d := msg.data.(interestedFetched)
		if d.err != nil {
			return m, m.fail(d.err)
		}
		m.interested = d.ids
		m.refreshItems()
		return m, nil

	case MsgInterestedToggled:
		d := msg.data.(interestedToggled)
		if d.err != nil {
			return m, m.fail(d.err)
		}
		if d.interested {
			m.interested[d.id] = true
			m.status = "Added to interested"
		} else {
			delete(m.interested, d.id)
			m.status = "Removed from interested"
		}
		m.refreshItems()
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgSyncComplete:
		d := msg.data.(syncComplete)
		m.syncResult, m.syncErr = d.result, d.err
		m.progressChan, m.syncDone = nil, nil
		if sessionLost(d.err) {
			m.view = SignInView
		}
		return m, nil

	case MsgSessionChanged:
		if authenticated, _ := msg.data.(bool); !authenticated {
			m.view = SignInView
			return m, nil
		}
		return m, m.waitForSession()
	}
	return m, nil
}

func sessionLost(err error) bool {
	return errors.Is(err, shared.ErrRefreshFailed) ||
		errors.Is(err, shared.ErrSessionRejected) ||
		errors.Is(err, shared.ErrNotAuthenticated)
}

// fail routes err to the sign-in view when the session is gone and shows it
// inline otherwise.
func (m *Model) fail(err error) tea.Cmd {
	if sessionLost(err) {
		m.view = SignInView
		return nil
	}
	m.status = ""
	m.err = err
	return nil
}

func (m *Model) refreshItems() {
	now := m.now()
	items := make([]list.Item, len(m.page.Content))
	for i, p := range m.page.Content {
		items[i] = performanceItem{performance: p, interested: m.interested[p.ID], now: now}
	}
	m.list.SetItems(items)
	m.list.Title = m.listTitle()
}

func (m *Model) listTitle() string {
	kind := "All performances"
	if m.filters.IsFestival != nil {
		if *m.filters.IsFestival {
			kind = "Festivals"
		} else {
			kind = "Concerts"
		}
	}
	total := max(m.page.TotalPages, 1)
	return fmt.Sprintf("%s (page %d/%d)", kind, m.page.Number+1, total)
}

func (m *Model) selected() (models.PerformanceListItem, bool) {
	if it, ok := m.list.SelectedItem().(performanceItem); ok {
		return it.performance, true
	}
	return models.PerformanceListItem{}, false
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.SettingFilter() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	m.err = nil
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if p, ok := m.selected(); ok {
			return m, m.fetchDetail(p.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		if m.page.HasNext() {
			m.filters.Page = m.page.Number + 1
			return m, m.fetchPage()
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if m.page.Number > 0 {
			m.filters.Page = m.page.Number - 1
			return m, m.fetchPage()
		}
		return m, nil
	case key.Matches(msg, m.keys.festival):
		m.filters.IsFestival = nextFestivalFilter(m.filters.IsFestival)
		m.filters.Page = 0
		return m, m.fetchPage()
	case key.Matches(msg, m.keys.toggle):
		if p, ok := m.selected(); ok {
			return m, m.toggleInterested(p.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.sync):
		return m, m.startSync()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// nextFestivalFilter cycles all → festivals → concerts → all.
func nextFestivalFilter(cur *bool) *bool {
	switch {
	case cur == nil:
		v := true
		return &v
	case *cur:
		v := false
		return &v
	default:
		return nil
	}
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PerformanceListView
		m.detail = nil
		m.err = nil
		return m, nil
	case key.Matches(msg, m.keys.toggle):
		if m.detail != nil {
			return m, m.toggleInterested(m.detail.ID)
		}
	}
	return m, nil
}

func (m *Model) handleSyncKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	running := m.progressChan != nil
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back) && !running:
		m.view = PerformanceListView
		return m, nil
	}
	return m, nil
}

func (m *Model) fetchPage() tea.Cmd {
	filters := m.filters
	return func() tea.Msg {
		page, err := m.client.Performances.List(m.ctx, filters)
		return pageFetchedMsg(page, err)
	}
}

func (m *Model) fetchDetail(id int64) tea.Cmd {
	return func() tea.Msg {
		d, err := m.client.Performances.Get(m.ctx, id)
		return detailFetchedMsg(d, err)
	}
}

func (m *Model) fetchInterested() tea.Cmd {
	return func() tea.Msg {
		items, err := m.client.Interested.List(m.ctx)
		return interestedFetchedMsg(items, err)
	}
}

func (m *Model) toggleInterested(id int64) tea.Cmd {
	return func() tea.Msg {
		on, err := m.client.Interested.Toggle(m.ctx, id)
		return interestedToggledMsg(id, on, err)
	}
}

func (m *Model) waitForSession() tea.Cmd {
	ch, ctx := m.sessionCh, m.ctx
	return func() tea.Msg {
		select {
		case authenticated := <-ch:
			return sessionChangedMsg(authenticated)
		case <-ctx.Done():
			return nil
		}
	}
}

func (m *Model) startSync() tea.Cmd {
	if m.engine == nil {
		m.status = "Cache sync is not available"
		return nil
	}
	if m.progressChan != nil {
		return nil
	}

	m.view = SyncView
	m.syncResult, m.syncErr = nil, nil
	m.progress = tasks.ProgressUpdate{}
	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan, m.syncDone = progress, done

	go func() {
		result, err := m.engine.SyncInterested(m.ctx, progress, tasks.PoolOpts{})
		close(progress)
		done <- syncCompleteMsg(result, err)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.syncDone
	return func() tea.Msg {
		if progress == nil {
			return nil
		}
		update, ok := <-progress
		if !ok {
			return <-done
		}
		return progressUpdateMsg(update)
	}
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PerformanceListView:
		return m.renderList()
	case DetailView:
		return m.renderDetail()
	case SyncView:
		return m.renderSync()
	case SignInView:
		return m.renderSignIn()
	default:
		return ""
	}
}

func (m *Model) footer(keys ...key.Binding) string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(styles.ok.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(keys))
	return b.String()
}

func (m *Model) renderList() string {
	k := m.keys
	return fmt.Sprintf("%s\n\n%s", m.list.View(), m.footer(k.enter, k.next, k.prev, k.festival, k.toggle, k.sync, k.quit))
}

func (m *Model) renderDetail() string {
	if m.detail == nil {
		return ""
	}
	title := m.detail.Title
	if m.interested[m.detail.ID] {
		title = "★ " + title
	}
	body := formatter.PerformanceText(*m.detail, m.now())
	if i := strings.IndexByte(body, '\n'); i >= 0 {
		body = body[i+1:]
	}
	return fmt.Sprintf("%s\n%s\n%s", styles.title.Render(title), body, m.footer(m.keys.toggle, m.keys.back, m.keys.quit))
}

func (m *Model) renderSync() string {
	title := styles.title.Render("Syncing interested performances")

	if m.progressChan != nil {
		phase := "Processing..."
		switch m.progress.Phase {
		case tasks.FetchInterested:
			phase = "Fetching interested performances..."
		case tasks.SyncPerformance:
			phase = fmt.Sprintf("Caching details (%d/%d)", m.progress.Step, m.progress.Total)
		}
		return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
	}

	if m.syncErr != nil {
		return fmt.Sprintf("%s\n\n%s\n\n%s", title, styles.err.Render(fmt.Sprintf("Sync failed: %v", m.syncErr)), m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
	}

	var b strings.Builder
	b.WriteString(styles.ok.Render("✓ Sync complete"))
	if r := m.syncResult; r != nil {
		fmt.Fprintf(&b, "\n\nCached: %d/%d", r.Cached, r.Total)
		if r.Failed > 0 {
			b.WriteString("\n\n" + styles.warn.Render(fmt.Sprintf("Failed to cache %d performances:", r.Failed)))
			for _, res := range r.Results {
				if res.Error != nil {
					fmt.Fprintf(&b, "\n  • %s: %v", res.Title, res.Error)
				}
			}
		}
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, b.String(), m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit}))
}

func (m *Model) renderSignIn() string {
	title := styles.warn.Render("Your session has ended")
	return fmt.Sprintf("%s\n\nSign in again with %s, then restart the browser.\n\n%s",
		title, styles.ok.Render("stagelog auth login"), m.help.ShortHelpView([]key.Binding{m.keys.quit}))
}
