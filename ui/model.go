package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/penwyp/ClawDeck/analytics"
	"github.com/penwyp/ClawDeck/calculations"
	"github.com/penwyp/ClawDeck/models"
	"github.com/penwyp/ClawDeck/orchestrator"
	"github.com/penwyp/ClawDeck/snapshot"
)

// ViewType represents different views in the application
type ViewType int

const (
	ViewOverview ViewType = iota
	ViewSessions
	ViewCron
	ViewAnalytics
	ViewHelp
	ViewCount
)

func (v ViewType) String() string {
	switch v {
	case ViewOverview:
		return "Overview"
	case ViewSessions:
		return "Sessions"
	case ViewCron:
		return "Cron"
	case ViewAnalytics:
		return "Analytics"
	case ViewHelp:
		return "Help"
	default:
		return "Unknown"
	}
}

// Refresher triggers fetches outside the poll cadence
type Refresher interface {
	RefreshAll(ctx context.Context) error
	RefreshGroup(ctx context.Context, group models.EntityGroup) error
}

// Sources are the collaborators the model reads from and acts through.
// Store is required; the rest may be nil and their views degrade to a notice.
type Sources struct {
	Store      *snapshot.Store
	Refresher  Refresher
	Cron       *orchestrator.CronActions
	Analytics  *analytics.Page
	Prices     *models.PriceTable
	Connection func() string
}

// state is the render copy of the snapshot store
type state struct {
	sessions []models.SessionSnapshot
	agents   []models.AgentSnapshot
	cron     []models.CronJobSnapshot
	meta     map[models.EntityGroup]snapshot.GroupMeta
	costs    calculations.Recalculation
}

// Model represents the application state
type Model struct {
	src    Sources
	recalc *calculations.CostRecalculator

	data      state
	analytics analytics.View

	view       ViewType
	width      int
	height     int
	cronCursor int
	status     string
	statusErr  bool
	lastUpdate time.Time

	keys    KeyMap
	styles  Styles
	spinner spinner.Model
	config  Config
}

// NewModel creates a new application model
func NewModel(cfg Config, src Sources) Model {
	styles := NewStyles(ThemeByName(cfg.Theme))
	if cfg.NoColor {
		styles = PlainStyles()
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Subtitle

	m := Model{
		src:     src,
		recalc:  calculations.NewCostRecalculator(src.Prices),
		view:    ViewOverview,
		keys:    DefaultKeyMap(),
		styles:  styles,
		spinner: s,
		config:  cfg,
	}
	m.sync()
	return m
}

// Init returns initial commands for the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		tickCmd(m.config.RefreshRate),
		tea.WindowSize(),
	)
}

// sync copies the store into the render state. Cost and usage are repaired
// here, at view time; the store keeps the remote values.
func (m *Model) sync() {
	store := m.src.Store
	if store == nil {
		return
	}

	meta := make(map[models.EntityGroup]snapshot.GroupMeta, len(models.AllGroups))
	for _, g := range models.AllGroups {
		meta[g] = store.Meta(g)
	}

	m.data = state{
		sessions: store.Sessions(),
		agents:   store.Agents(),
		cron:     store.CronJobs(),
		meta:     meta,
		costs:    m.recalc.Recalculate(store.Usage(), store.Cost()),
	}
	if m.cronCursor >= len(m.data.cron) {
		m.cronCursor = max(len(m.data.cron)-1, 0)
	}
	m.lastUpdate = time.Now()
}

// SwitchView changes the current view
func (m *Model) SwitchView(view ViewType) {
	if view >= 0 && view < ViewCount {
		m.view = view
	}
}

// NextView switches to the next view, skipping help
func (m *Model) NextView() {
	m.view = (m.view + 1) % ViewHelp
}

// CurrentView returns the active view
func (m Model) CurrentView() ViewType {
	return m.view
}

// Loading reports whether any group is mid-fetch
func (m Model) Loading() bool {
	for _, meta := range m.data.meta {
		if meta.Loading {
			return true
		}
	}
	return m.analytics.Refreshing
}

// IncompleteCosts returns how many cost entries the gateway could not price
func (m Model) IncompleteCosts() int {
	if n := m.data.costs.OriginalMissing; n > 0 {
		return n
	}
	return m.analytics.Incomplete()
}

// SelectedJob returns the job under the cron cursor
func (m Model) SelectedJob() (models.CronJobSnapshot, bool) {
	if m.cronCursor < 0 || m.cronCursor >= len(m.data.cron) {
		return models.CronJobSnapshot{}, false
	}
	return m.data.cron[m.cronCursor], true
}

// Resize updates the model dimensions
func (m *Model) Resize(width, height int) {
	m.width = width
	m.height = height
}
