package ui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/penwyp/ClawDeck/analytics"
	"github.com/penwyp/ClawDeck/models"
)

// Message types for the application

// TickMsg is sent periodically to refresh relative times
type TickMsg time.Time

// StoreChangedMsg reports that a snapshot group was written
type StoreChangedMsg struct {
	Group models.EntityGroup
}

// AnalyticsMsg carries a new analytics view
type AnalyticsMsg struct {
	View analytics.View
}

// RunsLoadedMsg reports a finished run-history load
type RunsLoadedMsg struct {
	JobID   string
	Applied bool
	Err     error
}

// ActionMsg reports the outcome of a user action
type ActionMsg struct {
	Text string
	Err  error
}

// Update handles incoming messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case TickMsg:
		m.sync()
		return m, tickCmd(m.config.RefreshRate)

	case StoreChangedMsg:
		m.sync()
		return m, nil

	case AnalyticsMsg:
		m.analytics = msg.View
		return m, nil

	case RunsLoadedMsg:
		if msg.Applied && msg.Err != nil {
			m.setStatus("", msg.Err)
		}
		return m, nil

	case ActionMsg:
		m.setStatus(msg.Text, msg.Err)
		m.sync()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) setStatus(text string, err error) {
	if err != nil {
		m.status = err.Error()
		m.statusErr = true
		return
	}
	m.status = text
	m.statusErr = false
}

// handleKeyPress processes keyboard input
func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.SwitchView(ViewHelp)
		return m, nil
	case key.Matches(msg, m.keys.Back):
		m.SwitchView(ViewOverview)
		return m, nil
	case key.Matches(msg, m.keys.Tab):
		m.NextView()
		return m, nil
	case key.Matches(msg, m.keys.Overview):
		m.SwitchView(ViewOverview)
		return m, nil
	case key.Matches(msg, m.keys.Sessions):
		m.SwitchView(ViewSessions)
		return m, nil
	case key.Matches(msg, m.keys.Cron):
		m.SwitchView(ViewCron)
		return m, nil
	case key.Matches(msg, m.keys.Analytics):
		m.SwitchView(ViewAnalytics)
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		m.setStatus("refreshing...", nil)
		return m, refreshCmd(m.src.Refresher)
	}

	switch m.view {
	case ViewCron:
		return m.handleCronKeys(msg)
	case ViewAnalytics:
		return m.handleAnalyticsKeys(msg)
	}
	return m, nil
}

func (m Model) handleCronKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cronCursor > 0 {
			m.cronCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cronCursor < len(m.data.cron)-1 {
			m.cronCursor++
		}
	case key.Matches(msg, m.keys.Enter):
		if job, ok := m.SelectedJob(); ok {
			return m, loadRunsCmd(m.src.Cron, job.ID)
		}
	case key.Matches(msg, m.keys.RunJob):
		if job, ok := m.SelectedJob(); ok {
			return m, runJobCmd(m.src.Cron, job.ID)
		}
	}
	return m, nil
}

func (m Model) handleAnalyticsKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	page := m.src.Analytics
	if page == nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.PrevRange):
		page.Select(stepPreset(page.Selected(), -1))
	case key.Matches(msg, m.keys.NextRange):
		page.Select(stepPreset(page.Selected(), 1))
	case key.Matches(msg, m.keys.Apply):
		return m, applyRangeCmd(page)
	}
	return m, nil
}

// stepPreset cycles through the fixed presets. Custom ranges are set from the CLI.
func stepPreset(tr models.TimeRange, dir int) models.TimeRange {
	fixed := models.RangePresets[:len(models.RangePresets)-1]
	idx := 0
	for i, p := range fixed {
		if p == tr.Preset {
			idx = i
		}
	}
	idx = (idx + dir + len(fixed)) % len(fixed)
	return models.TimeRange{Preset: fixed[idx]}
}
