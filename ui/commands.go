package ui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/penwyp/ClawDeck/analytics"
	"github.com/penwyp/ClawDeck/orchestrator"
)

const actionTimeout = 30 * time.Second

// tickCmd returns a command that sends a tick message after interval
func tickCmd(interval time.Duration) tea.Cmd {
	if interval <= 0 {
		interval = time.Second
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// refreshCmd fetches every group out of band
func refreshCmd(r Refresher) tea.Cmd {
	if r == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return ActionMsg{Text: "refreshed", Err: r.RefreshAll(ctx)}
	}
}

// runJobCmd triggers a cron job and refetches the cron group
func runJobCmd(cron *orchestrator.CronActions, id string) tea.Cmd {
	if cron == nil || id == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		return ActionMsg{Text: fmt.Sprintf("triggered %s", id), Err: cron.RunJob(ctx, id)}
	}
}

// loadRunsCmd loads the run history of one job. A response superseded by a
// later selection is dropped by the loader.
func loadRunsCmd(cron *orchestrator.CronActions, id string) tea.Cmd {
	if cron == nil || id == "" {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		applied, err := cron.Runs().Load(ctx, id)
		return RunsLoadedMsg{JobID: id, Applied: applied, Err: err}
	}
}

// applyRangeCmd persists the selected analytics range
func applyRangeCmd(page *analytics.Page) tea.Cmd {
	if page == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := page.Apply(ctx); err != nil {
			return ActionMsg{Err: err}
		}
		return AnalyticsMsg{View: page.View()}
	}
}
