package ui

import (
	"context"
	"errors"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/penwyp/ClawDeck/analytics"
)

// Config holds UI configuration
type Config struct {
	RefreshRate time.Duration
	Theme       string
	ShowSpinner bool
	CompactMode bool
	NoColor     bool
}

// DefaultConfig is the UI configuration used when none is supplied
var DefaultConfig = Config{
	RefreshRate: time.Second,
	Theme:       "dark",
	ShowSpinner: true,
}

// App runs the bubbletea program and forwards store changes into it
type App struct {
	model   Model
	program *tea.Program
	config  Config
	src     Sources
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewApp creates a new application instance
func NewApp(cfg Config, src Sources) *App {
	ctx, cancel := context.WithCancel(context.Background())

	model := NewModel(cfg, src)
	app := &App{
		model:  model,
		config: cfg,
		src:    src,
		ctx:    ctx,
		cancel: cancel,
	}

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if !cfg.CompactMode {
		opts = append(opts, tea.WithAltScreen())
	}
	app.program = tea.NewProgram(model, opts...)

	return app
}

// Start runs the program until the user quits or Stop is called
func (a *App) Start() error {
	if a.src.Store != nil {
		changes, cancel := a.src.Store.Subscribe()
		defer cancel()

		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			for {
				select {
				case <-a.ctx.Done():
					return
				case c, ok := <-changes:
					if !ok {
						return
					}
					a.program.Send(StoreChangedMsg{Group: c.Group})
				}
			}
		}()
	}

	if a.src.Analytics != nil {
		a.src.Analytics.OnChange(func(v analytics.View) {
			a.SendMessage(AnalyticsMsg{View: v})
		})
		a.SendMessage(AnalyticsMsg{View: a.src.Analytics.View()})
	}

	_, err := a.program.Run()
	a.cancel()
	a.wg.Wait()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the application
func (a *App) Stop() error {
	if a.cancel != nil {
		a.cancel()
	}
	return nil
}

// SendMessage sends a message to the application
func (a *App) SendMessage(msg tea.Msg) {
	if a.program != nil && a.ctx.Err() == nil {
		go a.program.Send(msg)
	}
}

// IsRunning returns true if the application is currently running
func (a *App) IsRunning() bool {
	return a.ctx.Err() == nil
}
