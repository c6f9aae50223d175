package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/tillsync/internal/core/domain"
	"go.trai.ch/tillsync/internal/core/ports"
)

// Renderer runs the board model as a ports.Renderer.
type Renderer struct {
	program *tea.Program
	model   *Model
	errCh   chan error
}

// NewRenderer creates a renderer for model. Focus reporting is always enabled so the board
// can pause polling while the terminal is in the background.
func NewRenderer(model *Model, opts ...tea.ProgramOption) *Renderer {
	opts = append([]tea.ProgramOption{tea.WithReportFocus()}, opts...)
	return &Renderer{
		program: tea.NewProgram(model, opts...),
		model:   model,
		errCh:   make(chan error, 1),
	}
}

// Start runs the program in the background.
func (r *Renderer) Start(_ context.Context) error {
	go func() {
		_, err := r.program.Run()
		r.errCh <- err
	}()
	return nil
}

// Stop asks the program to quit.
func (r *Renderer) Stop() error {
	r.program.Quit()
	return nil
}

// Wait blocks until the program has exited, either through Stop or the quit key.
func (r *Renderer) Wait() error {
	return <-r.errCh
}

// OnBoard forwards b to the model.
func (r *Renderer) OnBoard(b ports.Board) {
	r.program.Send(MsgBoard{Board: b})
}

// OnNotifications forwards items to the model.
func (r *Renderer) OnNotifications(items []domain.Notification) {
	r.program.Send(MsgNotifications{Items: items})
}

// OnSyncStart forwards a started sync to the model.
func (r *Renderer) OnSyncStart(id, _, name string, start time.Time) {
	r.program.Send(MsgSyncStart{ID: id, Name: name, Start: start})
}

// OnSyncComplete forwards a finished sync to the model.
func (r *Renderer) OnSyncComplete(id string, end time.Time, err error) {
	r.program.Send(MsgSyncComplete{ID: id, End: end, Err: err})
}
