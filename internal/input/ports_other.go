//go:build !windows && (!darwin || !cgo)

package input

import "github.com/frank2889/MacWinControl/internal/protocol"

// The portable stubs keep the engine linkable on platforms without a
// native backend; every operation reports ErrUnsupported.

type stubCapturer struct{}

func NewCapturer() Capturer { return stubCapturer{} }

func (stubCapturer) Start(Handler) error              { return ErrUnsupported }
func (stubCapturer) Stop()                            {}
func (stubCapturer) CursorPosition() (int, int, bool) { return 0, 0, false }

type stubInjector struct{}

func NewInjector() Injector { return stubInjector{} }

func (stubInjector) MoveMouse(int, int) error                              { return ErrUnsupported }
func (stubInjector) MouseButton(Button, Action, int, int) error            { return ErrUnsupported }
func (stubInjector) Scroll(int, int) error                                 { return ErrUnsupported }
func (stubInjector) Key(int, Action, protocol.Modifiers) error             { return ErrUnsupported }
func (stubInjector) SetCursorVisible(bool) error                           { return ErrUnsupported }
