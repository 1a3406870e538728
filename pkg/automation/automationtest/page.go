// Package automationtest provides a scriptable automation.Page for tests.
package automationtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjglira/uitestkit/pkg/automation"
)

var (
	// ErrDetached is what a failing fake click returns.
	ErrDetached = errors.New("element is detached from the DOM")

	// ErrBlockUntilDone makes a fake wait hang until its context ends.
	ErrBlockUntilDone = errors.New("block until context is done")
)

// Page records every call and answers from its maps, keyed by Locator.String().
// Wait errors are keyed by "<state> <locator>".
type Page struct {
	mu sync.Mutex

	calls       []string
	ClickErrs   map[string][]error
	FailClick   map[string]bool
	WaitErrs    map[string]error
	Texts       map[string]string
	Counts      map[string]int
	NavigateErr error
	Shots       []string
}

var _ automation.Page = (*Page)(nil)

// NewPage returns an empty Page on which every call succeeds.
func NewPage() *Page {
	return &Page{
		ClickErrs: map[string][]error{},
		FailClick: map[string]bool{},
		WaitErrs:  map[string]error{},
		Texts:     map[string]string{},
		Counts:    map[string]int{},
	}
}

func (p *Page) record(call string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, call)
}

// Calls returns the recorded calls in order.
func (p *Page) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Screenshots returns the paths passed to Screenshot.
func (p *Page) Screenshots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Shots...)
}

func (p *Page) Navigate(_ context.Context, url string) error {
	p.record("navigate " + url)
	return p.NavigateErr
}

func (p *Page) WaitForLoad(context.Context) error {
	p.record("load")
	return nil
}

func (p *Page) Count(_ context.Context, loc automation.Locator) (int, error) {
	p.record("count " + loc.String())
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Counts[loc.String()], nil
}

func (p *Page) WaitFor(ctx context.Context, loc automation.Locator, state automation.State) error {
	p.record("wait " + string(state) + " " + loc.String())
	p.mu.Lock()
	err := p.WaitErrs[string(state)+" "+loc.String()]
	p.mu.Unlock()
	if err == ErrBlockUntilDone {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (p *Page) ScrollIntoView(_ context.Context, loc automation.Locator) error {
	p.record("scroll " + loc.String())
	return nil
}

func (p *Page) Click(_ context.Context, loc automation.Locator) error {
	p.record("click " + loc.String())
	p.mu.Lock()
	defer p.mu.Unlock()
	if q := p.ClickErrs[loc.String()]; len(q) > 0 {
		p.ClickErrs[loc.String()] = q[1:]
		return q[0]
	}
	if p.FailClick[loc.String()] {
		return ErrDetached
	}
	return nil
}

func (p *Page) SetValue(_ context.Context, loc automation.Locator, value string) error {
	p.record("set " + loc.String() + " = " + value)
	return nil
}

func (p *Page) DispatchEvent(_ context.Context, loc automation.Locator, event string) error {
	p.record("event " + event + " " + loc.String())
	return nil
}

func (p *Page) Text(_ context.Context, loc automation.Locator) (string, error) {
	p.record("text " + loc.String())
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Texts[loc.String()], nil
}

func (p *Page) Screenshot(_ context.Context, path string) error {
	p.record("screenshot " + path)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Shots = append(p.Shots, path)
	return nil
}

// Sleeper records requested pauses and returns almost immediately.
type Sleeper struct {
	mu    sync.Mutex
	slept []time.Duration
}

// Sleep is an automation.Sleeper.
func (s *Sleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.slept = append(s.slept, d)
	s.mu.Unlock()
	// yield briefly so deadline-driven loops still make progress
	time.Sleep(time.Millisecond)
	return ctx.Err()
}

// Slept returns the requested pauses in order.
func (s *Sleeper) Slept() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.slept...)
}
