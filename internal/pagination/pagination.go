// Package pagination tracks the current page of a result set and the window
// of page buttons shown around it.
package pagination

import (
	"errors"
	"sync"
)

// WindowSize is the maximum number of page buttons shown at once.
const WindowSize = 5

var ErrOutOfRange = errors.New("page out of range")

// Controller is safe for concurrent use. Page indices are zero-based.
type Controller struct {
	mu         sync.Mutex
	current    int
	totalPages int
	onChange   func(page int)
}

// New returns a controller on page 0. onChange, if set, runs after every
// page change; the view uses it to scroll back to the result list.
func New(onChange func(page int)) *Controller {
	return &Controller{onChange: onChange}
}

// State is a snapshot for rendering.
type State struct {
	Current    int
	TotalPages int
	Window     []int
	HasPrev    bool
	HasNext    bool
}

func (c *Controller) Current() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages
}

// Update records the page metadata from a fetched result.
func (c *Controller) Update(current, totalPages int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if totalPages < 0 {
		totalPages = 0
	}
	c.current = current
	c.totalPages = totalPages
}

// CanGoTo reports whether n is a valid target. The view disables buttons
// for which it is false.
func (c *Controller) CanGoTo(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.canGoTo(n)
}

func (c *Controller) canGoTo(n int) bool {
	return n >= 0 && n < c.totalPages
}

// GoTo moves to page n. It does not clamp.
func (c *Controller) GoTo(n int) error {
	c.mu.Lock()
	if !c.canGoTo(n) {
		c.mu.Unlock()
		return ErrOutOfRange
	}
	c.current = n
	fn := c.onChange
	c.mu.Unlock()

	if fn != nil {
		fn(n)
	}
	return nil
}

func (c *Controller) Next() error  { return c.GoTo(c.Current() + 1) }
func (c *Controller) Prev() error  { return c.GoTo(c.Current() - 1) }
func (c *Controller) First() error { return c.GoTo(0) }
func (c *Controller) Last() error  { return c.GoTo(c.TotalPages() - 1) }

// Reset returns to page 0 without signalling a scroll. Every filter change
// calls it.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = 0
}

// Window returns the page indices to show as buttons.
func (c *Controller) Window() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Window(c.current, c.totalPages)
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Current:    c.current,
		TotalPages: c.totalPages,
		Window:     Window(c.current, c.totalPages),
		HasPrev:    c.canGoTo(c.current - 1),
		HasNext:    c.canGoTo(c.current + 1),
	}
}

// Window returns up to WindowSize consecutive page indices centred on
// current where possible and clamped to [0, totalPages-1]. Its length is
// min(WindowSize, totalPages).
func Window(current, totalPages int) []int {
	if totalPages <= 0 {
		return []int{}
	}
	size := min(WindowSize, totalPages)

	start := current - WindowSize/2
	start = max(start, 0)
	start = min(start, totalPages-size)

	pages := make([]int, size)
	for i := range pages {
		pages[i] = start + i
	}
	return pages
}

// StateFor builds a render snapshot without a controller, for stateless
// handlers.
func StateFor(current, totalPages int) State {
	c := &Controller{current: current, totalPages: max(totalPages, 0)}
	return c.State()
}
