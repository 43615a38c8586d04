// Package mode tracks which listing mode a session is in.
package mode

// Mode selects where candidates come from.
type Mode int

const (
	// Combined sources candidates from history plus the non-hidden
	// local listing, deduplicated. The initial mode of every session.
	Combined Mode = iota

	// Local sources candidates from the local listing only, hidden
	// files included. History is ignored for sourcing but still
	// updated on selection.
	Local
)

// String returns the mode name used in the matcher prompt.
func (m Mode) String() string {
	if m == Local {
		return "local"
	}
	return "combined"
}

// Hidden reports whether the live listing should include hidden files.
func (m Mode) Hidden() bool {
	return m == Local
}

// Controller holds the current mode for one session. Not persisted;
// every invocation starts in Combined.
type Controller struct {
	current Mode
}

// NewController returns a controller in Combined mode.
func NewController() *Controller {
	return &Controller{current: Combined}
}

// Current returns the active mode.
func (c *Controller) Current() Mode {
	return c.current
}

// Toggle flips between Combined and Local and returns the new mode.
func (c *Controller) Toggle() Mode {
	if c.current == Combined {
		c.current = Local
	} else {
		c.current = Combined
	}
	return c.current
}
