package otp

import (
	"log"
	"strings"
	"sync"
	"time"
)

// Config is the read-only input shared by the extraction engine and the
// controller.
type Config struct {
	CodeLength    int
	ListenTimeout time.Duration
	MaxRetries    int
	RetryCooldown time.Duration
	SenderFilter  string // case-insensitive substring match on the sender ID
}

// State of the listen window.
type State string

const (
	StateIdle      State = "idle"
	StateListening State = "listening"
	StateSuccess   State = "success"
	StateTimeout   State = "timeout"
	StateError     State = "error"
)

// Outcome of a completed listen window, delivered to the result callback.
type Outcome string

const (
	OutcomeSuccess   Outcome = "success"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeError     Outcome = "error"
)

// Result is what a listen window produced.
type Result struct {
	Outcome Outcome
	Code    string
	Err     error
}

// Snapshot is a point-in-time view of the controller for callers that poll.
type Snapshot struct {
	State             State  `json:"state"`
	Attempts          int    `json:"attempts"`
	CooldownRemaining int    `json:"cooldown_remaining"` // whole seconds
	TimeoutRemaining  int    `json:"timeout_remaining"`  // whole seconds
	Code              string `json:"code,omitempty"`
}

// Controller runs the listen/retry/cooldown state machine around inbound SMS
// delivery: idle → listening → (success | timeout | error) → idle, with a
// cooldown counter gating new listen requests. All transitions happen under
// one mutex, driven by Tick, StartListening, HandleMessage and StopListening.
type Controller struct {
	cfg Config

	mu                sync.Mutex
	state             State
	attempts          int
	timeoutRemaining  int // seconds left in the open window
	cooldownRemaining int // seconds until a new window may open
	code              string
	onResult          func(Result)
}

// NewController creates a controller in the idle state. The owner drives it
// by calling Tick once per second.
func NewController(cfg Config) *Controller {
	return &Controller{
		cfg:   cfg,
		state: StateIdle,
	}
}

// SetResultHandler registers the callback invoked when a listen window
// resolves. Must be set before StartListening.
func (c *Controller) SetResultHandler(handler func(Result)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onResult = handler
}

// StartListening opens a new listen window. Every request after the first is
// a retry, and each request arms the cooldown that gates the next one.
func (c *Controller) StartListening() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cooldownRemaining > 0 {
		return ErrCoolingDown
	}
	if c.attempts >= c.cfg.MaxRetries {
		return ErrRetriesExhausted
	}
	// A request during an open window is a resend: the old window is
	// replaced once the cooldown has lapsed.

	c.state = StateListening
	c.attempts++
	c.code = ""
	c.timeoutRemaining = int(c.cfg.ListenTimeout / time.Second)
	c.cooldownRemaining = int(c.cfg.RetryCooldown / time.Second)
	return nil
}

// StopListening cancels an open window. A no-op when nothing is listening.
func (c *Controller) StopListening() {
	c.mu.Lock()
	handler := c.onResult
	wasListening := c.state == StateListening
	if wasListening {
		c.state = StateIdle
		c.timeoutRemaining = 0
	}
	c.mu.Unlock()

	if wasListening && handler != nil {
		handler(Result{Outcome: OutcomeCancelled})
	}
}

// HandleMessage feeds one inbound SMS into the controller. Messages outside
// a listen window, from filtered senders, or without an extractable code are
// ignored. Returns the code and true when the window resolved to success.
func (c *Controller) HandleMessage(sender, body string) (string, bool) {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return "", false
	}
	if !c.senderAllowed(sender) {
		c.mu.Unlock()
		log.Printf("Ignoring SMS from unexpected sender %q", sender)
		return "", false
	}

	code, found := Extract(body, c.cfg.CodeLength)
	if !found {
		c.mu.Unlock()
		return "", false
	}

	c.state = StateSuccess
	c.code = code
	c.timeoutRemaining = 0
	handler := c.onResult
	c.mu.Unlock()

	if handler != nil {
		handler(Result{Outcome: OutcomeSuccess, Code: code})
	}
	return code, true
}

// Fail records a platform-level failure, resolving an open window with an
// error outcome.
func (c *Controller) Fail(err error) {
	c.mu.Lock()
	if c.state != StateListening {
		c.mu.Unlock()
		return
	}
	c.state = StateError
	c.timeoutRemaining = 0
	handler := c.onResult
	c.mu.Unlock()

	if handler != nil {
		handler(Result{Outcome: OutcomeError, Err: err})
	}
}

// Reset returns the controller to idle and clears the retry counter, e.g.
// after a completed verification flow.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateIdle
	c.attempts = 0
	c.timeoutRemaining = 0
	c.cooldownRemaining = 0
	c.code = ""
}

// Tick advances the state machine by one second: the open window's timeout
// counts down, and so does the cooldown. The window resolves to timeout when
// its counter hits zero.
func (c *Controller) Tick() {
	c.mu.Lock()
	if c.cooldownRemaining > 0 {
		c.cooldownRemaining--
	}

	var handler func(Result)
	if c.state == StateListening && c.timeoutRemaining > 0 {
		c.timeoutRemaining--
		if c.timeoutRemaining == 0 {
			c.state = StateTimeout
			handler = c.onResult
		}
	}
	c.mu.Unlock()

	if handler != nil {
		handler(Result{Outcome: OutcomeTimeout})
	}
}

// Snapshot returns the current state for polling callers.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		State:             c.state,
		Attempts:          c.attempts,
		CooldownRemaining: c.cooldownRemaining,
		TimeoutRemaining:  c.timeoutRemaining,
		Code:              c.code,
	}
}

func (c *Controller) senderAllowed(sender string) bool {
	if c.cfg.SenderFilter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(sender), strings.ToLower(c.cfg.SenderFilter))
}
