package otp

import (
	"errors"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		CodeLength:    6,
		ListenTimeout: 5 * time.Second,
		MaxRetries:    3,
		RetryCooldown: 3 * time.Second,
	}
}

func TestControllerSuccessFlow(t *testing.T) {
	c := NewController(testConfig())

	var result *Result
	c.SetResultHandler(func(r Result) { result = &r })

	if err := c.StartListening(); err != nil {
		t.Fatalf("StartListening failed: %v", err)
	}
	if snap := c.Snapshot(); snap.State != StateListening || snap.Attempts != 1 {
		t.Fatalf("Unexpected snapshot after start: %+v", snap)
	}

	code, ok := c.HandleMessage("VERIFY", "Your code is 123456")
	if !ok || code != "123456" {
		t.Fatalf("HandleMessage = (%q, %v), want (123456, true)", code, ok)
	}

	if result == nil || result.Outcome != OutcomeSuccess || result.Code != "123456" {
		t.Errorf("Unexpected result: %+v", result)
	}
	if snap := c.Snapshot(); snap.State != StateSuccess {
		t.Errorf("Expected success state, got %q", snap.State)
	}
}

func TestControllerTimeout(t *testing.T) {
	c := NewController(testConfig())

	var result *Result
	c.SetResultHandler(func(r Result) { result = &r })

	if err := c.StartListening(); err != nil {
		t.Fatalf("StartListening failed: %v", err)
	}

	// Listen timeout is five seconds: four ticks keep the window open
	for i := 0; i < 4; i++ {
		c.Tick()
		if snap := c.Snapshot(); snap.State != StateListening {
			t.Fatalf("Window closed early after %d ticks: %q", i+1, snap.State)
		}
	}

	c.Tick()
	if snap := c.Snapshot(); snap.State != StateTimeout {
		t.Fatalf("Expected timeout after 5 ticks, got %q", snap.State)
	}
	if result == nil || result.Outcome != OutcomeTimeout {
		t.Errorf("Unexpected result: %+v", result)
	}
}

// TestControllerCooldownExact pins the spec'd property: the cooldown hits
// zero exactly retryCooldown seconds after a request, at one-second
// granularity.
func TestControllerCooldownExact(t *testing.T) {
	c := NewController(testConfig())

	if err := c.StartListening(); err != nil {
		t.Fatalf("StartListening failed: %v", err)
	}

	// Cooldown is three seconds: blocked for two more ticks, open on the third
	for i := 0; i < 2; i++ {
		c.Tick()
		if err := c.StartListening(); !errors.Is(err, ErrCoolingDown) {
			t.Fatalf("Tick %d: expected ErrCoolingDown, got %v", i+1, err)
		}
	}

	c.Tick()
	if snap := c.Snapshot(); snap.CooldownRemaining != 0 {
		t.Fatalf("Cooldown not zero after 3 ticks: %d", snap.CooldownRemaining)
	}
	if err := c.StartListening(); err != nil {
		t.Errorf("Expected resend to be allowed after cooldown, got %v", err)
	}
}

func TestControllerRetriesExhausted(t *testing.T) {
	c := NewController(testConfig())

	for i := 0; i < 3; i++ {
		if err := c.StartListening(); err != nil {
			t.Fatalf("Request %d failed: %v", i+1, err)
		}
		// Drain the cooldown between requests
		for j := 0; j < 3; j++ {
			c.Tick()
		}
	}

	if err := c.StartListening(); !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("Expected ErrRetriesExhausted on request 4, got %v", err)
	}

	c.Reset()
	if err := c.StartListening(); err != nil {
		t.Errorf("Expected fresh start after Reset, got %v", err)
	}
}

func TestControllerSenderFilter(t *testing.T) {
	cfg := testConfig()
	cfg.SenderFilter = "verify"
	c := NewController(cfg)

	if err := c.StartListening(); err != nil {
		t.Fatalf("StartListening failed: %v", err)
	}

	if _, ok := c.HandleMessage("+31699999999", "Your code is 123456"); ok {
		t.Error("Message from filtered sender should be ignored")
	}
	if snap := c.Snapshot(); snap.State != StateListening {
		t.Fatalf("Filtered message must not close the window, got %q", snap.State)
	}

	// Filter is a case-insensitive substring match on the sender ID
	if code, ok := c.HandleMessage("MyVerify", "Your code is 123456"); !ok || code != "123456" {
		t.Errorf("HandleMessage = (%q, %v), want (123456, true)", code, ok)
	}
}

func TestControllerIgnoresMessagesWhenIdle(t *testing.T) {
	c := NewController(testConfig())

	if _, ok := c.HandleMessage("VERIFY", "Your code is 123456"); ok {
		t.Error("Message outside a listen window should be ignored")
	}
}

func TestControllerStopListening(t *testing.T) {
	c := NewController(testConfig())

	var result *Result
	c.SetResultHandler(func(r Result) { result = &r })

	if err := c.StartListening(); err != nil {
		t.Fatalf("StartListening failed: %v", err)
	}
	c.StopListening()

	if snap := c.Snapshot(); snap.State != StateIdle {
		t.Errorf("Expected idle after stop, got %q", snap.State)
	}
	if result == nil || result.Outcome != OutcomeCancelled {
		t.Errorf("Unexpected result: %+v", result)
	}
}

func TestControllerFail(t *testing.T) {
	c := NewController(testConfig())

	var result *Result
	c.SetResultHandler(func(r Result) { result = &r })

	if err := c.StartListening(); err != nil {
		t.Fatalf("StartListening failed: %v", err)
	}
	c.Fail(errors.New("service unavailable"))

	if snap := c.Snapshot(); snap.State != StateError {
		t.Errorf("Expected error state, got %q", snap.State)
	}
	if result == nil || result.Outcome != OutcomeError || result.Err == nil {
		t.Errorf("Unexpected result: %+v", result)
	}
}
