package main

import (
	"log"
	"sync"
	"time"

	"otp_gateway/otp"
	"otp_gateway/sms"
)

// controllerRegistry keeps one OTP controller per phone number and drives
// them all from a single one-second ticker. Inbound SMS picked up by the
// modem monitor are dispatched to every open listen window; the controller
// that extracts a code resolves its own window.
type controllerRegistry struct {
	mu      sync.Mutex
	cfg     otp.Config
	byPhone map[string]*otp.Controller
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func newControllerRegistry(cfg otp.Config) *controllerRegistry {
	return &controllerRegistry{
		cfg:     cfg,
		byPhone: make(map[string]*otp.Controller),
		stopCh:  make(chan struct{}),
	}
}

// get returns the controller for a phone number, creating it on first use.
func (r *controllerRegistry) get(phone string) *otp.Controller {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctrl, exists := r.byPhone[phone]
	if !exists {
		ctrl = otp.NewController(r.cfg)
		ctrl.SetResultHandler(func(res otp.Result) {
			logResult(phone, res)
		})
		r.byPhone[phone] = ctrl
	}
	return ctrl
}

// dispatch feeds one inbound SMS to every controller with an open window.
func (r *controllerRegistry) dispatch(sender, body string) {
	r.mu.Lock()
	controllers := make([]*otp.Controller, 0, len(r.byPhone))
	for _, ctrl := range r.byPhone {
		controllers = append(controllers, ctrl)
	}
	r.mu.Unlock()

	for _, ctrl := range controllers {
		if code, ok := ctrl.HandleMessage(sender, body); ok {
			log.Printf("Inbound SMS from %s resolved a listen window (code %s)", sms.MaskPhone(sender), code)
		}
	}
}

// start begins ticking all controllers once per second.
func (r *controllerRegistry) start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.mu.Lock()
				for _, ctrl := range r.byPhone {
					ctrl.Tick()
				}
				r.mu.Unlock()
			case <-r.stopCh:
				return
			}
		}
	}()
}

func (r *controllerRegistry) stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func logResult(phone string, res otp.Result) {
	switch res.Outcome {
	case otp.OutcomeSuccess:
		log.Printf("Listen window for %s closed: code received", sms.MaskPhone(phone))
	case otp.OutcomeTimeout:
		log.Printf("Listen window for %s closed: timed out", sms.MaskPhone(phone))
	case otp.OutcomeCancelled:
		log.Printf("Listen window for %s closed: cancelled", sms.MaskPhone(phone))
	case otp.OutcomeError:
		log.Printf("Listen window for %s closed with error: %v", sms.MaskPhone(phone), res.Err)
	}
}
