package otp

import (
	"sync"
	"time"
)

// Store keeps issued verification codes in memory, keyed by phone number.
// Codes expire after the configured duration and are invalidated after too
// many failed verify attempts. A successful verify consumes the code.
type Store struct {
	mu          sync.Mutex
	codes       map[string]*issuedCode
	expiry      time.Duration
	maxAttempts int
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

type issuedCode struct {
	code      string
	expiresAt time.Time
	attempts  int
}

// NewStore creates a code store and starts its background cleanup loop.
// Call Close to stop the loop.
func NewStore(expiry time.Duration, maxAttempts int) *Store {
	s := &Store{
		codes:       make(map[string]*issuedCode),
		expiry:      expiry,
		maxAttempts: maxAttempts,
		stopCh:      make(chan struct{}),
	}

	s.wg.Add(1)
	go s.cleanupExpired()

	return s
}

// Put records a freshly issued code for a phone number, replacing any
// previous one and resetting its attempt count.
func (s *Store) Put(phone, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.codes[phone] = &issuedCode{
		code:      code,
		expiresAt: time.Now().Add(s.expiry),
	}
}

// Verify checks a submitted code. On success the code is consumed; a wrong
// code counts against the attempt limit, and expired or over-limit codes are
// deleted.
func (s *Store) Verify(phone, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	issued, exists := s.codes[phone]
	if !exists {
		return ErrCodeNotFound
	}

	if time.Now().After(issued.expiresAt) {
		delete(s.codes, phone)
		return ErrCodeExpired
	}

	if issued.attempts >= s.maxAttempts {
		delete(s.codes, phone)
		return ErrMaxAttempts
	}

	if issued.code != code {
		issued.attempts++
		return ErrInvalidCode
	}

	delete(s.codes, phone)
	return nil
}

// Delete drops the code for a phone number, if any.
func (s *Store) Delete(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, phone)
}

// Close stops the background cleanup loop.
func (s *Store) Close() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *Store) cleanupExpired() {
	defer s.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			now := time.Now()
			for phone, issued := range s.codes {
				if now.After(issued.expiresAt) {
					delete(s.codes, phone)
				}
			}
			s.mu.Unlock()
		case <-s.stopCh:
			return
		}
	}
}
