package sms

import (
	"log"
	"sync"
)

// Message is one outbound SMS carrying a verification code.
type Message struct {
	Recipient string
	Body      string
}

// Queue delivers verification SMS in the background with pluggable sender
// options. When the preferred provider fails the other configured sender is
// tried before the message is dropped.
type Queue struct {
	queue        chan *Message
	stopCh       chan struct{}
	wg           sync.WaitGroup
	hardwareSend func(*Message) error // GSM modem sender
	twilioSend   func(*Message) error // Twilio REST sender
	provider     string               // Preferred provider ("hardware" or "twilio")
}

func NewQueue(bufferSize int) *Queue {
	return &Queue{
		queue:  make(chan *Message, bufferSize),
		stopCh: make(chan struct{}),
	}
}

// SetProvider sets the preferred SMS provider.
func (q *Queue) SetProvider(provider string) {
	q.provider = provider
}

// SetHardwareSender configures the GSM modem sender.
func (q *Queue) SetHardwareSender(sendFunc func(*Message) error) {
	q.hardwareSend = sendFunc
}

// SetTwilioSender configures the Twilio sender.
func (q *Queue) SetTwilioSender(sendFunc func(*Message) error) {
	q.twilioSend = sendFunc
}

// Send queues a message for delivery. Blocks when the queue is full.
func (q *Queue) Send(msg *Message) {
	q.queue <- msg
}

// Start begins processing the queue.
func (q *Queue) Start() {
	q.wg.Add(1)
	go func() {
		defer q.wg.Done()
		for {
			select {
			case msg := <-q.queue:
				q.deliver(msg)
			case <-q.stopCh:
				return
			}
		}
	}()
}

// Stop shuts the queue down. Messages still buffered are not delivered.
func (q *Queue) Stop() {
	close(q.stopCh)
	q.wg.Wait()
}

func (q *Queue) deliver(msg *Message) {
	primary, fallback := q.twilioSend, q.hardwareSend
	if q.provider == "hardware" {
		primary, fallback = q.hardwareSend, q.twilioSend
	}

	if primary == nil {
		primary, fallback = fallback, nil
	}
	if primary == nil {
		log.Println("No sender configured, dropping message")
		return
	}

	err := primary(msg)
	if err == nil {
		return
	}
	log.Printf("Failed to send SMS to %s: %v", MaskPhone(msg.Recipient), err)

	if fallback != nil {
		if err := fallback(msg); err != nil {
			log.Printf("Fallback sender also failed for %s: %v", MaskPhone(msg.Recipient), err)
		}
	}
}
