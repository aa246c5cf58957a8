package sms

import (
	"log"
	"strings"
	"sync"
	"time"
)

// Monitor polls a GSM modem for unread inbound SMS and hands each one to the
// configured handler. It is the hardware-side counterpart of the Android SMS
// Retriever broadcast: received messages are pushed into the OTP controller
// as they arrive.
type Monitor struct {
	port     modemPort
	interval time.Duration
	handler  func(sender, body string)
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

type modemPort interface {
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
}

func NewMonitor(port modemPort, interval time.Duration, handler func(sender, body string)) *Monitor {
	return &Monitor{
		port:     port,
		interval: interval,
		handler:  handler,
		stopCh:   make(chan struct{}),
	}
}

// Start begins polling the modem.
func (m *Monitor) Start() {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.poll()
			case <-m.stopCh:
				return
			}
		}
	}()
}

// Stop halts polling.
func (m *Monitor) Stop() {
	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) poll() {
	// List unread messages in text mode
	if _, err := m.port.Write([]byte("AT+CMGF=1\r")); err != nil {
		log.Printf("Failed to set modem text mode: %v", err)
		return
	}
	if _, err := m.port.Write([]byte(`AT+CMGL="REC UNREAD"` + "\r")); err != nil {
		log.Printf("Failed to list unread SMS: %v", err)
		return
	}

	response := make([]byte, 4096)
	n, err := m.port.Read(response)
	if err != nil || n == 0 {
		return
	}

	for _, msg := range ParseCMGL(string(response[:n])) {
		m.handler(msg.Sender, msg.Body)
	}
}

// InboundMessage is one SMS parsed out of a modem AT+CMGL response.
type InboundMessage struct {
	Sender string
	Body   string
}

// ParseCMGL parses the modem response to AT+CMGL. Each entry is a header
// line of the form
//
//	+CMGL: <index>,"REC UNREAD","<sender>",,"<timestamp>"
//
// followed by the message body on the next line(s), up to the next header or
// the final OK.
func ParseCMGL(response string) []InboundMessage {
	var messages []InboundMessage
	var current *InboundMessage

	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimRight(line, "\r")

		if strings.HasPrefix(line, "+CMGL:") {
			if current != nil {
				current.Body = strings.TrimSpace(current.Body)
				messages = append(messages, *current)
			}
			current = &InboundMessage{Sender: cmglSender(line)}
			continue
		}

		if line == "OK" || strings.HasPrefix(line, "ERROR") {
			break
		}

		if current != nil {
			if current.Body != "" {
				current.Body += "\n"
			}
			current.Body += line
		}
	}

	if current != nil {
		current.Body = strings.TrimSpace(current.Body)
		messages = append(messages, *current)
	}

	// Drop entries whose body never arrived
	filtered := messages[:0]
	for _, msg := range messages {
		if msg.Body != "" {
			filtered = append(filtered, msg)
		}
	}
	return filtered
}

// cmglSender pulls the sender number out of a +CMGL header line. The sender
// is the second quoted field.
func cmglSender(line string) string {
	parts := strings.Split(line, `"`)
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}
