package config

import "time"

type AppConfig struct {
	ServerPort   string
	RateLimit    float64 // Requests per second
	BurstLimit   int     // Burst requests allowed
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPass     string
	DevicePath   string // Path to the serial device
	MaxQueueSize int    // Maximum delivery queue size
	SerialBaud   int

	// OTP settings
	CodeLength    int           // Digits per verification code
	CodeExpiry    time.Duration // How long an issued code stays valid
	MaxAttempts   int           // Failed verify attempts before the code is invalidated
	MaxRetries    int           // Resend requests allowed per phone number
	RetryCooldown time.Duration // Wait between resend requests
	ListenTimeout time.Duration // How long a listen window stays open
	SenderFilter  string        // Only accept inbound SMS from senders matching this

	// Android SMS Retriever identity
	PackageName string // Android application ID
	SigningCert string // Hex-encoded signing certificate fingerprint
}
