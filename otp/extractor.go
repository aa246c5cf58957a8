package otp

import (
	"regexp"
	"strconv"
	"strings"
)

// MessageFormat classifies what kind of SMS a verification code arrived in.
type MessageFormat string

const (
	FormatRetriever     MessageFormat = "retriever"
	FormatPasswordReset MessageFormat = "password_reset"
	FormatVerification  MessageFormat = "verification"
	FormatLogin         MessageFormat = "login"
	FormatTransaction   MessageFormat = "transaction"
	FormatUnknown       MessageFormat = "unknown"
)

// Extract pulls a verification code of exactly `length` digits out of free
// SMS text. Patterns are tried in order of specificity; the first run of
// digits with the right length wins. Returns false when no pattern matches.
func Extract(message string, length int) (string, bool) {
	if length <= 0 || strings.TrimSpace(message) == "" {
		return "", false
	}

	n := strconv.Itoa(length)
	patterns := []*regexp.Regexp{
		// Android SMS Retriever bracket tag, digits somewhere after it
		regexp.MustCompile(`^\s*<#>\D*?(\d{` + n + `})\b`),
		// Keyword followed by the digits, optional "is"/separator in between
		regexp.MustCompile(`(?i)\b(?:code|otp|pin|password|verification)(?:\s+is)?\W{0,10}(\d{` + n + `})\b`),
		// "123456 is your ..." phrasing
		regexp.MustCompile(`(?i)\b(\d{` + n + `})\b\W{0,20}is your`),
		// "code: 123456" with a mandatory colon
		regexp.MustCompile(`(?i)\b(?:code|otp|pin)\s*:\s*(\d{` + n + `})\b`),
		// Last resort: a bare run of exactly the expected length
		regexp.MustCompile(`\b(\d{` + n + `})\b`),
	}

	for _, re := range patterns {
		if m := re.FindStringSubmatch(message); m != nil {
			if isAllDigits(m[1]) && len(m[1]) == length {
				return m[1], true
			}
		}
	}
	return "", false
}

// Classify derives the purpose of an SMS from its text. Stateless, recomputed
// per message. The retriever tag wins outright; password-reset is checked
// before login because reset messages usually also mention signing in.
func Classify(message string) MessageFormat {
	if strings.HasPrefix(strings.TrimSpace(message), "<#>") {
		return FormatRetriever
	}

	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "reset"):
		return FormatPasswordReset
	case strings.Contains(lower, "verif") || strings.Contains(lower, "confirm") || strings.Contains(lower, "activat"):
		return FormatVerification
	case strings.Contains(lower, "login") || strings.Contains(lower, "log in") || strings.Contains(lower, "sign in") || strings.Contains(lower, "sign-in"):
		return FormatLogin
	case strings.Contains(lower, "transaction") || strings.Contains(lower, "payment") || strings.Contains(lower, "purchase") || strings.Contains(lower, "transfer"):
		return FormatTransaction
	default:
		return FormatUnknown
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
