package sms

import (
	"fmt"
	"strings"

	"otp_gateway/retriever"
)

// BuildCodeMessage renders the plain verification SMS body.
func BuildCodeMessage(code string) string {
	return fmt.Sprintf("%s is your verification code. Do not share it with anyone.", code)
}

// BuildRetrieverMessage renders the body in the Android SMS Retriever format
// so the app can read it without SMS permissions.
func BuildRetrieverMessage(code, appHash string) string {
	return retriever.BuildMessage(BuildCodeMessage(code), appHash)
}

// MaskPhone obfuscates a phone number for logging.
func MaskPhone(phone string) string {
	if len(phone) > 4 {
		return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
	}
	return "****"
}
