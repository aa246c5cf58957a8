// Package retriever implements the Android SMS Retriever message format: a
// message starting with "<#>" and ending with an 11-character hash derived
// from the app's package name and signing certificate. Phones drop retriever
// messages whose hash does not match the installed app, so the gateway has to
// compute the same hash Play Services does.
package retriever

import (
	"crypto/sha256"
	"encoding/base64"
	"strings"
)

const (
	// Tag opens every retriever message.
	Tag = "<#>"
	// HashLength is the fixed length of the app-signature hash.
	HashLength = 11
)

// AppHash derives the app-signature hash: SHA-256 over the package name and
// signing certificate joined by a single space, truncated to 9 bytes,
// Base64-encoded, first 11 characters. Deterministic for a given identity.
func AppHash(packageName, signingCert string) string {
	sum := sha256.Sum256([]byte(packageName + " " + signingCert))
	encoded := base64.StdEncoding.EncodeToString(sum[:9])
	return encoded[:HashLength]
}

// BuildMessage wraps a message body in the retriever wire format.
func BuildMessage(body, hash string) string {
	return Tag + " " + strings.TrimSpace(body) + " " + hash
}

// ParseMessage splits a retriever message into body and hash. Returns false
// when the message does not carry the tag or a trailing 11-character hash.
func ParseMessage(message string) (body, hash string, ok bool) {
	trimmed := strings.TrimSpace(message)
	if !strings.HasPrefix(trimmed, Tag) {
		return "", "", false
	}

	rest := strings.TrimSpace(strings.TrimPrefix(trimmed, Tag))
	idx := strings.LastIndexByte(rest, ' ')
	if idx < 0 {
		return "", "", false
	}

	hash = rest[idx+1:]
	if len(hash) != HashLength {
		return "", "", false
	}
	return strings.TrimSpace(rest[:idx]), hash, true
}

// MatchesApp reports whether a retriever message is addressed to the app
// identified by the given hash.
func MatchesApp(message, appHash string) bool {
	_, hash, ok := ParseMessage(message)
	return ok && hash == appHash
}
