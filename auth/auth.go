// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	ErrInvalidAdminKey = errors.New("invalid admin key")
	ErrInvalidToken    = errors.New("invalid token format")
	ErrBadSignature    = errors.New("voter token signature mismatch")
)

// GenerateAdminKey creates an HMAC-based admin key for a vote context
// This is deterministic and verifiable
func GenerateAdminKey(contextID, salt string) string {
	return sign("admin:"+contextID, salt)
}

// ValidateAdminKey checks if the provided admin key is valid for the context
func ValidateAdminKey(contextID, adminKey, salt string) error {
	expected := GenerateAdminKey(contextID, salt)
	if !hmac.Equal([]byte(adminKey), []byte(expected)) {
		return ErrInvalidAdminKey
	}
	return nil
}

// IssueVoterToken binds a voter ID to a signature so it cannot be forged.
// The portal's session layer issues these; the voting API only verifies them.
func IssueVoterToken(voterID, salt string) string {
	encoded := base64.RawURLEncoding.EncodeToString([]byte(voterID))
	return encoded + "." + sign("voter:"+voterID, salt)
}

// VoterFromToken verifies a token and returns the voter ID it carries
func VoterFromToken(token, salt string) (string, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || sig == "" {
		return "", ErrInvalidToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil || len(raw) == 0 {
		return "", ErrInvalidToken
	}
	voterID := string(raw)

	expected := sign("voter:"+voterID, salt)
	if !hmac.Equal([]byte(sig), []byte(expected)) {
		return "", ErrBadSignature
	}
	return voterID, nil
}

// sign returns URL-safe base64 HMAC-SHA256 of msg, without padding
func sign(msg, salt string) string {
	h := hmac.New(sha256.New, []byte(salt))
	h.Write([]byte(msg))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}
