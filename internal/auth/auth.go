// Package auth implements the single-credential admin login: bcrypt
// password verification and HMAC-signed expiring session tokens. There is
// deliberately one account and one generic failure message; callers never
// learn which part of a credential was wrong.
package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers every login failure cause.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

// ErrInvalidSession covers malformed, forged, and expired session tokens.
var ErrInvalidSession = errors.New("auth: invalid session")

// Manager verifies the shared admin credential and mints session tokens.
type Manager struct {
	email        string
	passwordHash string
	secret       []byte
	ttl          time.Duration
}

// New creates a Manager. An empty secret is replaced with a random one,
// which means sessions do not survive a restart; supply a stable secret in
// production.
func New(email, passwordHash, secret string, ttl time.Duration) *Manager {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		rand.Read(key)
	}
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Manager{
		email:        email,
		passwordHash: passwordHash,
		secret:       key,
		ttl:          ttl,
	}
}

// HashPassword returns a bcrypt hash for storing in config.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(h), nil
}

// Login checks the credential pair and returns a session token. All
// failures map to ErrInvalidCredentials.
func (m *Manager) Login(email, password string) (string, error) {
	if m.passwordHash == "" {
		return "", ErrInvalidCredentials
	}
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(m.email)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(m.passwordHash), []byte(password)) == nil
	if !emailOK || !passOK {
		return "", ErrInvalidCredentials
	}
	return m.mint(time.Now().Add(m.ttl)), nil
}

// Verify checks a session token's signature and expiry.
func (m *Manager) Verify(token string) error {
	payload, sig, ok := strings.Cut(token, ".")
	if !ok {
		return ErrInvalidSession
	}
	if !hmac.Equal([]byte(sig), []byte(m.sign(payload))) {
		return ErrInvalidSession
	}

	raw, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return ErrInvalidSession
	}
	exp, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return ErrInvalidSession
	}
	if time.Now().Unix() >= exp {
		return ErrInvalidSession
	}
	return nil
}

// TTL reports the configured session lifetime, for cookie max-age.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// mint builds "base64(expiry-unix).hmac" for the given expiry.
func (m *Manager) mint(expiry time.Time) string {
	payload := base64.RawURLEncoding.EncodeToString(
		[]byte(strconv.FormatInt(expiry.Unix(), 10)))
	return payload + "." + m.sign(payload)
}

// sign computes the hex HMAC-SHA256 of a token payload.
func (m *Manager) sign(payload string) string {
	h := hmac.New(sha256.New, m.secret)
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
