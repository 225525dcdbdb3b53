package token

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	engineerTokenBytes = 32

	// shortCodeAlphabet avoids characters that read ambiguously in
	// hand-typed links (0/O, 1/l/I).
	shortCodeAlphabet = "23456789abcdefghjkmnpqrstuvwxyz"
	shortCodeLength   = 8
)

// JobCredentials is the full set of opaque identifiers minted once at
// job creation. None of them rotate across lifecycle transitions; the
// engineer token is the engineer's only credential for the job, and
// the short code is a compact alias that resolves to it.
type JobCredentials struct {
	JobToken      string
	EngineerToken string
	ShortCode     string
}

// Authority mints job credentials.
type Authority struct{}

// NewAuthority creates a token authority.
func NewAuthority() *Authority {
	return &Authority{}
}

// Issue mints the credentials for a new job. The engineer token is
// minted even though no engineer exists yet, so later re-assignment
// never churns already-shared links.
func (a *Authority) Issue() (JobCredentials, error) {
	engineerToken, err := a.mintEngineerToken()
	if err != nil {
		return JobCredentials{}, err
	}

	shortCode, err := gonanoid.Generate(shortCodeAlphabet, shortCodeLength)
	if err != nil {
		return JobCredentials{}, fmt.Errorf("failed to mint short code: %w", err)
	}

	return JobCredentials{
		JobToken:      uuid.New().String(),
		EngineerToken: engineerToken,
		ShortCode:     shortCode,
	}, nil
}

// mintEngineerToken returns a high-entropy, URL-safe opaque token.
func (a *Authority) mintEngineerToken() (string, error) {
	buf := make([]byte, engineerTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to mint engineer token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}
