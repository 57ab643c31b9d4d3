package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// GuestTokenPrefix marks guest bearer tokens.
const GuestTokenPrefix = "guest_"

// maxTokenAttempts bounds insert retries after token collisions.
const maxTokenAttempts = 8

// ErrTokensExhausted indicates every issued candidate collided.
var ErrTokensExhausted = errors.New("token issuance exhausted")

// TokenIssuer generates opaque tokens: 32 lowercase hex characters drawn
// from a random UUID, behind an optional prefix.
type TokenIssuer struct {
	prefix string
	random func() (uuid.UUID, error)
}

// NewTokenIssuer returns an issuer for tokens starting with prefix.
func NewTokenIssuer(prefix string) *TokenIssuer {
	return &TokenIssuer{prefix: prefix, random: uuid.NewRandom}
}

// IssueToken returns a fresh candidate token. Uniqueness is checked by the
// store on insert, not here.
func (t *TokenIssuer) IssueToken() (string, error) {
	random := uuid.NewRandom
	prefix := ""
	if t != nil {
		prefix = t.prefix
		if t.random != nil {
			random = t.random
		}
	}
	value, err := random()
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return prefix + strings.ReplaceAll(value.String(), "-", ""), nil
}

// insertWithFreshToken issues tokens and calls insert until it succeeds or
// fails with something other than ErrTokenConflict.
func insertWithFreshToken[T any](ctx context.Context, issuer *TokenIssuer, onCollision func(), insert func(token string) (T, error)) (T, error) {
	var zero T
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		token, err := issuer.IssueToken()
		if err != nil {
			return zero, err
		}
		record, err := insert(token)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, ErrTokenConflict) {
			return zero, err
		}
		if onCollision != nil {
			onCollision()
		}
	}
	return zero, ErrTokensExhausted
}
