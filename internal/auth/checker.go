package auth

import (
	"context"
	"crypto/subtle"
)

var _ Checker = (*KeyChecker)(nil)
var _ Checker = (*TestChecker)(nil)

// Checker decides whether a bearer credential may call the functions.
type Checker interface {
	IsAuthorized(ctx context.Context, credential string) (bool, error)
}

// KeyChecker accepts exactly the configured anon key.
type KeyChecker struct {
	key []byte
}

func NewKeyChecker(key string) *KeyChecker {
	return &KeyChecker{key: []byte(key)}
}

func (c *KeyChecker) IsAuthorized(_ context.Context, credential string) (bool, error) {
	if len(c.key) == 0 {
		return false, nil
	}
	return subtle.ConstantTimeCompare(c.key, []byte(credential)) == 1, nil
}

type TestChecker struct {
	Authorized map[string]bool
}

func NewTestChecker(credentials ...string) *TestChecker {
	c := &TestChecker{Authorized: map[string]bool{}}
	for _, cred := range credentials {
		c.Authorized[cred] = true
	}
	return c
}

func (c *TestChecker) IsAuthorized(_ context.Context, credential string) (bool, error) {
	return c.Authorized[credential], nil
}
