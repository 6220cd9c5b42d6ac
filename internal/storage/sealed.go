package storage

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/nacl/secretbox"
)

const nonceSize = 24

var ErrCorrupt = errors.New("sealed entry cannot be opened")

// Sealed encrypts the values of selected keys before handing them to the
// wrapped store. Other keys pass through untouched.
type Sealed struct {
	inner Store
	key   [32]byte
	keys  map[string]bool
}

func NewSealed(inner Store, secret string, keys ...string) *Sealed {
	s := &Sealed{
		inner: inner,
		key:   sha256.Sum256([]byte(secret)),
		keys:  make(map[string]bool, len(keys)),
	}
	for _, k := range keys {
		s.keys[k] = true
	}
	return s
}

func (s *Sealed) Load(ctx context.Context, profileID, key string) ([]byte, error) {
	value, err := s.inner.Load(ctx, profileID, key)
	if err != nil || !s.keys[key] {
		return value, err
	}
	if len(value) < nonceSize+secretbox.Overhead {
		return nil, ErrCorrupt
	}

	var nonce [nonceSize]byte
	copy(nonce[:], value[:nonceSize])
	opened, ok := secretbox.Open(nil, value[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, ErrCorrupt
	}
	return opened, nil
}

func (s *Sealed) Save(ctx context.Context, profileID, key string, value []byte) error {
	if !s.keys[key] {
		return s.inner.Save(ctx, profileID, key, value)
	}

	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], value, &nonce, &s.key)
	return s.inner.Save(ctx, profileID, key, sealed)
}

func (s *Sealed) Delete(ctx context.Context, profileID, key string) error {
	return s.inner.Delete(ctx, profileID, key)
}

func (s *Sealed) Touch(ctx context.Context, profileID string) error {
	if t, ok := s.inner.(Toucher); ok {
		return t.Touch(ctx, profileID)
	}
	return nil
}

// Prune forwards to the wrapped store when it supports pruning.
func (s *Sealed) Prune(ctx context.Context, maxAge time.Duration) (int64, error) {
	if p, ok := s.inner.(Pruner); ok {
		return p.Prune(ctx, maxAge)
	}
	return 0, nil
}

func (s *Sealed) Close() error {
	return s.inner.Close()
}
