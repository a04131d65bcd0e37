// Package credentials keeps collaborator API keys in the integration_tokens
// table so operators can rotate them without redeploying.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"magiceraser/internal/infra"
	"magiceraser/internal/sqlinline"
)

const ProviderGemini = "gemini"

// Key is a stored provider key.
type Key struct {
	Provider  string
	Value     string
	UpdatedAt time.Time
}

// Masked shows the last four characters only.
func (k Key) Masked() string {
	if len(k.Value) <= 4 {
		return strings.Repeat("*", len(k.Value))
	}
	return strings.Repeat("*", len(k.Value)-4) + k.Value[len(k.Value)-4:]
}

type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

// Lookup returns the stored key for provider. ok is false when none is stored.
func (s *Store) Lookup(ctx context.Context, provider string) (key Key, ok bool, err error) {
	key.Provider = provider
	if err := s.sql.QueryRow(ctx, sqlinline.QSelectProviderKey, provider).Scan(&key.Value, &key.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return Key{}, false, nil
		}
		return Key{}, false, fmt.Errorf("lookup %s key: %w", provider, err)
	}
	key.Value = strings.TrimSpace(key.Value)
	return key, key.Value != "", nil
}

// Put stores value for provider. props are merged into the row's properties.
func (s *Store) Put(ctx context.Context, provider, value string, props map[string]any) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("api key is required")
	}
	if props == nil {
		props = map[string]any{}
	}
	raw, err := json.Marshal(props)
	if err != nil {
		return time.Time{}, err
	}
	var updated time.Time
	if err := s.sql.QueryRow(ctx, sqlinline.QPutProviderKey, provider, value, raw).Scan(&updated); err != nil {
		return time.Time{}, fmt.Errorf("store %s key: %w", provider, err)
	}
	return updated, nil
}

// Revoke deletes the stored key and reports whether one existed.
func (s *Store) Revoke(ctx context.Context, provider string) (bool, error) {
	tag, err := s.sql.Exec(ctx, sqlinline.QDeleteProviderKey, provider)
	if err != nil {
		return false, fmt.Errorf("revoke %s key: %w", provider, err)
	}
	return tag.RowsAffected() > 0, nil
}

// ResolveGeminiAPIKey prefers a non-empty configured key and falls back to
// the stored one. A nil store resolves to the configured key.
func (s *Store) ResolveGeminiAPIKey(ctx context.Context, configured string) (key, source string, err error) {
	if k := strings.TrimSpace(configured); k != "" {
		return k, "env", nil
	}
	if s == nil || s.sql == nil {
		return "", "", nil
	}
	stored, ok, err := s.Lookup(ctx, ProviderGemini)
	if err != nil || !ok {
		return "", "", err
	}
	return stored.Value, "database", nil
}
