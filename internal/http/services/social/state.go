package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/tidasone/internal/cache"
	tokens "github.com/dropDatabas3/tidasone/internal/security/token"
)

const stateKeyPrefix = "oauth:state:"

// stateStore emite el state del login y lo consume en el callback.
// La clave es sha256(state); el valor es el proveedor que lo emitió.
type stateStore struct {
	c       cache.Client
	ttl     time.Duration
	enforce bool
}

func stateKey(state string) string {
	return stateKeyPrefix + tokens.SHA256Base64URL(state)
}

// Issue genera un state nuevo y lo guarda ligado a provider.
func (s *stateStore) Issue(ctx context.Context, provider string) (string, error) {
	state, err := tokens.NewState()
	if err != nil {
		return "", err
	}
	if s.c == nil {
		return state, nil
	}
	if err := s.c.Set(ctx, stateKey(state), provider, s.ttl); err != nil {
		return "", fmt.Errorf("state store: %w", err)
	}
	return state, nil
}

// Consume valida y quema el state. Sin enforce cualquier state pasa, pero
// si existe se borra igual.
func (s *stateStore) Consume(ctx context.Context, provider, state string) error {
	state = strings.TrimSpace(state)
	if s.c == nil || state == "" {
		if s.enforce {
			return ErrInvalidState
		}
		return nil
	}

	got, err := s.c.Take(ctx, stateKey(state))
	switch {
	case errors.Is(err, cache.ErrNotFound):
		if s.enforce {
			return ErrInvalidState
		}
		return nil
	case err != nil:
		return fmt.Errorf("state store: %w", err)
	}
	if s.enforce && got != provider {
		return ErrInvalidState
	}
	return nil
}
