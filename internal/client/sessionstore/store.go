// Package sessionstore persists the single session record of the client so
// that an authenticated user survives process restarts.
//
// Every backend stores the session as one JSON object under a fixed logical
// key. Failures wrap common.ErrPersistence; a record that cannot be decoded
// into a session with an id additionally wraps ErrCorruptRecord. Callers are
// expected to treat both as "no session".
package sessionstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/workgroup/workgroup-client/internal/client/models"
	"github.com/workgroup/workgroup-client/internal/common"
)

// ErrCorruptRecord reports a stored record with an unrecognized shape.
var ErrCorruptRecord = fmt.Errorf("%w: corrupt session record", common.ErrPersistence)

// Store is the durable session record.
//
// Load returns (nil, nil) when nothing is stored. Clear of an empty store is
// not an error.
type Store interface {
	Load(ctx context.Context) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Clear(ctx context.Context) error
}

func encode(s *models.Session) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("%w: nil session", common.ErrPersistence)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrPersistence, err)
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("%w: encode session: %w", common.ErrPersistence, err)
	}
	return b, nil
}

func decode(raw []byte) (*models.Session, error) {
	var s models.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorruptRecord, err)
	}
	return &s, nil
}

func persistenceError(op string, err error) error {
	if errors.Is(err, common.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", common.ErrPersistence, op, err)
}
