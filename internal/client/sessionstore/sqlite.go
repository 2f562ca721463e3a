package sessionstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/workgroup/workgroup-client/internal/client/models"
	"github.com/workgroup/workgroup-client/internal/client/repositories/metadata"
	"github.com/workgroup/workgroup-client/internal/common"
	"github.com/workgroup/workgroup-client/internal/dbx"
)

const savedAtSuffix = "_saved_at"

// SQLiteStore keeps the session in the local metadata table, next to the
// time it was last written.
type SQLiteStore struct {
	db  *sql.DB
	key string
	now func() time.Time
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, key: common.SessionRecordKey, now: time.Now}
}

func (s *SQLiteStore) Load(ctx context.Context) (*models.Session, error) {
	raw, err := metadata.NewSQLiteRepository(s.db).Get(ctx, s.key)
	if err != nil {
		return nil, persistenceError("load session", err)
	}
	if raw == nil {
		return nil, nil
	}
	return decode(raw)
}

func (s *SQLiteStore) Save(ctx context.Context, session *models.Session) error {
	raw, err := encode(session)
	if err != nil {
		return err
	}
	savedAt := []byte(s.now().UTC().Format(time.RFC3339Nano))

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, s.key, raw); err != nil {
			return err
		}
		return repo.Set(ctx, s.key+savedAtSuffix, savedAt)
	})
	if err != nil {
		return persistenceError("save session", err)
	}
	return nil
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if err := metadata.NewSQLiteRepository(s.db).Delete(ctx, s.key, s.key+savedAtSuffix); err != nil {
		return persistenceError("clear session", err)
	}
	return nil
}

// SavedAt returns when the session was last saved, or the zero time when no
// session is stored.
func (s *SQLiteStore) SavedAt(ctx context.Context) (time.Time, error) {
	raw, err := metadata.NewSQLiteRepository(s.db).Get(ctx, s.key+savedAtSuffix)
	if err != nil {
		return time.Time{}, persistenceError("load saved_at", err)
	}
	if raw == nil {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, string(raw))
	if err != nil {
		return time.Time{}, persistenceError("parse saved_at", err)
	}
	return t, nil
}
