package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/i474232898/date-planner/internal/conversation"
	"github.com/i474232898/date-planner/internal/location"
	"github.com/i474232898/date-planner/internal/weather"
	"github.com/i474232898/date-planner/pkg/local"
)

// SQLiteStore keeps sessions and their messages in two tables. Messages are
// only ever inserted, matching the append-only history.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create database directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("cannot open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database migration failed: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id          TEXT PRIMARY KEY,
		language    TEXT NOT NULL,
		device      TEXT,
		location    TEXT,
		created_at  INTEGER NOT NULL,
		updated_at  INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		session_id    TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		position      INTEGER NOT NULL,
		content       TEXT NOT NULL,
		is_user       INTEGER NOT NULL,
		weather_card  TEXT,
		created_at    INTEGER NOT NULL,
		PRIMARY KEY (session_id, position)
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_updated ON sessions(updated_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Save(ctx context.Context, sess *conversation.Session) error {
	device, err := marshalNullable(sess.Device)
	if err != nil {
		return err
	}
	loc, err := marshalNullable(sess.Location)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO sessions (id, language, device, location, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			language = excluded.language,
			device = excluded.device,
			location = excluded.location,
			updated_at = excluded.updated_at`,
		sess.ID.String(), string(sess.Language), device, loc,
		sess.CreatedAt.UnixMilli(), sess.UpdatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", sess.ID, err)
	}

	var stored int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE session_id = ?`, sess.ID.String()).Scan(&stored); err != nil {
		return err
	}

	for i := stored; i < len(sess.Messages); i++ {
		m := sess.Messages[i]
		card, err := marshalNullable(m.WeatherCard)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO messages (session_id, position, content, is_user, weather_card, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			sess.ID.String(), i, m.Content, m.IsUser, card, m.CreatedAt.UnixMilli())
		if err != nil {
			return fmt.Errorf("failed to insert message %d of %s: %w", i, sess.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) Get(ctx context.Context, id uuid.UUID) (*conversation.Session, error) {
	var (
		lang             string
		device, loc      sql.NullString
		created, updated int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT language, device, location, created_at, updated_at
		FROM sessions WHERE id = ?`, id.String()).Scan(&lang, &device, &loc, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session %s: %w", id, err)
	}

	sess := &conversation.Session{
		ID:        id,
		Language:  local.Language(lang),
		Messages:  make([]conversation.Message, 0),
		CreatedAt: time.UnixMilli(created).UTC(),
		UpdatedAt: time.UnixMilli(updated).UTC(),
	}
	if device.Valid {
		sess.Device = &location.ReportedPosition{}
		if err := json.Unmarshal([]byte(device.String), sess.Device); err != nil {
			return nil, fmt.Errorf("failed to decode device of %s: %w", id, err)
		}
	}
	if loc.Valid {
		sess.Location = &location.Snapshot{}
		if err := json.Unmarshal([]byte(loc.String), sess.Location); err != nil {
			return nil, fmt.Errorf("failed to decode location of %s: %w", id, err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT content, is_user, weather_card, created_at
		FROM messages WHERE session_id = ? ORDER BY position`, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			m       conversation.Message
			card    sql.NullString
			created int64
		)
		if err := rows.Scan(&m.Content, &m.IsUser, &card, &created); err != nil {
			return nil, err
		}
		m.CreatedAt = time.UnixMilli(created).UTC()
		if card.Valid {
			m.WeatherCard = &weather.Card{}
			if err := json.Unmarshal([]byte(card.String), m.WeatherCard); err != nil {
				return nil, fmt.Errorf("failed to decode weather card of %s: %w", id, err)
			}
		}
		sess.Messages = append(sess.Messages, m)
	}
	return sess, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = ?`, id.String()); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id.String()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) DeleteIdle(ctx context.Context, before time.Time) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	cutoff := before.UnixMilli()
	if _, err := tx.ExecContext(ctx, `
		DELETE FROM messages WHERE session_id IN (SELECT id FROM sessions WHERE updated_at < ?)`, cutoff); err != nil {
		return 0, err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE updated_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), tx.Commit()
}

// Ping checks the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// marshalNullable encodes v as JSON, mapping nil pointers to NULL.
func marshalNullable(v interface{}) (sql.NullString, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	if string(raw) == "null" {
		return sql.NullString{}, nil
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}
