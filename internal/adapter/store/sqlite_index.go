package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"regexp"

	_ "modernc.org/sqlite"

	"oracle/internal/domain"
	"oracle/internal/port"
)

var collectionName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteIndex implements port.Index on a SQLite file. Embeddings are stored as
// little-endian float32 blobs and ranked in process.
type SQLiteIndex struct {
	db         *sql.DB
	collection string
	dimension  int
}

// OpenSQLiteIndex opens (or creates) the SQLite index at path.
func OpenSQLiteIndex(ctx context.Context, path, collection string, dimension int) (*SQLiteIndex, error) {
	if !collectionName.MatchString(collection) {
		return nil, fmt.Errorf("invalid collection name %q", collection)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite db: %w", err)
	}
	// One connection keeps the PRAGMAs and writes on the same handle.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
  id TEXT PRIMARY KEY,
  seq INTEGER NOT NULL,
  filename TEXT NOT NULL,
  chunk_index INTEGER NOT NULL,
  text TEXT NOT NULL,
  embedding BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS index_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`, collection)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	idx := &SQLiteIndex{db: db, collection: collection, dimension: dimension}
	if err := idx.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return idx, nil
}

func (s *SQLiteIndex) migrate(ctx context.Context) error {
	var version int
	err := s.db.QueryRowContext(ctx, `SELECT CAST(value AS INTEGER) FROM index_meta WHERE key = 'schema_version'`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.setMeta(ctx, "schema_version", fmt.Sprint(CurrentSchemaVersion))
	case err != nil:
		return fmt.Errorf("failed to read schema version: %w", err)
	case version > CurrentSchemaVersion:
		return fmt.Errorf("%w (v%d > v%d)", ErrNewerSchema, version, CurrentSchemaVersion)
	}
	return nil
}

func (s *SQLiteIndex) Add(ctx context.Context, entries []domain.IndexedEntry) error {
	for _, e := range entries {
		if len(e.Embedding) != s.dimension {
			return fmt.Errorf("vector dimension mismatch for %s: expected %d, got %d", e.ID, s.dimension, len(e.Embedding))
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT COALESCE(MAX(seq), -1) + 1 FROM %s`, s.collection)).Scan(&seq); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		`INSERT INTO %s(id, seq, filename, chunk_index, text, embedding) VALUES(?, ?, ?, ?, ?, ?)`, s.collection))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.ID, seq+int64(i), e.Metadata.Filename, e.Metadata.ChunkIndex, e.Text, encodeVector(e.Embedding)); err != nil {
			return fmt.Errorf("failed to insert %s: %w", e.ID, err)
		}
	}

	return tx.Commit()
}

func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, k int) ([]port.IndexHit, error) {
	if len(vector) != s.dimension {
		return nil, fmt.Errorf("query dimension mismatch: expected %d, got %d", s.dimension, len(vector))
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(
		`SELECT id, filename, chunk_index, text, embedding FROM %s ORDER BY seq`, s.collection))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []Candidate
	for rows.Next() {
		var (
			c    Candidate
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Metadata.Filename, &c.Metadata.ChunkIndex, &c.Text, &blob); err != nil {
			return nil, err
		}
		c.Vector = decodeVector(blob)
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return Rank(vector, candidates, k), nil
}

func (s *SQLiteIndex) Clear(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, s.collection)); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM index_meta WHERE key = 'fingerprint'`); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, s.collection)).Scan(&n)
	return n, err
}

func (s *SQLiteIndex) Name() string {
	return s.collection
}

func (s *SQLiteIndex) Fingerprint(ctx context.Context) (string, error) {
	var fp string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'fingerprint'`).Scan(&fp)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return fp, err
}

func (s *SQLiteIndex) SetFingerprint(ctx context.Context, fp string) error {
	return s.setMeta(ctx, "fingerprint", fp)
}

func (s *SQLiteIndex) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO index_meta(key, value) VALUES(?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value`, key, value)
	return err
}

func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return v
}
