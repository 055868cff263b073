package store

import (
	"context"
	"encoding/json"
	"fmt"

	"wowroster/internal/parser"
	"wowroster/internal/textutil"
	"wowroster/internal/worker"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS characters (
	hash        TEXT PRIMARY KEY,
	source_file TEXT NOT NULL,
	name        TEXT,
	fields      JSONB NOT NULL,
	ingested_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const upsertSQL = `
INSERT INTO characters (hash, source_file, name, fields)
VALUES ($1, $2, $3, $4)
ON CONFLICT (hash) DO UPDATE
SET source_file = EXCLUDED.source_file,
    ingested_at = now()`

// upsertBatchSize bounds the number of statements per round trip.
const upsertBatchSize = 100

// RosterStore persists parsed character records in PostgreSQL.
type RosterStore struct {
	pool *pgxpool.Pool
}

// NewRosterStore creates a new roster store.
func NewRosterStore(pool *pgxpool.Pool) *RosterStore {
	return &RosterStore{pool: pool}
}

// Connect opens and pings a PostgreSQL pool.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// EnsureSchema creates the characters table if needed.
func (s *RosterStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create characters table: %w", err)
	}
	return nil
}

// Upsert stores records read from source, deduplicated by content hash.
// It returns the number of rows affected.
func (s *RosterStore) Upsert(ctx context.Context, source string, records []parser.Record) (int, error) {
	rows := make([]Row, 0, len(records))
	for _, rec := range records {
		row, err := NewRow(source, rec)
		if err != nil {
			return 0, err
		}
		rows = append(rows, row)
	}

	affected := 0
	for _, chunk := range worker.Batch(rows, upsertBatchSize) {
		batch := &pgx.Batch{}
		for _, r := range chunk {
			batch.Queue(upsertSQL, r.Hash, r.SourceFile, r.Name, r.Fields)
		}

		br := s.pool.SendBatch(ctx, batch)
		for range chunk {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return affected, fmt.Errorf("upsert character: %w", err)
			}
			affected += int(tag.RowsAffected())
		}
		if err := br.Close(); err != nil {
			return affected, fmt.Errorf("close batch: %w", err)
		}
	}

	log.Info().Str("source", source).Int("rows", affected).Msg("Upserted characters")
	return affected, nil
}

// Row is the persisted form of a record.
type Row struct {
	Hash       string
	SourceFile string
	Name       *string
	Fields     []byte
}

// NewRow builds the persisted form of rec. The hash covers the record's
// canonical JSON, so identical characters collapse to one row.
func NewRow(source string, rec parser.Record) (Row, error) {
	fields, err := json.Marshal(rec)
	if err != nil {
		return Row{}, fmt.Errorf("encode record: %w", err)
	}

	row := Row{
		Hash:       textutil.Hash(fields),
		SourceFile: source,
		Fields:     fields,
	}
	if v, ok := rec["name"]; ok {
		name := v.String()
		row.Name = &name
	}
	return row, nil
}
