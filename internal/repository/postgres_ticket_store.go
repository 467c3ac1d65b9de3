package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresTicketStore struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgresTicketStore stores the collection as one JSONB row keyed by key.
func NewPostgresTicketStore(pool *pgxpool.Pool, key string) TicketStore {
	return &postgresTicketStore{pool: pool, key: key}
}

func (r *postgresTicketStore) Load(ctx context.Context) (*Collection, error) {
	const query = `SELECT version, body FROM ticket_documents WHERE doc_key=$1`
	var (
		version int64
		body    []byte
	)
	if err := r.pool.QueryRow(ctx, query, r.key).Scan(&version, &body); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &Collection{}, nil
		}
		return nil, err
	}
	tickets, err := decodeTickets(body)
	if err != nil {
		return nil, err
	}
	return &Collection{Version: version, Tickets: tickets}, nil
}

func (r *postgresTicketStore) Save(ctx context.Context, c *Collection) error {
	body, err := encodeTickets(c.Tickets)
	if err != nil {
		return err
	}

	if c.Version == 0 {
		const insert = `
        INSERT INTO ticket_documents (doc_key, version, body)
        VALUES ($1, 1, $2)
        ON CONFLICT (doc_key) DO NOTHING`
		cmd, err := r.pool.Exec(ctx, insert, r.key, body)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return ErrVersionConflict
		}
		c.Version = 1
		return nil
	}

	const update = `
        UPDATE ticket_documents SET version=version+1, body=$2, updated_at=NOW()
        WHERE doc_key=$1 AND version=$3`
	cmd, err := r.pool.Exec(ctx, update, r.key, body, c.Version)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	c.Version++
	return nil
}

func (r *postgresTicketStore) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
