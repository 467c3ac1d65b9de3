package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisTicketStore struct {
	client *redis.Client
	key    string
}

// NewRedisTicketStore stores the collection as a JSON string under key.
// Writes run inside WATCH/MULTI so a concurrent writer aborts the transaction.
func NewRedisTicketStore(client *redis.Client, key string) TicketStore {
	return &redisTicketStore{client: client, key: key}
}

type redisDocument struct {
	Version int64           `json:"version"`
	Tickets json.RawMessage `json:"tickets"`
}

func (r *redisTicketStore) Load(ctx context.Context) (*Collection, error) {
	doc, err := r.read(ctx, r.client)
	if err != nil {
		return nil, err
	}
	tickets, err := decodeTickets(doc.Tickets)
	if err != nil {
		return nil, err
	}
	return &Collection{Version: doc.Version, Tickets: tickets}, nil
}

func (r *redisTicketStore) Save(ctx context.Context, c *Collection) error {
	body, err := encodeTickets(c.Tickets)
	if err != nil {
		return err
	}
	next := c.Version + 1
	payload, err := json.Marshal(redisDocument{Version: next, Tickets: body})
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := r.read(ctx, tx)
		if err != nil {
			return err
		}
		if current.Version != c.Version {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, r.key, payload, 0)
			return nil
		})
		return err
	}, r.key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return err
	}
	c.Version = next
	return nil
}

func (r *redisTicketStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (r *redisTicketStore) read(ctx context.Context, cmd stringGetter) (redisDocument, error) {
	var doc redisDocument
	raw, err := cmd.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return doc, nil
	}
	if err != nil {
		return doc, err
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}
