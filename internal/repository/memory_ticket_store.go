package repository

import (
	"context"
	"sync"
)

// MemoryTicketStore keeps the encoded collection in process memory.
// Every Load decodes a fresh copy, so callers never share slices with the store.
type MemoryTicketStore struct {
	mu      sync.Mutex
	version int64
	payload []byte
}

// NewMemoryTicketStore returns an empty store.
func NewMemoryTicketStore() *MemoryTicketStore {
	return &MemoryTicketStore{}
}

func (s *MemoryTicketStore) Load(ctx context.Context) (*Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	version, payload := s.version, s.payload
	s.mu.Unlock()

	tickets, err := decodeTickets(payload)
	if err != nil {
		return nil, err
	}
	return &Collection{Version: version, Tickets: tickets}, nil
}

func (s *MemoryTicketStore) Save(ctx context.Context, c *Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := encodeTickets(c.Tickets)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.version != c.Version {
		return ErrVersionConflict
	}
	s.version++
	s.payload = payload
	c.Version = s.version
	return nil
}

func (s *MemoryTicketStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
