package history

import (
	"context"
	"time"

	"github.com/kailas-cloud/catalog-query/internal/db"
)

// memStore is an in-memory implementation of the consumer interface.
type memStore struct {
	hashes  map[string]map[string]string
	lists   map[string][]string
	expires map[string]time.Duration

	hsetErr error
	calls   []string
}

func newMemStore() *memStore {
	return &memStore{
		hashes:  map[string]map[string]string{},
		lists:   map[string][]string{},
		expires: map[string]time.Duration{},
	}
}

func (m *memStore) HSet(_ context.Context, key string, fields map[string]string) error {
	m.calls = append(m.calls, "HSET "+key)
	if m.hsetErr != nil {
		return m.hsetErr
	}
	h, ok := m.hashes[key]
	if !ok {
		h = map[string]string{}
		m.hashes[key] = h
	}
	for k, v := range fields {
		h[k] = v
	}
	return nil
}

func (m *memStore) HGetAll(_ context.Context, key string) (map[string]string, error) {
	h, ok := m.hashes[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return h, nil
}

func (m *memStore) Expire(_ context.Context, key string, ttl time.Duration, _ bool) error {
	m.calls = append(m.calls, "EXPIRE "+key)
	m.expires[key] = ttl
	return nil
}

func (m *memStore) LPush(_ context.Context, key string, values ...string) error {
	m.calls = append(m.calls, "LPUSH "+key)
	for _, v := range values {
		m.lists[key] = append([]string{v}, m.lists[key]...)
	}
	return nil
}

func (m *memStore) LTrim(_ context.Context, key string, start, stop int64) error {
	m.calls = append(m.calls, "LTRIM "+key)
	l := m.lists[key]
	if int(stop)+1 < len(l) {
		m.lists[key] = l[start : stop+1]
	}
	return nil
}

func (m *memStore) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	l := m.lists[key]
	end := min(int(stop)+1, len(l))
	if int(start) >= end {
		return nil, nil
	}
	return l[start:end], nil
}
