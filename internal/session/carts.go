// Package session keeps each operator's open cart between requests.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go-bizpos/internal/pos"

	"github.com/redis/go-redis/v9"
)

var (
	_ pos.CartStore = (*MemoryCarts)(nil)
	_ pos.CartStore = (*RedisCarts)(nil)
)

// MemoryCarts is the single-process store used when no Redis is configured.
// Carts are deep-copied in and out so callers never share state.
type MemoryCarts struct {
	mu    sync.Mutex
	carts map[uint][]byte
}

func NewMemoryCarts() *MemoryCarts {
	return &MemoryCarts{carts: make(map[uint][]byte)}
}

func (m *MemoryCarts) Load(_ context.Context, operatorID uint) (*pos.Cart, error) {
	m.mu.Lock()
	raw, ok := m.carts[operatorID]
	m.mu.Unlock()
	if !ok {
		return pos.NewCart(), nil
	}
	return decodeCart(raw)
}

func (m *MemoryCarts) Save(_ context.Context, operatorID uint, cart *pos.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	m.mu.Lock()
	m.carts[operatorID] = raw
	m.mu.Unlock()
	return nil
}

func (m *MemoryCarts) Delete(_ context.Context, operatorID uint) error {
	m.mu.Lock()
	delete(m.carts, operatorID)
	m.mu.Unlock()
	return nil
}

// RedisCarts stores carts as JSON under "<prefix>cart:<operator>" and
// refreshes the TTL on every save, so idle carts expire on their own.
type RedisCarts struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCarts connects to redisURL and pings it before returning.
func NewRedisCarts(ctx context.Context, redisURL string, ttl time.Duration) (*RedisCarts, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisCartsWithClient(client, "bizpos:", ttl), nil
}

func NewRedisCartsWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisCarts {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &RedisCarts{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisCarts) key(operatorID uint) string {
	return fmt.Sprintf("%scart:%d", r.prefix, operatorID)
}

func (r *RedisCarts) Load(ctx context.Context, operatorID uint) (*pos.Cart, error) {
	raw, err := r.client.Get(ctx, r.key(operatorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return pos.NewCart(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return decodeCart(raw)
}

func (r *RedisCarts) Save(ctx context.Context, operatorID uint, cart *pos.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := r.client.Set(ctx, r.key(operatorID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func (r *RedisCarts) Delete(ctx context.Context, operatorID uint) error {
	if err := r.client.Del(ctx, r.key(operatorID)).Err(); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

func (r *RedisCarts) Close() error { return r.client.Close() }

func decodeCart(raw []byte) (*pos.Cart, error) {
	cart := pos.NewCart()
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}
	if cart.Items == nil {
		cart.Items = []pos.CartItem{}
	}
	if cart.PaymentMethod == "" {
		cart.PaymentMethod = pos.DefaultPaymentMethod
	}
	return cart, nil
}
