package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fixkit/repair-service/internal/domain"
)

// TicketCache is a read-through cache for ticket snapshots. Misses and redis
// failures are both treated as a miss; the database stays authoritative.
type TicketCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewTicketCache wraps a redis client. A nil client disables caching.
func NewTicketCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *TicketCache {
	return &TicketCache{client: client, ttl: ttl, logger: logger}
}

func (c *TicketCache) key(ticketID string) string {
	return "ticket:" + ticketID
}

// Get returns the cached snapshot or nil on miss.
func (c *TicketCache) Get(ctx context.Context, ticketID string) *domain.Ticket {
	if c == nil || c.client == nil || c.ttl <= 0 {
		return nil
	}
	raw, err := c.client.Get(ctx, c.key(ticketID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Debug("ticket cache read failed", zap.String("ticket_id", ticketID), zap.Error(err))
		}
		return nil
	}
	var ticket domain.Ticket
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return nil
	}
	return &ticket
}

// Put stores a snapshot with the configured TTL.
func (c *TicketCache) Put(ctx context.Context, ticket *domain.Ticket) {
	if c == nil || c.client == nil || c.ttl <= 0 || ticket == nil {
		return
	}
	raw, err := json.Marshal(ticket)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.key(ticket.ID), raw, c.ttl).Err(); err != nil {
		c.logger.Debug("ticket cache write failed", zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

// Invalidate drops a snapshot after a mutation.
func (c *TicketCache) Invalidate(ctx context.Context, ticketID string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, c.key(ticketID)).Err(); err != nil {
		c.logger.Debug("ticket cache invalidate failed", zap.String("ticket_id", ticketID), zap.Error(err))
	}
}
