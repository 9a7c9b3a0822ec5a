package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"windreseller/internal/config"
)

// UpdateDeduper tracks processed Telegram update IDs so a redelivered
// webhook cannot create a second order or double-count a receipt.
type UpdateDeduper interface {
	Seen(ctx context.Context, updateID int64) (bool, error)
}

type redisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func (d *redisDeduper) Seen(ctx context.Context, updateID int64) (bool, error) {
	key := "wr:update:" + strconv.FormatInt(updateID, 10)
	fresh, err := d.client.SetNX(ctx, key, "1", d.ttl).Result()
	if err != nil {
		return false, err
	}
	return !fresh, nil
}

type memoryDeduper struct {
	mu     sync.Mutex
	seen   map[int64]time.Time
	ttl    time.Duration
	nextGC time.Time
}

func (d *memoryDeduper) Seen(_ context.Context, updateID int64) (bool, error) {
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if exp, ok := d.seen[updateID]; ok && exp.After(now) {
		return true, nil
	}
	d.seen[updateID] = now.Add(d.ttl)

	if now.After(d.nextGC) {
		for id, exp := range d.seen {
			if exp.Before(now) {
				delete(d.seen, id)
			}
		}
		d.nextGC = now.Add(d.ttl)
	}
	return false, nil
}

// NewUpdateDeduper builds a Redis-backed deduper, falling back to an
// in-memory map when Redis is not reachable. The returned error
// reports the fallback; the deduper is usable either way.
func NewUpdateDeduper(cfg config.RedisConfig, ttl time.Duration) (UpdateDeduper, error) {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	mem := &memoryDeduper{seen: make(map[int64]time.Time), ttl: ttl, nextGC: time.Now().Add(ttl)}
	if cfg.Addr == "" {
		return mem, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Pass,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return mem, err
	}
	return &redisDeduper{client: client, ttl: ttl}, nil
}

// TelegramUpdateDedup drops duplicate webhook deliveries by update_id.
// Telegram only needs a 2xx response to stop retrying.
func TelegramUpdateDedup(deduper UpdateDeduper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if deduper == nil {
				return next(c)
			}
			req := c.Request()
			if req.Body == nil {
				return next(c)
			}
			rawBody, err := io.ReadAll(req.Body)
			if err != nil {
				return next(c)
			}
			req.Body = io.NopCloser(bytes.NewBuffer(rawBody))
			if len(rawBody) == 0 {
				return next(c)
			}

			var payload struct {
				UpdateID int64 `json:"update_id"`
			}
			if err := json.Unmarshal(rawBody, &payload); err != nil || payload.UpdateID == 0 {
				return next(c)
			}

			duplicate, err := deduper.Seen(req.Context(), payload.UpdateID)
			if err != nil {
				return next(c)
			}
			if duplicate {
				return c.NoContent(http.StatusOK)
			}
			return next(c)
		}
	}
}
