// Shopranker - Storefront Recommendation and Engagement Ranking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopranker

package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/tomtom215/shopranker/internal/config"
	"github.com/tomtom215/shopranker/internal/models"
)

// redisDocField holds the product document without counters. Counters live in
// their own hash fields so HINCRBY can update them in place.
const redisDocField = "doc"

var redisCounterFields = []string{
	string(models.CounterViews),
	string(models.CounterLikes),
	string(models.CounterShares),
	string(models.CounterPurchases),
}

// incrementScript refuses to create a hash for an unknown product.
var incrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return false
end
redis.call('HINCRBY', KEYS[1], ARGV[1], 1)
return redis.call('HMGET', KEYS[1], 'views', 'likes', 'shares', 'purchases')
`)

// Redis stores each product as a hash, the id set as a set, and each user's
// interactions as a list of JSON documents.
type Redis struct {
	client *redis.Client
	prefix string
}

// OpenRedis connects to cfg.Addr, which may be host:port or a redis:// URL,
// and pings the server.
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*Redis, error) {
	var opt *redis.Options
	if strings.HasPrefix(cfg.Addr, "redis://") || strings.HasPrefix(cfg.Addr, "rediss://") {
		parsed, err := redis.ParseURL(cfg.Addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		opt = parsed
	} else {
		opt = &redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opt.Addr, err)
	}
	return NewRedisFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisFromClient wraps an existing client.
func NewRedisFromClient(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Name() string { return config.BackendRedis }

func (r *Redis) Ping(ctx context.Context) error { return r.client.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.client.Close() }

func (r *Redis) productKey(id string) string { return r.prefix + "product:" + id }
func (r *Redis) productSetKey() string { return r.prefix + "products" }
func (r *Redis) interactionKey(userID string) string { return r.prefix + "interactions:" + userID }

func (r *Redis) PutProduct(ctx context.Context, p models.Product) error {
	if p.ID == "" {
		return models.Invalidf("put_product", "product id is required")
	}
	counters := p.Analytics
	p.Analytics = models.Counters{}
	doc, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.productKey(p.ID),
			redisDocField, doc,
			string(models.CounterViews), counters.Views,
			string(models.CounterLikes), counters.Likes,
			string(models.CounterShares), counters.Shares,
			string(models.CounterPurchases), counters.Purchases,
		)
		pipe.SAdd(ctx, r.productSetKey(), p.ID)
		return nil
	})
	return err
}

func decodeRedisProduct(fields map[string]string) (models.Product, error) {
	var p models.Product
	if err := json.Unmarshal([]byte(fields[redisDocField]), &p); err != nil {
		return p, fmt.Errorf("decode product: %w", err)
	}
	vals := make([]any, len(redisCounterFields))
	for i, f := range redisCounterFields {
		vals[i] = fields[f]
	}
	c, err := parseRedisCounters(vals)
	if err != nil {
		return p, err
	}
	p.Analytics = c
	return p, nil
}

func parseRedisCounters(vals []any) (models.Counters, error) {
	var n [4]int64
	for i, v := range vals {
		if i >= len(n) {
			break
		}
		s, _ := v.(string)
		if s == "" {
			continue
		}
		parsed, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return models.Counters{}, fmt.Errorf("parse counter %s: %w", redisCounterFields[i], err)
		}
		n[i] = parsed
	}
	return models.Counters{Views: n[0], Likes: n[1], Shares: n[2], Purchases: n[3]}, nil
}

func (r *Redis) GetProduct(ctx context.Context, id string) (models.Product, error) {
	fields, err := r.client.HGetAll(ctx, r.productKey(id)).Result()
	if err != nil {
		return models.Product{}, err
	}
	if len(fields) == 0 {
		return models.Product{}, models.NotFoundf("get_product", id)
	}
	return decodeRedisProduct(fields)
}

func (r *Redis) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	ids, err := r.client.SMembers(ctx, r.productSetKey()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(ids)

	pipe := r.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, r.productKey(id))
	}
	if len(ids) > 0 {
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, err
		}
	}

	out := make([]models.Product, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		p, err := decodeRedisProduct(fields)
		if err != nil {
			return nil, err
		}
		if filter.Match(&p) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *Redis) Increment(ctx context.Context, id string, kind models.CounterKind) (models.Counters, error) {
	res, err := incrementScript.Run(ctx, r.client, []string{r.productKey(id)}, string(kind)).Slice()
	if errors.Is(err, redis.Nil) {
		return models.Counters{}, models.NotFoundf("increment", id)
	}
	if err != nil {
		return models.Counters{}, err
	}
	return parseRedisCounters(res)
}

func (r *Redis) GetCounters(ctx context.Context, id string) (models.Counters, error) {
	key := r.productKey(id)
	pipe := r.client.Pipeline()
	exists := pipe.Exists(ctx, key)
	vals := pipe.HMGet(ctx, key, redisCounterFields...)
	if _, err := pipe.Exec(ctx); err != nil {
		return models.Counters{}, err
	}
	if exists.Val() == 0 {
		return models.Counters{}, models.NotFoundf("get_counters", id)
	}
	return parseRedisCounters(vals.Val())
}

func (r *Redis) AppendInteraction(ctx context.Context, userID string, ev models.Interaction) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal interaction: %w", err)
	}
	return r.client.RPush(ctx, r.interactionKey(userID), data).Err()
}

func (r *Redis) GetInteractions(ctx context.Context, userID string) (models.InteractionRecord, error) {
	raw, err := r.client.LRange(ctx, r.interactionKey(userID), 0, -1).Result()
	if err != nil {
		return models.InteractionRecord{}, err
	}
	if len(raw) == 0 {
		return models.InteractionRecord{}, models.NotFoundf("get_interactions", userID)
	}
	rec := models.InteractionRecord{UserID: userID, Interactions: make([]models.Interaction, len(raw))}
	for i, s := range raw {
		if err := json.Unmarshal([]byte(s), &rec.Interactions[i]); err != nil {
			return models.InteractionRecord{}, fmt.Errorf("decode interaction: %w", err)
		}
	}
	return rec, nil
}

var _ Backend = (*Redis)(nil)
