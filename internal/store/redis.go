package store

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/fairyhunter13/nexus-inventory/internal/model"
)

// Redis keeps JSON documents in a hash and their insertion order in a list:
//
//	<prefix>:docs   HASH id -> product JSON
//	<prefix>:order  LIST of ids
type Redis struct {
	rdb      *redis.Client
	docsKey  string
	orderKey string
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, prefix string) *Redis {
	return &Redis{rdb: rdb, docsKey: prefix + ":docs", orderKey: prefix + ":order"}
}

// NewRedisFromURL parses a redis:// URL and returns a Store using it.
func NewRedisFromURL(url, prefix string) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "parsing redis url")
	}
	return NewRedis(redis.NewClient(opt), prefix), nil
}

func (s *Redis) List(ctx context.Context) ([]model.Product, error) {
	ids, err := s.rdb.LRange(ctx, s.orderKey, 0, -1).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading product order")
	}
	out := make([]model.Product, 0, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	vals, err := s.rdb.HMGet(ctx, s.docsKey, ids...).Result()
	if err != nil {
		return nil, errors.Wrap(err, "reading products")
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var p model.Product
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			return nil, errors.Wrapf(err, "decoding product %s", ids[i])
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Redis) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p = stamp(p)
	b, err := json.Marshal(p)
	if err != nil {
		return model.Product{}, errors.Wrap(err, "encoding product")
	}
	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.docsKey, p.ID, b)
		pipe.RPush(ctx, s.orderKey, p.ID)
		return nil
	})
	if err != nil {
		return model.Product{}, errors.Wrap(err, "inserting product")
	}
	return p, nil
}

func (s *Redis) Delete(ctx context.Context, id string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, s.docsKey, id)
		pipe.LRem(ctx, s.orderKey, 0, id)
		return nil
	})
	return errors.Wrapf(err, "deleting product %s", id)
}

func (s *Redis) Ping(ctx context.Context) error {
	return errors.Wrap(s.rdb.Ping(ctx).Err(), "pinging redis")
}

func (s *Redis) Close(context.Context) error {
	return s.rdb.Close()
}
