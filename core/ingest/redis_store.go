package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/siherrmann/civicgraph/helper"
	"github.com/siherrmann/civicgraph/model"
)

const (
	defaultRedisPrefix = "civicgraph:jobs"
	maxUpdateRetries   = 10
)

// RedisJobStore is a JobStore shared between processes. Jobs are JSON
// values, an index sorted set orders them by creation and a set tracks
// the active ones.
type RedisJobStore struct {
	rdb    *goredis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisJobStore connects to addr and pings it. Jobs expire after ttl,
// a non-positive ttl keeps them forever.
func NewRedisJobStore(ctx context.Context, addr string, prefix string, ttl time.Duration) (*RedisJobStore, error) {
	if len(addr) == 0 {
		return nil, helper.NewError("redis job store", fmt.Errorf("missing redis address"))
	}
	if len(prefix) == 0 {
		prefix = defaultRedisPrefix
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, helper.NewError("redis ping", err)
	}

	return &RedisJobStore{rdb: rdb, prefix: prefix, ttl: ttl}, nil
}

// Close closes the redis client.
func (s *RedisJobStore) Close() error {
	return s.rdb.Close()
}

func (s *RedisJobStore) jobKey(id uuid.UUID) string {
	return s.prefix + ":job:" + id.String()
}

func (s *RedisJobStore) indexKey() string {
	return s.prefix + ":index"
}

func (s *RedisJobStore) activeKey() string {
	return s.prefix + ":active"
}

func (s *RedisJobStore) Create(ctx context.Context, job *model.Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return helper.NewError("marshal job", err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, s.jobKey(job.ID), raw, s.expiration())
		pipe.ZAdd(ctx, s.indexKey(), goredis.Z{Score: float64(job.CreatedAt.UnixMilli()), Member: job.ID.String()})
		if job.Status.Active() {
			pipe.SAdd(ctx, s.activeKey(), job.ID.String())
		}
		return nil
	})
	if err != nil {
		return helper.NewError("create job", err)
	}
	return nil
}

func (s *RedisJobStore) Get(ctx context.Context, id uuid.UUID) (*model.Job, error) {
	raw, err := s.rdb.Get(ctx, s.jobKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, helper.NewError("get job", err)
	}

	job := &model.Job{}
	err = json.Unmarshal(raw, job)
	if err != nil {
		return nil, helper.NewError("unmarshal job", err)
	}
	return job, nil
}

// Update runs fn inside an optimistic WATCH transaction and retries on conflicts.
func (s *RedisJobStore) Update(ctx context.Context, id uuid.UUID, fn func(job *model.Job)) (*model.Job, error) {
	key := s.jobKey(id)
	var updated *model.Job

	txf := func(tx *goredis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return ErrJobNotFound
		}
		if err != nil {
			return err
		}

		job := &model.Job{}
		err = json.Unmarshal(raw, job)
		if err != nil {
			return err
		}
		fn(job)

		raw, err = json.Marshal(job)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.expiration())
			if job.Status.Active() {
				pipe.SAdd(ctx, s.activeKey(), id.String())
			} else {
				pipe.SRem(ctx, s.activeKey(), id.String())
			}
			return nil
		})
		if err != nil {
			return err
		}
		updated = job
		return nil
	}

	for attempt := 0; attempt < maxUpdateRetries; attempt++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if errors.Is(err, ErrJobNotFound) {
			return nil, err
		}
		if err != nil {
			return nil, helper.NewError("update job", err)
		}
		return updated, nil
	}
	return nil, helper.NewError("update job", fmt.Errorf("too many conflicting updates for job %s", id))
}

func (s *RedisJobStore) CountActive(ctx context.Context) (int, error) {
	count, err := s.rdb.SCard(ctx, s.activeKey()).Result()
	if err != nil {
		return 0, helper.NewError("count active jobs", err)
	}
	return int(count), nil
}

func (s *RedisJobStore) LatestCreatedAt(ctx context.Context) (time.Time, bool, error) {
	latest, err := s.rdb.ZRevRangeWithScores(ctx, s.indexKey(), 0, 0).Result()
	if err != nil {
		return time.Time{}, false, helper.NewError("latest job", err)
	}
	if len(latest) == 0 {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(int64(latest[0].Score)), true, nil
}

func (s *RedisJobStore) expiration() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	return s.ttl
}
