package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisStore is a UserStateRepo on Redis. Each user is a hash holding the
// document and its version; writes use WATCH/MULTI so a concurrent writer
// aborts the transaction. Delete leaves the version behind with a
// "deleted" flag.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a repository using keys "<prefix>user:<id>".
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedis connects to addr and verifies the connection.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) key(userID string) string {
	return s.prefix + "user:" + userID
}

func (s *RedisStore) Get(ctx context.Context, userID string) (*UserState, error) {
	vals, err := s.client.HMGet(ctx, s.key(userID), "version", "state", "deleted").Result()
	if err != nil {
		return nil, fmt.Errorf("get user state: %w", err)
	}
	return decodeRedis(userID, vals)
}

func (s *RedisStore) Put(ctx context.Context, st *UserState) error {
	data, err := EncodeUserState(st)
	if err != nil {
		return err
	}
	key := s.key(st.UserID)
	next := st.Version + 1

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, deleted, err := readRedisVersion(ctx, tx, key)
		if err != nil {
			return err
		}
		if deleted {
			if st.Version != 0 {
				return ErrVersionConflict
			}
			next = stored + 1
		} else if stored != st.Version {
			return ErrVersionConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "version", next, "state", string(data))
			pipe.HDel(ctx, key, "deleted")
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) || errors.Is(err, ErrVersionConflict) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("save user state: %w", err)
	}
	st.Version = next
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	key := s.key(userID)
	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		stored, deleted, err := readRedisVersion(ctx, tx, key)
		if err != nil || deleted || stored == 0 {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, key, "state")
			pipe.HSet(ctx, key, "version", stored+1, "deleted", 1)
			return nil
		})
		return err
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrVersionConflict
	}
	if err != nil {
		return fmt.Errorf("delete user state: %w", err)
	}
	return nil
}

// readRedisVersion returns the stored version and whether it is a
// tombstone. A missing key reads as version 0.
func readRedisVersion(ctx context.Context, tx *redis.Tx, key string) (int64, bool, error) {
	vals, err := tx.HMGet(ctx, key, "version", "deleted").Result()
	if err != nil {
		return 0, false, err
	}
	if vals[0] == nil {
		return 0, false, nil
	}
	vs, _ := vals[0].(string)
	v, err := strconv.ParseInt(vs, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parse version: %w", err)
	}
	return v, vals[1] != nil, nil
}

func decodeRedis(userID string, vals []any) (*UserState, error) {
	if len(vals) != 3 || vals[0] == nil || vals[1] == nil || vals[2] != nil {
		return nil, nil
	}
	vs, _ := vals[0].(string)
	version, err := strconv.ParseInt(vs, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse version: %w", err)
	}
	raw, _ := vals[1].(string)
	st, err := DecodeUserState(userID, []byte(raw))
	if err != nil {
		return nil, err
	}
	st.Version = version
	return st, nil
}
