package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goSession/identity"
	"github.com/redis/go-redis/v9"
)

const removeShadowScript = `
local existed = redis.call("DEL", KEYS[1])
redis.call("SREM", KEYS[2], ARGV[1])
return existed
`

var removeShadowLua = redis.NewScript(removeShadowScript)

// RedisPrimary stores the credential slot under a single namespaced key.
type RedisPrimary struct {
	redis redis.UniversalClient
	ns    Namespace
	opts  options
}

// NewRedisPrimary creates a primary slot backed by the given Redis client.
func NewRedisPrimary(client redis.UniversalClient, ns Namespace, opts ...Option) *RedisPrimary {
	return &RedisPrimary{redis: client, ns: ns, opts: applyOptions(opts)}
}

// SetPrimary overwrites the slot; Redis expires it after ttl.
//
//	Performance: 1 Redis SET.
func (s *RedisPrimary) SetPrimary(ctx context.Context, raw string, ttl time.Duration) error {
	if err := checkCredential(raw, ttl, s.opts.maxBytes); err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.ns.credentialKey(), raw, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisPrimary) GetPrimary(ctx context.Context) (string, bool, error) {
	raw, err := s.redis.Get(ctx, s.ns.credentialKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return raw, raw != "", nil
}

func (s *RedisPrimary) ClearPrimary(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.ns.credentialKey()).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// RedisShadow stores one key per user id plus an index set of ids, so scans
// only ever touch keys this namespace wrote.
type RedisShadow struct {
	redis redis.UniversalClient
	ns    Namespace
	opts  options
}

// NewRedisShadow creates a shadow store backed by the given Redis client.
func NewRedisShadow(client redis.UniversalClient, ns Namespace, opts ...Option) *RedisShadow {
	return &RedisShadow{redis: client, ns: ns, opts: applyOptions(opts)}
}

// SetShadow writes the entry and its index membership in one transaction.
// An expiry at or before now removes the entry instead.
//
//	Performance: 2 Redis commands (SET + SADD) in MULTI.
func (s *RedisShadow) SetShadow(ctx context.Context, user identity.Identity, expiresAt time.Time) error {
	if user.ID == "" {
		return ErrMissingID
	}
	ttl := expiresAt.Sub(s.opts.now())
	if ttl <= 0 {
		return s.RemoveShadow(ctx, user.ID)
	}
	data, err := encodeEntry(user, expiresAt)
	if err != nil {
		return err
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.ns.shadowKey(user.ID), data, ttl)
		pipe.SAdd(ctx, s.ns.indexKey(), user.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisShadow) GetShadow(ctx context.Context, id string) (ShadowEntry, bool, error) {
	data, err := s.redis.Get(ctx, s.ns.shadowKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			if err := s.redis.SRem(ctx, s.ns.indexKey(), id).Err(); err != nil {
				return ShadowEntry{}, false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
			}
			return ShadowEntry{}, false, nil
		}
		return ShadowEntry{}, false, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	entry, ok := decodeEntry(id, data)
	if !ok || !entry.LiveAt(s.opts.now()) {
		if err := s.RemoveShadow(ctx, id); err != nil {
			return ShadowEntry{}, false, err
		}
		return ShadowEntry{}, false, nil
	}
	return entry, true, nil
}

// RemoveShadow deletes the entry and its index membership. Missing entries
// are not an error.
func (s *RedisShadow) RemoveShadow(ctx context.Context, id string) error {
	keys := []string{s.ns.shadowKey(id), s.ns.indexKey()}
	if err := removeShadowLua.Run(ctx, s.redis, keys, id).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

// ScanShadow reads every indexed entry in one pipeline and collects garbage
// in a second transaction.
//
// Not atomic with concurrent writers: an entry written between the read and
// the cleanup is only dropped if it was itself classified as garbage.
//
//	Performance: SMEMBERS + pipelined GETs, plus one MULTI when garbage is found.
func (s *RedisShadow) ScanShadow(ctx context.Context) ([]ShadowEntry, error) {
	ids, err := s.redis.SMembers(ctx, s.ns.indexKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []ShadowEntry{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	if len(ids) == 0 {
		return []ShadowEntry{}, nil
	}

	pipe := s.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, s.ns.shadowKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	now := s.opts.now()
	entries := make([]ShadowEntry, 0, len(ids))
	garbage := make([]string, 0)
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				return nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
			}
			garbage = append(garbage, ids[i])
			continue
		}
		entry, ok := decodeEntry(ids[i], data)
		if !ok || !entry.LiveAt(now) {
			garbage = append(garbage, ids[i])
			continue
		}
		entries = append(entries, entry)
	}

	if len(garbage) > 0 {
		if err := s.collect(ctx, garbage); err != nil {
			return nil, err
		}
	}

	sortEntries(entries)
	return entries, nil
}

// PurgeShadow deletes every indexed entry and the index itself.
func (s *RedisShadow) PurgeShadow(ctx context.Context) error {
	ids, err := s.redis.SMembers(ctx, s.ns.indexKey()).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, s.ns.shadowKey(id))
	}
	keys = append(keys, s.ns.indexKey())

	if err := s.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}

func (s *RedisShadow) collect(ctx context.Context, ids []string) error {
	keys := make([]string, len(ids))
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		keys[i] = s.ns.shadowKey(id)
		members[i] = id
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.SRem(ctx, s.ns.indexKey(), members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	return nil
}
