package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "magicauth:session:"

// RedisStore keeps sessions as JSON values that expire with the session.
// A per-user set indexes tokens for DeleteByUserID.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a store over client. An empty prefix uses the default.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) tokenKey(token string) string {
	return s.prefix + "t:" + token
}

func (s *RedisStore) userKey(userID uuid.UUID) string {
	return s.prefix + "u:" + userID.String()
}

func (s *RedisStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.Token == "" {
		return ErrInvalidSession
	}
	return s.write(ctx, session, false)
}

func (s *RedisStore) Get(ctx context.Context, token string) (*Session, error) {
	raw, err := s.client.Get(ctx, s.tokenKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	var session Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	if session.IsExpired() {
		_ = s.Delete(ctx, token)
		return nil, ErrSessionExpired
	}
	return &session, nil
}

func (s *RedisStore) Update(ctx context.Context, session *Session) error {
	if session == nil {
		return ErrInvalidSession
	}
	return s.write(ctx, session, true)
}

func (s *RedisStore) UpdateActivity(ctx context.Context, token string, lastActivity time.Time) error {
	session, err := s.Get(ctx, token)
	if err != nil {
		return err
	}
	session.LastActivityAt = lastActivity
	return s.write(ctx, session, true)
}

func (s *RedisStore) Delete(ctx context.Context, token string) error {
	key := s.tokenKey(token)
	raw, err := s.client.GetDel(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}

	var session Session
	if json.Unmarshal(raw, &session) == nil && session.UserID != nil {
		if err := s.client.SRem(ctx, s.userKey(*session.UserID), token).Err(); err != nil {
			return errors.Join(ErrStoreFailure, err)
		}
	}
	return nil
}

func (s *RedisStore) DeleteByUserID(ctx context.Context, userID uuid.UUID) error {
	userKey := s.userKey(userID)
	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, s.tokenKey(t))
	}
	keys = append(keys, userKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis expires session keys itself.
func (s *RedisStore) DeleteExpired(context.Context) error {
	return nil
}

func (s *RedisStore) write(ctx context.Context, session *Session, mustExist bool) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return ErrSessionExpired
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}

	key := s.tokenKey(session.Token)
	if mustExist {
		ok, err := s.client.SetXX(ctx, key, raw, ttl).Result()
		if err != nil {
			return errors.Join(ErrStoreFailure, err)
		}
		if !ok {
			return ErrSessionNotFound
		}
	} else if err := s.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}

	if session.UserID == nil {
		return nil
	}

	userKey := s.userKey(*session.UserID)
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, userKey, session.Token)
		p.ExpireGT(ctx, userKey, ttl)
		// ExpireGT never sets a TTL on a key without one.
		p.ExpireNX(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}
