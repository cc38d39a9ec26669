package loginlink

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each link under "<prefix>digest:<digest>" and an owner
// index under "<prefix>owner:<owner>:<kind>" pointing at the current digest.
// Both keys are written and removed together inside Lua scripts, so Save and
// Take stay atomic. Keys carry a TTL of the link lifetime plus a retention
// window, long enough for an expired link to be reported as expired once.
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// RedisOption configures RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix. Default "magicauth:link:".
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisRetention sets how long expired links stay readable. Default 24h.
func WithRedisRetention(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		if d > 0 {
			s.retention = d
		}
	}
}

// NewRedisStore creates a store over client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		prefix:    "magicauth:link:",
		retention: 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var (
	// KEYS: owner index, new digest key. ARGV: digest key prefix, digest, payload, ttl ms.
	redisSaveScript = redis.NewScript(`
local old = redis.call('GET', KEYS[1])
if old and old ~= ARGV[2] then
	redis.call('DEL', ARGV[1] .. old)
end
redis.call('SET', KEYS[2], ARGV[3], 'PX', ARGV[4])
redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[4])
return 1
`)

	// KEYS: digest key. ARGV: owner index prefix, digest.
	redisTakeScript = redis.NewScript(`
local v = redis.call('GET', KEYS[1])
if not v then
	return false
end
redis.call('DEL', KEYS[1])
local link = cjson.decode(v)
local idx = ARGV[1] .. link.owner_id .. ':' .. link.kind
if redis.call('GET', idx) == ARGV[2] then
	redis.call('DEL', idx)
end
return v
`)

	// KEYS: owner index keys. ARGV: digest key prefix.
	redisRevokeScript = redis.NewScript(`
for _, idx in ipairs(KEYS) do
	local d = redis.call('GET', idx)
	if d then
		redis.call('DEL', ARGV[1] .. d)
	end
	redis.call('DEL', idx)
end
return 1
`)
)

func (s *RedisStore) digestKey(digest string) string {
	return s.prefix + "digest:" + digest
}

func (s *RedisStore) ownerPrefix() string {
	return s.prefix + "owner:"
}

func (s *RedisStore) ownerKey(ownerID uuid.UUID, kind Kind) string {
	return s.ownerPrefix() + ownerID.String() + ":" + string(kind)
}

func (s *RedisStore) Save(ctx context.Context, link Link) error {
	payload, err := json.Marshal(link)
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}

	ttl := time.Until(link.ExpiresAt) + s.retention
	if ttl < time.Second {
		ttl = time.Second
	}

	err = redisSaveScript.Run(ctx, s.client,
		[]string{s.ownerKey(link.OwnerID, link.Kind), s.digestKey(link.Digest)},
		s.prefix+"digest:", link.Digest, payload, ttl.Milliseconds(),
	).Err()
	if err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, digest string) (Link, error) {
	raw, err := s.client.Get(ctx, s.digestKey(digest)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Link{}, ErrNotFound
		}
		return Link{}, errors.Join(ErrStoreFailure, err)
	}
	return decodeRedisLink(raw)
}

func (s *RedisStore) Take(ctx context.Context, digest string) (Link, error) {
	raw, err := redisTakeScript.Run(ctx, s.client,
		[]string{s.digestKey(digest)},
		s.ownerPrefix(), digest,
	).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Link{}, ErrNotFound
		}
		return Link{}, errors.Join(ErrStoreFailure, err)
	}
	return decodeRedisLink([]byte(raw))
}

func (s *RedisStore) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) error {
	keys := make([]string, 0, len(Kinds))
	for _, kind := range Kinds {
		keys = append(keys, s.ownerKey(ownerID, kind))
	}
	if err := redisRevokeScript.Run(ctx, s.client, keys, s.prefix+"digest:").Err(); err != nil {
		return errors.Join(ErrStoreFailure, err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts keys once their TTL passes.
func (s *RedisStore) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}

func (s *RedisStore) List(ctx context.Context, ownerIDs ...uuid.UUID) ([]Link, error) {
	keys, err := s.listKeys(ctx, ownerIDs)
	if err != nil {
		return nil, err
	}

	links := make([]Link, 0, len(keys))
	if len(keys) == 0 {
		return links, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Join(ErrStoreFailure, err)
	}
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			continue
		}
		link, err := decodeRedisLink([]byte(str))
		if err != nil {
			return nil, err
		}
		links = append(links, link)
	}

	sortLinks(links)
	return links, nil
}

// listKeys resolves the digest keys to read: every digest key when no owners
// are given, otherwise the keys the owners' indexes point at.
func (s *RedisStore) listKeys(ctx context.Context, ownerIDs []uuid.UUID) ([]string, error) {
	if len(ownerIDs) == 0 {
		var keys []string
		iter := s.client.Scan(ctx, 0, s.prefix+"digest:*", 100).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			return nil, errors.Join(ErrStoreFailure, err)
		}
		return keys, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, 0, len(ownerIDs)*len(Kinds))
	for _, id := range ownerIDs {
		for _, kind := range Kinds {
			cmds = append(cmds, pipe.Get(ctx, s.ownerKey(id, kind)))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, errors.Join(ErrStoreFailure, err)
	}

	keys := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		if digest, err := cmd.Result(); err == nil {
			keys = append(keys, s.digestKey(digest))
		}
	}
	return keys, nil
}

func decodeRedisLink(raw []byte) (Link, error) {
	var link Link
	if err := json.Unmarshal(raw, &link); err != nil {
		return Link{}, errors.Join(ErrStoreFailure, err)
	}
	return link, nil
}
