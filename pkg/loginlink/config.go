package loginlink

import "time"

// Store drivers accepted by Config.Store.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMongo    = "mongo"
)

// Config holds login link settings.
type Config struct {
	LoginTTL        time.Duration `env:"MAGIC_LOGIN_TTL" envDefault:"4h"`
	InvitationTTL   time.Duration `env:"MAGIC_INVITATION_TTL" envDefault:"168h"`
	SecretKey       string        `env:"MAGIC_SECRET_KEY,required"`
	Store           string        `env:"MAGIC_STORE" envDefault:"postgres"`
	CleanupInterval time.Duration `env:"MAGIC_CLEANUP_INTERVAL" envDefault:"1h"`
	RedisRetention  time.Duration `env:"MAGIC_REDIS_RETENTION" envDefault:"24h"`
	MongoCollection string        `env:"MAGIC_MONGO_COLLECTION" envDefault:"login_links"`
}

// NewFromConfig builds a Service over store with the TTLs and key from cfg.
func NewFromConfig(cfg Config, store Store, opts ...Option) (*Service, error) {
	hasher, err := NewHasher([]byte(cfg.SecretKey))
	if err != nil {
		return nil, err
	}

	configOpts := []Option{
		WithTTL(KindLogin, cfg.LoginTTL),
		WithTTL(KindInvitation, cfg.InvitationTTL),
	}
	return NewService(store, hasher, append(configOpts, opts...)...), nil
}
