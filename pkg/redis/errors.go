package redis

import "errors"

var (
	ErrEmptyConnectionURL = errors.New("redis: REDIS_URL is empty")
	ErrInvalidConnString  = errors.New("redis: invalid connection string")
	ErrNotReady           = errors.New("redis: no answer to ping within the retry budget")
	ErrHealthcheckFailed  = errors.New("redis: readiness ping failed")
)
