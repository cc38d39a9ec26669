package mongo

import "errors"

var (
	ErrConnectFailed     = errors.New("mongo: no answer to ping within the retry budget")
	ErrHealthcheckFailed = errors.New("mongo: readiness ping failed")
)
