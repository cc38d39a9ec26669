package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/magicauth/pkg/logger"
)

const activityQueueSize = 1000

type activity struct {
	token string
	at    time.Time
}

// activityRecorder writes last-seen timestamps off the request path. Updates
// that do not fit in the queue are dropped; the next request retries.
type activityRecorder struct {
	store  Store
	logger *slog.Logger
	queue  chan activity
	stop   chan struct{}
	once   sync.Once
}

func newActivityRecorder(store Store, log *slog.Logger) *activityRecorder {
	a := &activityRecorder{
		store:  store,
		logger: log,
		queue:  make(chan activity, activityQueueSize),
		stop:   make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *activityRecorder) record(token string, at time.Time) {
	select {
	case a.queue <- activity{token: token, at: at}:
	default:
	}
}

func (a *activityRecorder) close() {
	a.once.Do(func() { close(a.stop) })
}

func (a *activityRecorder) run() {
	for {
		select {
		case u := <-a.queue:
			a.write(u)
		case <-a.stop:
			a.drain()
			return
		}
	}
}

func (a *activityRecorder) drain() {
	for {
		select {
		case u := <-a.queue:
			a.write(u)
		default:
			return
		}
	}
}

func (a *activityRecorder) write(u activity) {
	err := a.store.UpdateActivity(context.Background(), u.token, u.at)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		a.logger.Warn("failed to record session activity",
			logger.Error(err),
			logger.Component("session"),
		)
	}
}
