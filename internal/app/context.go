package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/irlobby/internal/cache"
	"github.com/oggyb/irlobby/internal/core/eligibility"
	"github.com/oggyb/irlobby/internal/core/model"
	"github.com/oggyb/irlobby/internal/events"
)

// Notifier pushes notification items to connected users.
type Notifier interface {
	Push(userID uint64, item model.NotificationItem)
}

type noopNotifier struct{}

func (noopNotifier) Push(uint64, model.NotificationItem) {}

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	Publisher  events.Publisher
	Notifier   Notifier
	Policy     eligibility.Policy
}

// Option customises an AppContext.
type Option func(*AppContext)

func WithPublisher(p events.Publisher) Option { return func(a *AppContext) { a.Publisher = p } }
func WithNotifier(n Notifier) Option          { return func(a *AppContext) { a.Notifier = n } }
func WithPolicy(p eligibility.Policy) Option  { return func(a *AppContext) { a.Policy = p } }

// New creates a new AppContext. Publisher and Notifier default to no-ops and
// Policy to eligibility.DefaultPolicy.
func New(db *gorm.DB, rdb *cache.RedisCache, logger *slog.Logger, opts ...Option) *AppContext {
	a := &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Publisher:  events.Noop(),
		Notifier:   noopNotifier{},
		Policy:     eligibility.DefaultPolicy,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}
