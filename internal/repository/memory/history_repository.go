package memory

import (
	"time"

	"publo-orchestrator/pkg/intent"

	"github.com/patrickmn/go-cache"
)

// maxTurns caps the in-memory history per session. Older turns fall off;
// the full transcript lives in postgres.
const maxTurns = 20

type HistoryRepository struct {
	cache *cache.Cache
}

func NewHistoryRepository() *HistoryRepository {
	// Create a cache with a default expiration time of 1 hour, and which
	// purges expired items every 10 minutes
	c := cache.New(1*time.Hour, 10*time.Minute)
	return &HistoryRepository{
		cache: c,
	}
}

func (r *HistoryRepository) Append(sessionID string, turns ...intent.Turn) {
	history, _ := r.Get(sessionID)
	history = append(history, turns...)
	if len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}
	r.cache.Set(sessionID, history, cache.DefaultExpiration)
}

func (r *HistoryRepository) Get(sessionID string) ([]intent.Turn, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.([]intent.Turn), true
	}
	return nil, false
}

func (r *HistoryRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
