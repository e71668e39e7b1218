package rest

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// QuizSource loads quiz content (normally the REST client).
type QuizSource interface {
	Quiz(ctx context.Context, id string) (Quiz, error)
}

// QuizCache keeps quizzes around for a TTL so browsing and the lobby view
// don't hammer the API with the same fetch. While one fetch for a quiz is in
// flight, callers asking for the same id wait on it instead of dialing out.
type QuizCache struct {
	src   QuizSource
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand

	mu      sync.RWMutex
	entries map[string]quizEntry
}

type quizEntry struct {
	quiz    Quiz
	staleAt time.Time
}

func NewQuizCache(src QuizSource, ttl time.Duration) *QuizCache {
	return &QuizCache{
		src:     src,
		ttl:     ttl,
		clock:   time.Now,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]quizEntry),
	}
}

func (c *QuizCache) Quiz(ctx context.Context, id string) (Quiz, error) {
	if quiz, ok := c.fresh(id); ok {
		return quiz, nil
	}

	result, err, _ := c.sf.Do(id, func() (interface{}, error) {
		// A caller queued behind the winning fetch lands here after the
		// entry was already written; serve it rather than fetching twice.
		if quiz, ok := c.fresh(id); ok {
			return quiz, nil
		}

		quiz, err := c.src.Quiz(ctx, id)
		if err != nil {
			return Quiz{}, err
		}
		c.store(id, quiz)
		return quiz, nil
	})
	if err != nil {
		return Quiz{}, err
	}
	return result.(Quiz), nil
}

func (c *QuizCache) fresh(id string) (Quiz, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok || !e.staleAt.After(c.clock()) {
		return Quiz{}, false
	}
	return e.quiz, true
}

func (c *QuizCache) store(id string, quiz Quiz) {
	ttl := c.ttl
	if ttl > 0 {
		// Stagger expiries so entries cached together don't all miss together.
		ttl += time.Duration(c.rnd.Int63n(int64(ttl)/10 + 1))
	}
	c.mu.Lock()
	c.entries[id] = quizEntry{quiz: quiz, staleAt: c.clock().Add(ttl)}
	c.mu.Unlock()
}
