package match

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"quizmon-client/internal/domain"
)

// DefaultWrongPulse matches the shake interval of the original UI.
const DefaultWrongPulse = 600 * time.Millisecond

// SendFunc delivers an accepted submission to the transport. The guard is
// the only code path that may call it for answers.
type SendFunc func(sub domain.AnswerSubmission) error

// GuardState is the reactive triple every question view reads.
type GuardState struct {
	QuestionID string
	Locked     bool
	// IsCorrect is nil until a result for the armed question arrives.
	IsCorrect *bool
	// IsWrong pulses true briefly after an incorrect result.
	IsWrong bool
}

// Guard enforces the one-shot-per-question submission invariant.
type Guard struct {
	matchID   string
	userID    string
	send      SendFunc
	remaining func() int
	pulse     time.Duration
	log       *zap.Logger

	mu         sync.Mutex
	questionID string
	locked     bool
	correct    *bool
	wrong      bool
	gen        int
}

// NewGuard builds a guard bound to one user in one match. remaining reports
// the server-synced seconds left on the current question.
func NewGuard(matchID, userID string, send SendFunc, remaining func() int, pulse time.Duration, log *zap.Logger) *Guard {
	if pulse <= 0 {
		pulse = DefaultWrongPulse
	}
	return &Guard{
		matchID:   matchID,
		userID:    userID,
		send:      send,
		remaining: remaining,
		pulse:     pulse,
		log:       log,
	}
}

// Arm resets the guard for a new question. Any lock or pending pulse from the
// previous question is discarded; a new question makes the old one moot.
func (g *Guard) Arm(questionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.questionID == questionID {
		return
	}
	g.questionID = questionID
	g.locked = false
	g.correct = nil
	g.wrong = false
	g.gen++
}

// TrySubmit sends the answer unless the question is already locked or time is
// up. It returns true exactly once per armed question.
func (g *Guard) TrySubmit(ans domain.Answer) bool {
	g.mu.Lock()
	if g.locked || g.questionID == "" || g.remaining() <= 0 {
		g.mu.Unlock()
		return false
	}
	g.locked = true
	sub := domain.AnswerSubmission{
		MatchID:    g.matchID,
		UserID:     g.userID,
		QuestionID: g.questionID,
		Answer:     ans,
	}
	g.mu.Unlock()

	if err := g.send(sub); err != nil {
		// Fire-and-forget: a dropped submission is not retried, the server's
		// own timeout resolves the question.
		g.log.Warn("submission send failed", zap.String("questionId", sub.QuestionID), zap.Error(err))
	}
	return true
}

// OnResult applies a server verdict if it belongs to this user and the
// currently armed question. Late results for a de-armed question are
// silently discarded.
func (g *Guard) OnResult(res domain.AnswerResult) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if res.UserID != g.userID || res.QuestionID != g.questionID {
		return
	}
	correct := res.IsCorrect
	g.correct = &correct
	if correct {
		return
	}
	g.wrong = true
	gen := g.gen
	time.AfterFunc(g.pulse, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.gen == gen {
			g.wrong = false
		}
	})
}

// State returns a snapshot of the guard's reactive triple.
func (g *Guard) State() GuardState {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := GuardState{
		QuestionID: g.questionID,
		Locked:     g.locked,
		IsWrong:    g.wrong,
	}
	if g.correct != nil {
		v := *g.correct
		st.IsCorrect = &v
	}
	return st
}
