package simulator

import (
	"encoding/json"
	"errors"
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"quizmon-client/internal/domain"
	"quizmon-client/internal/gateway"
)

// RoomStore abstracts how live rooms are tracked (in-memory, redis-marked).
type RoomStore interface {
	GetOrCreate(matchID string) *Room
	Get(matchID string) (*Room, bool)
	DeleteIfEmpty(matchID string)
}

var (
	errStaleQuestion   = errors.New("answer for a question that is not live")
	errAlreadyAnswered = errors.New("already answered this question")
	errTimeUp          = errors.New("time is up")
	errNotInRoom       = errors.New("user has not joined this room")
)

type participant struct {
	userID   string
	username string
	score    int
	joined   int // join sequence, tie-break for the scoreboard
}

type outlet interface {
	push(env gateway.Envelope)
	user() string
}

// Room is one live match: roster, scores, the current question, and the
// connections to broadcast to. All fields are guarded by mu; the round loop
// and the per-connection readers share it.
type Room struct {
	ID string

	mu       sync.RWMutex
	players  map[string]*participant
	joinSeq  int
	conns    map[outlet]struct{}
	quiz     Content
	started  bool
	startRun sync.Once

	questionIdx int
	current     *ContentQuestion
	wire        domain.Question
	sentOrder   []int
	remaining   int
	total       int
	answered    map[string]bool
	over        bool
}

// NewRoom builds an empty room for a match id.
func NewRoom(matchID string) *Room {
	return &Room{
		ID:          matchID,
		players:     make(map[string]*participant),
		conns:       make(map[outlet]struct{}),
		questionIdx: -1,
		answered:    make(map[string]bool),
	}
}

// Join registers or refreshes a participant and attaches its connection.
// It returns the updated roster.
func (r *Room) Join(out outlet, userID, username string) []domain.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.players[userID]; ok {
		p.username = username
	} else {
		r.players[userID] = &participant{userID: userID, username: username, joined: r.joinSeq}
		r.joinSeq++
	}
	r.conns[out] = struct{}{}
	return r.rosterLocked()
}

// Leave detaches a connection. The participant is dropped only when this was
// the user's last connection: after a rejoin the stale socket's teardown must
// not kick the player off their fresh one.
func (r *Room) Leave(out outlet) []domain.Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, out)
	userID := out.user()
	for c := range r.conns {
		if c.user() == userID {
			return r.rosterLocked()
		}
	}
	delete(r.players, userID)
	return r.rosterLocked()
}

// IsEmpty reports whether no connection remains.
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns) == 0
}

// Start launches the round loop once, on the first join.
func (r *Room) Start(quiz Content, questionSeconds int, tick time.Duration, log *zap.Logger) {
	r.startRun.Do(func() {
		r.mu.Lock()
		r.quiz = quiz
		r.started = true
		r.mu.Unlock()
		go r.run(questionSeconds, tick, log)
	})
}

// run drives the match: one question at a time, server-authoritative timer
// ticks, game over after the last question.
func (r *Room) run(questionSeconds int, tick time.Duration, log *zap.Logger) {
	for idx := range r.quiz.Questions {
		q := r.quiz.Questions[idx]
		wire, sentOrder := present(q)

		r.mu.Lock()
		r.questionIdx = idx
		r.current = &q
		r.wire = wire
		r.sentOrder = sentOrder
		r.remaining = questionSeconds
		r.total = questionSeconds
		r.answered = make(map[string]bool)
		r.mu.Unlock()

		log.Debug("question up", zap.String("matchId", r.ID), zap.String("questionId", q.ID))
		r.Broadcast(gateway.EventNextQuestion, nextQuestionPayload{Question: wire, Timer: questionSeconds})

		for t := questionSeconds; t > 0; t-- {
			time.Sleep(tick)
			done := r.setRemaining(t - 1)
			r.Broadcast(gateway.EventTimeUpdate, t-1)
			if done {
				// Everyone answered; no reason to sit out the clock.
				break
			}
		}
		r.Broadcast(gateway.EventUpdatedScores, r.Scoreboard())
	}

	r.mu.Lock()
	r.over = true
	r.current = nil
	r.mu.Unlock()
	r.Broadcast(gateway.EventGameOver, gameOverPayload{Leaderboard: r.finalBoard()})
	log.Info("match finished", zap.String("matchId", r.ID))
}

func (r *Room) setRemaining(t int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.remaining = t
	return len(r.answered) > 0 && len(r.answered) == len(r.players)
}

// Current returns the live question for a late requestCurrentQuestion, if
// one is active.
func (r *Room) Current() (nextQuestionPayload, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil || r.over {
		return nextQuestionPayload{}, false
	}
	return nextQuestionPayload{Question: r.wire, Timer: r.remaining}, true
}

// Submit scores one answer. The server enforces at-most-once per user and
// question independently of the client's own guard.
func (r *Room) Submit(userID, questionID string, raw json.RawMessage) (domain.AnswerResult, error) {
	r.mu.Lock()
	if r.current == nil || r.current.ID != questionID {
		r.mu.Unlock()
		return domain.AnswerResult{}, errStaleQuestion
	}
	if r.answered[userID] {
		r.mu.Unlock()
		return domain.AnswerResult{}, errAlreadyAnswered
	}
	if r.remaining <= 0 {
		r.mu.Unlock()
		return domain.AnswerResult{}, errTimeUp
	}
	p, ok := r.players[userID]
	if !ok {
		r.mu.Unlock()
		return domain.AnswerResult{}, errNotInRoom
	}
	q := *r.current
	r.answered[userID] = true

	// Scoring is pure computation, so it stays inside the critical section:
	// the participant looked up above cannot leave before the score lands.
	correct, err := score(q, r.sentOrder, raw)
	if err != nil {
		r.mu.Unlock()
		return domain.AnswerResult{}, err
	}
	p.score += points(correct, r.remaining, r.total)
	r.mu.Unlock()

	res := domain.AnswerResult{
		UserID:     userID,
		QuestionID: questionID,
		IsCorrect:  correct,
	}
	if q.Type == domain.TypeLocation && q.Location != nil {
		res.CorrectLatLon = &domain.Location{Lat: q.Location.Lat, Lon: q.Location.Lon}
	}
	return res, nil
}

// Broadcast fans an event out to every connection. Slow consumers get stale
// frames dropped rather than blocking the room.
func (r *Room) Broadcast(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	env := gateway.Envelope{Type: event, Payload: raw}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for out := range r.conns {
		out.push(env)
	}
}

// Scoreboard is the full replacement sequence broadcast after a question
// resolves: score descending, join order breaking ties.
func (r *Room) Scoreboard() []domain.ScoreEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ordered := make([]*participant, 0, len(r.players))
	for _, p := range r.players {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].score != ordered[j].score {
			return ordered[i].score > ordered[j].score
		}
		return ordered[i].joined < ordered[j].joined
	})

	entries := make([]domain.ScoreEntry, 0, len(ordered))
	for _, p := range ordered {
		entries = append(entries, domain.ScoreEntry{UserID: p.userID, Username: p.username, Score: p.score})
	}
	return entries
}

func (r *Room) finalBoard() []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0)
	for _, e := range r.Scoreboard() {
		entries = append(entries, domain.LeaderboardEntry{UserID: e.UserID, Username: e.Username, Score: e.Score})
	}
	return entries
}

func (r *Room) rosterLocked() []domain.Player {
	ordered := make([]*participant, 0, len(r.players))
	for _, p := range r.players {
		ordered = append(ordered, p)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].joined < ordered[j].joined })

	roster := make([]domain.Player, 0, len(ordered))
	for _, p := range ordered {
		roster = append(roster, domain.Player{UserID: p.userID, Username: p.username})
	}
	return roster
}

// present builds the wire question and, for REORDER, shuffles the presented
// option order. sentOrder[i] is the authored position of the item shown at
// position i.
func present(q ContentQuestion) (domain.Question, []int) {
	wire := q.Wire()
	if q.Type != domain.TypeReorder || len(q.Options) < 2 {
		return wire, identity(len(q.Options))
	}

	sentOrder := rand.Perm(len(q.Options))
	shuffled := make([]domain.Option, len(q.Options))
	for pos, authored := range sentOrder {
		shuffled[pos] = domain.Option{Text: q.Options[authored].Text}
	}
	wire.Options = shuffled
	return wire, sentOrder
}

func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

type nextQuestionPayload struct {
	Question domain.Question `json:"question"`
	Timer    int             `json:"timer"`
}

type gameOverPayload struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}
