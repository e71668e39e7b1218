package match

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"quizmon-client/internal/domain"
	"quizmon-client/internal/gateway"
)

// Phase is the discrete lifecycle state of a match session. Exactly one
// phase holds at a time.
type Phase int

const (
	Connecting Phase = iota
	WaitingForQuestion
	QuestionActive
	AwaitingResult
	GameOver
)

func (p Phase) String() string {
	switch p {
	case Connecting:
		return "connecting"
	case WaitingForQuestion:
		return "waiting-for-question"
	case QuestionActive:
		return "question-active"
	case AwaitingResult:
		return "awaiting-result"
	case GameOver:
		return "game-over"
	}
	return "unknown"
}

// Transport is the slice of the socket gateway the session depends on.
type Transport interface {
	Connect(ctx context.Context, matchID, userID, username string) error
	Send(event string, payload any) error
	Subscribe(event string, h gateway.Handler) func()
	Close() error
}

// State is the client-side projection of one match. Views read snapshots of
// it; only the session mutates it.
type State struct {
	MatchID          string
	Phase            Phase
	Players          []domain.Player
	CurrentQuestion  *domain.Question
	RemainingSeconds int
	Scoreboard       []domain.ScoreEntry
	Leaderboard      []domain.LeaderboardEntry
}

// Notice is a transient, non-fatal message surfaced to the user. It never
// changes the session phase.
type Notice struct {
	Kind    string // "error", "notification" or "disconnected"
	Message string
}

// FinishHook runs once when the session reaches GameOver.
type FinishHook func(matchID string, user domain.User, final []domain.LeaderboardEntry)

// Option configures a Session.
type Option func(*Session)

// WithWrongPulse overrides the guard's wrong-feedback interval.
func WithWrongPulse(d time.Duration) Option {
	return func(s *Session) { s.wrongPulse = d }
}

// WithFinishHook registers a callback for the final leaderboard.
func WithFinishHook(h FinishHook) Option {
	return func(s *Session) { s.onFinish = h }
}

// Session owns the socket subscription lifecycle for one match room and
// mediates all state transitions.
type Session struct {
	tr         Transport
	log        *zap.Logger
	user       domain.User
	guard      *Guard
	wrongPulse time.Duration
	onFinish   FinishHook

	mu        sync.RWMutex
	st        State
	closed    bool
	disposers []func()

	notices chan Notice
}

// NewSession builds a session for one user in one match room. The transport
// is owned by the session: Close tears it down.
func NewSession(tr Transport, user domain.User, matchID string, log *zap.Logger, opts ...Option) *Session {
	s := &Session{
		tr:      tr,
		log:     log,
		user:    user,
		st:      State{MatchID: matchID, Phase: Connecting},
		notices: make(chan Notice, 8),
	}
	for _, opt := range opts {
		opt(s)
	}
	send := func(sub domain.AnswerSubmission) error {
		return tr.Send(gateway.EventSubmitAnswer, sub)
	}
	s.guard = NewGuard(matchID, user.ID, send, s.remaining, s.wrongPulse, log)
	return s
}

// Join registers every event handler, connects the transport, and asks the
// server for the current question in case the match is already mid-question.
func (s *Session) Join(ctx context.Context) error {
	s.mu.RLock()
	matchID := s.st.MatchID
	s.mu.RUnlock()

	// Handlers are registered before dialing so the join acknowledgement
	// cannot slip past them.
	subs := map[string]gateway.Handler{
		gateway.EventPlayerJoined:  s.onPlayers,
		gateway.EventPlayerLeft:    s.onPlayers,
		gateway.EventNextQuestion:  s.onNextQuestion,
		gateway.EventTimeUpdate:    s.onTimeUpdate,
		gateway.EventAnswerResult:  s.onAnswerResult,
		gateway.EventUpdatedScores: s.onUpdatedScores,
		gateway.EventGameOver:      s.onGameOver,
		gateway.EventError:         s.noticeHandler("error"),
		gateway.EventNotification:  s.noticeHandler("notification"),
		gateway.EventDisconnected:  s.noticeHandler("disconnected"),
	}
	s.mu.Lock()
	for event, h := range subs {
		s.disposers = append(s.disposers, s.tr.Subscribe(event, h))
	}
	s.mu.Unlock()

	if err := s.tr.Connect(ctx, matchID, s.user.ID, s.user.Username); err != nil {
		return err
	}

	// Idempotent; the server just re-emits nextQuestion if one is live.
	return s.tr.Send(gateway.EventRequestCurrentQuestion, map[string]string{"matchId": matchID})
}

// Submit routes an answer through the guard. It reports whether the attempt
// was accepted; a second attempt on the same question never reaches the
// network.
func (s *Session) Submit(ans domain.Answer) bool {
	s.mu.RLock()
	active := s.st.Phase == QuestionActive
	s.mu.RUnlock()
	if !active {
		return false
	}
	if !s.guard.TrySubmit(ans) {
		return false
	}
	s.mu.Lock()
	if s.st.Phase == QuestionActive {
		s.st.Phase = AwaitingResult
	}
	s.mu.Unlock()
	return true
}

// Guard exposes the submission guard's reactive state for views.
func (s *Session) Guard() GuardState {
	return s.guard.State()
}

// Snapshot returns a copy of the match state; callers never see live slices.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.st
	st.Players = append([]domain.Player(nil), s.st.Players...)
	st.Scoreboard = append([]domain.ScoreEntry(nil), s.st.Scoreboard...)
	st.Leaderboard = append([]domain.LeaderboardEntry(nil), s.st.Leaderboard...)
	if s.st.CurrentQuestion != nil {
		q := *s.st.CurrentQuestion
		st.CurrentQuestion = &q
	}
	return st
}

// Notices is the stream of transient user-visible messages.
func (s *Session) Notices() <-chan Notice {
	return s.notices
}

// Close disposes every gateway subscription and the transport. Buffered
// events delivered afterwards must not mutate the session.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	disposers := s.disposers
	s.disposers = nil
	s.mu.Unlock()

	for _, dispose := range disposers {
		dispose()
	}
	if err := s.tr.Close(); err != nil {
		s.log.Debug("transport close", zap.Error(err))
	}
}

func (s *Session) remaining() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.RemainingSeconds
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

type nextQuestionPayload struct {
	Question domain.Question `json:"question"`
	Timer    int             `json:"timer"`
}

func (s *Session) onNextQuestion(raw json.RawMessage) {
	if s.isClosed() {
		return
	}
	var payload nextQuestionPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.log.Warn("bad nextQuestion payload", zap.Error(err))
		return
	}

	s.mu.Lock()
	if s.st.Phase == GameOver {
		s.mu.Unlock()
		return
	}
	if s.st.CurrentQuestion != nil && s.st.CurrentQuestion.ID == payload.Question.ID {
		// Duplicate delivery of the live question; only a different id
		// advances the machine.
		s.mu.Unlock()
		return
	}
	q := payload.Question
	s.st.CurrentQuestion = &q
	s.st.RemainingSeconds = payload.Timer
	s.st.Phase = QuestionActive
	s.mu.Unlock()

	s.guard.Arm(q.ID)
}

func (s *Session) onTimeUpdate(raw json.RawMessage) {
	if s.isClosed() {
		return
	}
	var remaining int
	if err := json.Unmarshal(raw, &remaining); err != nil {
		s.log.Warn("bad timeUpdate payload", zap.Error(err))
		return
	}

	// The server is the single source of truth for time; overwrite, never
	// reconcile toward a local countdown.
	s.mu.Lock()
	s.st.RemainingSeconds = remaining
	if remaining <= 0 && s.st.Phase == QuestionActive {
		s.st.Phase = AwaitingResult
	}
	s.mu.Unlock()
}

func (s *Session) onAnswerResult(raw json.RawMessage) {
	if s.isClosed() {
		return
	}
	var res domain.AnswerResult
	if err := json.Unmarshal(raw, &res); err != nil {
		s.log.Warn("bad answerResult payload", zap.Error(err))
		return
	}
	// The guard re-checks user and question id; a result for an already
	// advanced question is discarded there.
	s.guard.OnResult(res)
}

func (s *Session) onUpdatedScores(raw json.RawMessage) {
	if s.isClosed() {
		return
	}
	var scores []domain.ScoreEntry
	if err := json.Unmarshal(raw, &scores); err != nil {
		s.log.Warn("bad updatedScores payload", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.st.Scoreboard = scores
	s.mu.Unlock()
}

func (s *Session) onPlayers(raw json.RawMessage) {
	if s.isClosed() {
		return
	}
	var players []domain.Player
	if err := json.Unmarshal(raw, &players); err != nil {
		s.log.Warn("bad player roster payload", zap.Error(err))
		return
	}
	s.mu.Lock()
	s.st.Players = players
	if s.st.Phase == Connecting {
		// The roster broadcast doubles as the join acknowledgement.
		s.st.Phase = WaitingForQuestion
	}
	s.mu.Unlock()
}

type gameOverPayload struct {
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

func (s *Session) onGameOver(raw json.RawMessage) {
	if s.isClosed() {
		return
	}
	var payload gameOverPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.log.Warn("bad gameOver payload", zap.Error(err))
		return
	}
	final := Rank(payload.Leaderboard)

	s.mu.Lock()
	if s.st.Phase == GameOver {
		s.mu.Unlock()
		return
	}
	s.st.Leaderboard = final
	s.st.Phase = GameOver
	matchID := s.st.MatchID
	s.mu.Unlock()

	if s.onFinish != nil {
		s.onFinish(matchID, s.user, final)
	}
}

func (s *Session) noticeHandler(kind string) gateway.Handler {
	return func(raw json.RawMessage) {
		if s.isClosed() {
			return
		}
		var payload gateway.ErrorPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			// Some servers send the error message as a bare string.
			var msg string
			if json.Unmarshal(raw, &msg) != nil {
				return
			}
			payload.Message = msg
		}
		notice := Notice{Kind: kind, Message: payload.Message}
		select {
		case s.notices <- notice:
		default:
			// Drop the oldest so a stalled reader never blocks dispatch.
			select {
			case <-s.notices:
			default:
			}
			select {
			case s.notices <- notice:
			default:
			}
		}
	}
}

// Rank orders final entries by score descending and assigns competition
// ranks (ties share a rank; 800, 800, 500 ranks 1, 1, 3). The sort is
// stable, so tied entries keep the server's original order.
func Rank(entries []domain.LeaderboardEntry) []domain.LeaderboardEntry {
	ranked := append([]domain.LeaderboardEntry(nil), entries...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		if i > 0 && ranked[i].Score == ranked[i-1].Score {
			ranked[i].Rank = ranked[i-1].Rank
			continue
		}
		ranked[i].Rank = i + 1
	}
	return ranked
}
