package integration

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"quizmon-client/internal/domain"
	"quizmon-client/internal/gateway"
	"quizmon-client/internal/infra/memory"
	infraredis "quizmon-client/internal/infra/redis"
	"quizmon-client/internal/match"
	"quizmon-client/internal/simulator"
)

// startSimulator runs a full simulator over httptest with sub-second question
// windows so a whole match plays out in a few hundred milliseconds.
func startSimulator(t *testing.T, store simulator.RoomStore) string {
	t.Helper()
	srv := simulator.New(store, simulator.SampleContent(), 5, zap.NewNop(),
		simulator.WithTick(50*time.Millisecond))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func waitForPhase(t *testing.T, session *match.Session, phase match.Phase) match.State {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		st := session.Snapshot()
		if st.Phase == phase {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for phase %v, stuck at %v", phase, session.Snapshot().Phase)
	return match.State{}
}

func TestFullMatchEndToEnd(t *testing.T) {
	url := startSimulator(t, memory.NewRoomStore())

	finished := make(chan []domain.LeaderboardEntry, 1)
	hook := func(matchID string, user domain.User, board []domain.LeaderboardEntry) {
		finished <- board
	}

	gw := gateway.New(url, zap.NewNop())
	session := match.NewSession(gw, domain.User{ID: "u1", Username: "Alice"}, "m1",
		zap.NewNop(), match.WithFinishHook(hook))
	defer session.Close()

	if err := session.Join(context.Background()); err != nil {
		t.Fatalf("join: %v", err)
	}

	st := waitForPhase(t, session, match.QuestionActive)
	if st.CurrentQuestion == nil {
		t.Fatal("expected a live question")
	}
	firstID := st.CurrentQuestion.ID

	// 2 + 2: option index 1 is correct in the sample quiz.
	if !session.Submit(domain.OptionIndex(1)) {
		t.Fatal("expected submit accepted")
	}
	if session.Submit(domain.OptionIndex(0)) {
		t.Fatal("expected second submit rejected")
	}

	// The verdict comes back for the submitted question.
	deadline := time.Now().Add(5 * time.Second)
	for session.Guard().IsCorrect == nil {
		if time.Now().After(deadline) {
			t.Fatal("no verdict arrived")
		}
		time.Sleep(5 * time.Millisecond)
	}
	guard := session.Guard()
	if guard.QuestionID != firstID || !*guard.IsCorrect {
		t.Fatalf("expected correct verdict for %s, got %+v", firstID, guard)
	}

	st = waitForPhase(t, session, match.GameOver)
	if len(st.Leaderboard) != 1 || st.Leaderboard[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard %+v", st.Leaderboard)
	}
	if st.Leaderboard[0].Score <= 0 {
		t.Fatalf("expected a positive score from the correct answer, got %+v", st.Leaderboard[0])
	}
	select {
	case final := <-finished:
		if len(final) != 1 {
			t.Fatalf("expected one entry from the finish hook, got %+v", final)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("finish hook never ran")
	}
}

func TestTwoPlayersShareScoreboard(t *testing.T) {
	url := startSimulator(t, memory.NewRoomStore())
	ctx := context.Background()

	alice := match.NewSession(gateway.New(url, zap.NewNop()),
		domain.User{ID: "u1", Username: "Alice"}, "m1", zap.NewNop())
	defer alice.Close()
	bob := match.NewSession(gateway.New(url, zap.NewNop()),
		domain.User{ID: "u2", Username: "Bob"}, "m1", zap.NewNop())
	defer bob.Close()

	if err := alice.Join(ctx); err != nil {
		t.Fatalf("alice join: %v", err)
	}
	if err := bob.Join(ctx); err != nil {
		t.Fatalf("bob join: %v", err)
	}

	waitForPhase(t, alice, match.QuestionActive)
	waitForPhase(t, bob, match.QuestionActive)

	if !alice.Submit(domain.OptionIndex(1)) { // correct
		t.Fatal("alice submit rejected")
	}
	if !bob.Submit(domain.OptionIndex(0)) { // wrong
		t.Fatal("bob submit rejected")
	}

	st := waitForPhase(t, alice, match.GameOver)
	if len(st.Leaderboard) != 2 {
		t.Fatalf("expected both players on the final board, got %+v", st.Leaderboard)
	}
	if st.Leaderboard[0].UserID != "u1" || st.Leaderboard[0].Rank != 1 {
		t.Fatalf("expected Alice first, got %+v", st.Leaderboard)
	}
	if st.Leaderboard[1].UserID != "u2" || st.Leaderboard[1].Rank != 2 {
		t.Fatalf("expected Bob second, got %+v", st.Leaderboard)
	}
}

func TestRedisRoomStoreEndToEnd(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	url := startSimulator(t, infraredis.NewRoomStore(client, time.Minute))

	session := match.NewSession(gateway.New(url, zap.NewNop()),
		domain.User{ID: "u1", Username: "Alice"}, "m1", zap.NewNop())
	defer session.Close()

	if err := session.Join(context.Background()); err != nil {
		t.Fatalf("join: %v", err)
	}
	waitForPhase(t, session, match.QuestionActive)

	if !mr.Exists("quizmon:match:m1") {
		t.Fatal("expected the room's liveness marker in redis")
	}
	waitForPhase(t, session, match.GameOver)
}
