package match

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"quizmon-client/internal/domain"
)

func newTestGuard(remaining int, pulse time.Duration) (*Guard, *[]domain.AnswerSubmission) {
	var (
		mu   sync.Mutex
		sent []domain.AnswerSubmission
	)
	send := func(sub domain.AnswerSubmission) error {
		mu.Lock()
		defer mu.Unlock()
		sent = append(sent, sub)
		return nil
	}
	g := NewGuard("m1", "u1", send, func() int { return remaining }, pulse, zap.NewNop())
	return g, &sent
}

func TestTrySubmitIsOneShot(t *testing.T) {
	g, sent := newTestGuard(10, time.Minute)
	g.Arm("q1")

	var wg sync.WaitGroup
	accepted := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			accepted <- g.TrySubmit(domain.OptionIndex(1))
		}()
	}
	wg.Wait()
	close(accepted)

	count := 0
	for ok := range accepted {
		if ok {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 accepted submit, got %d", count)
	}
	if len(*sent) != 1 {
		t.Fatalf("expected 1 sent submission, got %d", len(*sent))
	}
	if (*sent)[0].QuestionID != "q1" || (*sent)[0].UserID != "u1" {
		t.Fatalf("unexpected submission %+v", (*sent)[0])
	}
}

func TestTrySubmitRejectedWhenTimeUp(t *testing.T) {
	g, sent := newTestGuard(0, time.Minute)
	g.Arm("q1")

	if g.TrySubmit(domain.OptionIndex(0)) {
		t.Fatal("expected submit to be rejected at zero seconds")
	}
	if len(*sent) != 0 {
		t.Fatalf("expected no submissions, got %d", len(*sent))
	}
	if g.State().Locked {
		t.Fatal("rejected submit must not lock the question")
	}
}

func TestTrySubmitRejectedBeforeArm(t *testing.T) {
	g, _ := newTestGuard(10, time.Minute)
	if g.TrySubmit(domain.OptionIndex(0)) {
		t.Fatal("expected submit to be rejected before any question is armed")
	}
}

func TestArmResetsLockAndResult(t *testing.T) {
	g, _ := newTestGuard(10, time.Minute)
	g.Arm("q1")
	g.TrySubmit(domain.TextAnswer("hello"))
	g.OnResult(domain.AnswerResult{UserID: "u1", QuestionID: "q1", IsCorrect: true})

	g.Arm("q2")
	st := g.State()
	if st.Locked || st.IsCorrect != nil || st.IsWrong {
		t.Fatalf("expected clean state after re-arm, got %+v", st)
	}
	if !g.TrySubmit(domain.TextAnswer("again")) {
		t.Fatal("expected submit accepted on new question")
	}
}

func TestArmSameQuestionKeepsLock(t *testing.T) {
	g, _ := newTestGuard(10, time.Minute)
	g.Arm("q1")
	g.TrySubmit(domain.OptionIndex(2))

	g.Arm("q1")
	if !g.State().Locked {
		t.Fatal("re-arming the same question must not drop the lock")
	}
}

func TestLateResultForPreviousQuestionDiscarded(t *testing.T) {
	g, _ := newTestGuard(10, time.Minute)
	g.Arm("q1")
	g.Arm("q2")

	g.OnResult(domain.AnswerResult{UserID: "u1", QuestionID: "q1", IsCorrect: false})
	if st := g.State(); st.IsCorrect != nil || st.IsWrong {
		t.Fatalf("late result must not touch the new question, got %+v", st)
	}
}

func TestResultForOtherUserIgnored(t *testing.T) {
	g, _ := newTestGuard(10, time.Minute)
	g.Arm("q1")

	g.OnResult(domain.AnswerResult{UserID: "u2", QuestionID: "q1", IsCorrect: true})
	if st := g.State(); st.IsCorrect != nil {
		t.Fatalf("other user's verdict must be ignored, got %+v", st)
	}
}

func TestWrongPulseClearsItself(t *testing.T) {
	g, _ := newTestGuard(10, 20*time.Millisecond)
	g.Arm("q1")
	g.OnResult(domain.AnswerResult{UserID: "u1", QuestionID: "q1", IsCorrect: false})

	st := g.State()
	if st.IsCorrect == nil || *st.IsCorrect {
		t.Fatalf("expected incorrect verdict, got %+v", st)
	}
	if !st.IsWrong {
		t.Fatal("expected wrong pulse to be on right after the verdict")
	}

	deadline := time.Now().Add(time.Second)
	for g.State().IsWrong {
		if time.Now().After(deadline) {
			t.Fatal("wrong pulse never cleared")
		}
		time.Sleep(5 * time.Millisecond)
	}
	if st := g.State(); st.IsCorrect == nil || *st.IsCorrect {
		t.Fatalf("verdict must survive the pulse clearing, got %+v", st)
	}
}

func TestWrongPulseTimerIgnoredAfterRearm(t *testing.T) {
	g, _ := newTestGuard(10, 20*time.Millisecond)
	g.Arm("q1")
	g.OnResult(domain.AnswerResult{UserID: "u1", QuestionID: "q1", IsCorrect: false})

	g.Arm("q2")
	g.OnResult(domain.AnswerResult{UserID: "u1", QuestionID: "q2", IsCorrect: false})

	// Let q1's pending timer fire; q2's own pulse window is still open or
	// already over, but the stale timer alone must not clear a fresh pulse.
	time.Sleep(50 * time.Millisecond)
	if g.State().IsCorrect == nil {
		t.Fatal("expected q2 verdict to stick")
	}
}

func TestSendFailureStillLocks(t *testing.T) {
	send := func(domain.AnswerSubmission) error { return errors.New("socket gone") }
	g := NewGuard("m1", "u1", send, func() int { return 10 }, time.Minute, zap.NewNop())
	g.Arm("q1")

	if !g.TrySubmit(domain.OptionIndex(0)) {
		t.Fatal("expected submit accepted despite send failure")
	}
	if !g.State().Locked {
		t.Fatal("a failed send must not unlock the question")
	}
	if g.TrySubmit(domain.OptionIndex(1)) {
		t.Fatal("no retry after a failed send")
	}
}
