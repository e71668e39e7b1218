package simulator

import (
	"encoding/json"
	"strings"
	"testing"

	"quizmon-client/internal/domain"
)

func mustScore(t *testing.T, q ContentQuestion, sentOrder []int, answer any) bool {
	t.Helper()
	raw, err := json.Marshal(answer)
	if err != nil {
		t.Fatalf("marshal answer: %v", err)
	}
	correct, err := score(q, sentOrder, raw)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	return correct
}

func TestScoreButtons(t *testing.T) {
	q := ContentQuestion{
		Type: domain.TypeButtons,
		Options: []ContentOption{
			{Text: "3"}, {Text: "4", IsCorrect: true}, {Text: "5"},
		},
	}
	if !mustScore(t, q, identity(3), 1) {
		t.Fatal("expected index 1 correct")
	}
	if mustScore(t, q, identity(3), 0) {
		t.Fatal("expected index 0 wrong")
	}
	if _, err := score(q, identity(3), json.RawMessage("7")); err == nil {
		t.Fatal("expected out-of-range error")
	}
}

func TestScoreCheckboxesExactVector(t *testing.T) {
	q := ContentQuestion{
		Type: domain.TypeCheckboxes,
		Options: []ContentOption{
			{IsCorrect: true}, {}, {IsCorrect: true}, {},
		},
	}
	if !mustScore(t, q, identity(4), []bool{true, false, true, false}) {
		t.Fatal("expected exact vector correct")
	}
	// A superset of the right picks is still wrong.
	if mustScore(t, q, identity(4), []bool{true, true, true, false}) {
		t.Fatal("expected extra pick wrong")
	}
	if mustScore(t, q, identity(4), []bool{true, false, false, false}) {
		t.Fatal("expected missing pick wrong")
	}
	if _, err := score(q, identity(4), json.RawMessage("[true]")); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestScoreRangeTolerance(t *testing.T) {
	q := ContentQuestion{
		Type:  domain.TypeRange,
		Range: &ContentRange{MinValue: 0, MaxValue: 100, CorrectValue: 60, Tolerance: 2},
	}
	if !mustScore(t, q, nil, 61.5) {
		t.Fatal("expected value inside tolerance correct")
	}
	if mustScore(t, q, nil, 63) {
		t.Fatal("expected value outside tolerance wrong")
	}

	exact := ContentQuestion{
		Type:  domain.TypeRange,
		Range: &ContentRange{CorrectValue: 60},
	}
	if !mustScore(t, exact, nil, 60) {
		t.Fatal("expected exact match correct at zero tolerance")
	}
	if mustScore(t, exact, nil, 60.5) {
		t.Fatal("expected near miss wrong at zero tolerance")
	}
}

func TestScoreReorderAgainstPresentedOrder(t *testing.T) {
	q := ContentQuestion{
		Type: domain.TypeReorder,
		Options: []ContentOption{
			{Text: "ant"}, {Text: "cat"}, {Text: "horse"},
		},
	}
	// Items were shown shuffled: position 0 shows authored 2 (horse),
	// position 1 shows authored 0 (ant), position 2 shows authored 1 (cat).
	sentOrder := []int{2, 0, 1}

	// Correct final order ant,cat,horse = presented items 1,2,0.
	if !mustScore(t, q, sentOrder, []int{1, 2, 0}) {
		t.Fatal("expected restored authored order correct")
	}
	if mustScore(t, q, sentOrder, []int{0, 1, 2}) {
		t.Fatal("expected presented order wrong")
	}
	if mustScore(t, q, sentOrder, []int{1, 2}) {
		t.Fatal("expected short answer wrong")
	}
	if _, err := score(q, sentOrder, json.RawMessage("[1,2,9]")); err == nil {
		t.Fatal("expected out-of-range item error")
	}
}

func TestScoreTypeAnswerCaseInsensitive(t *testing.T) {
	q := ContentQuestion{Type: domain.TypeTypeAnswer, CorrectAnswer: "Blue"}
	if !mustScore(t, q, nil, "  blue ") {
		t.Fatal("expected trimmed case-insensitive match")
	}
	if mustScore(t, q, nil, "bleu") {
		t.Fatal("expected misspelling wrong")
	}
}

func TestScoreLocationWithinRadius(t *testing.T) {
	paris := &ContentLocation{Lat: 48.8566, Lon: 2.3522, RadiusKm: 100}
	q := ContentQuestion{Type: domain.TypeLocation, Location: paris}

	// Versailles, ~20 km out.
	if !mustScore(t, q, nil, domain.Location{Lat: 48.8049, Lon: 2.1204}) {
		t.Fatal("expected nearby point correct")
	}
	// Lyon, ~390 km out.
	if mustScore(t, q, nil, domain.Location{Lat: 45.7640, Lon: 4.8357}) {
		t.Fatal("expected distant point wrong")
	}
}

func TestHaversineKnownDistance(t *testing.T) {
	// Paris to London is roughly 344 km.
	d := haversineKm(48.8566, 2.3522, 51.5074, -0.1278)
	if d < 330 || d > 360 {
		t.Fatalf("expected ~344 km, got %.1f", d)
	}
	if z := haversineKm(10, 20, 10, 20); z > 0.001 {
		t.Fatalf("expected zero distance, got %f", z)
	}
}

func TestPoints(t *testing.T) {
	cases := []struct {
		correct          bool
		remaining, total int
		want             int
	}{
		{true, 30, 30, 1000},
		{true, 15, 30, 500},
		{true, 0, 30, 0},
		{true, -5, 30, 0},
		{false, 30, 30, 0},
		{true, 10, 0, 0},
	}
	for _, c := range cases {
		if got := points(c.correct, c.remaining, c.total); got != c.want {
			t.Fatalf("points(%v,%d,%d) = %d, want %d", c.correct, c.remaining, c.total, got, c.want)
		}
	}
}

func TestPresentShufflesReorderConsistently(t *testing.T) {
	q := ContentQuestion{
		Type: domain.TypeReorder,
		Options: []ContentOption{
			{Text: "a"}, {Text: "b"}, {Text: "c"}, {Text: "d"},
		},
	}
	wire, sentOrder := present(q)
	if len(wire.Options) != 4 || len(sentOrder) != 4 {
		t.Fatalf("expected 4 presented items, got %d/%d", len(wire.Options), len(sentOrder))
	}
	for pos, authored := range sentOrder {
		if wire.Options[pos].Text != q.Options[authored].Text {
			t.Fatalf("sentOrder does not describe the shuffle: pos %d shows %q, sentOrder says authored %d",
				pos, wire.Options[pos].Text, authored)
		}
	}

	// Restoring the authored order through sentOrder must score correct.
	answer := make([]int, len(sentOrder))
	for pos, authored := range sentOrder {
		answer[authored] = pos
	}
	if !mustScore(t, q, sentOrder, answer) {
		t.Fatal("expected inverse permutation correct")
	}
}

func TestWireStripsAnswerKey(t *testing.T) {
	q := ContentQuestion{
		ID:   "q1",
		Type: domain.TypeButtons,
		Text: "pick",
		Options: []ContentOption{
			{Text: "a", IsCorrect: true}, {Text: "b"},
		},
	}
	raw, err := json.Marshal(q.Wire())
	if err != nil {
		t.Fatalf("marshal wire: %v", err)
	}
	if strings.Contains(string(raw), "isCorrect") {
		t.Fatal("wire question leaks the answer key")
	}
}
