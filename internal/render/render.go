// Package render maps question types to their interactive terminal views.
// It is a dispatch table, not a state machine: views carry no state beyond
// the question threaded through as an argument.
package render

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"quizmon-client/internal/domain"
)

// View renders one question type's input surface and parses a line of user
// input into the typed answer payload.
type View interface {
	Prompt(w io.Writer, q domain.Question)
	Parse(q domain.Question, input string) (domain.Answer, error)
}

var views = map[domain.QuestionType]View{
	domain.TypeButtons:    buttonsView{},
	domain.TypeCheckboxes: checkboxesView{},
	domain.TypeRange:      rangeView{},
	domain.TypeReorder:    reorderView{},
	domain.TypeLocation:   locationView{},
	domain.TypeTypeAnswer: typeAnswerView{},
}

// For returns the view for a question type. An unrecognized type degrades to
// a visible fallback instead of failing; the match keeps running for other
// players even if one question is malformed.
func For(t domain.QuestionType) View {
	if v, ok := views[t]; ok {
		return v
	}
	return unsupportedView{kind: t}
}

func header(w io.Writer, q domain.Question) {
	fmt.Fprintln(w, q.Text)
	for _, m := range q.Media {
		switch m.Type {
		case domain.MediaVideo:
			fmt.Fprintf(w, "  [video] %s (%ds-%ds)\n", m.URL, m.StartTime, m.StartTime+m.Duration)
		default:
			fmt.Fprintf(w, "  [image] %s\n", m.URL)
		}
	}
}

func listOptions(w io.Writer, q domain.Question) {
	for i, opt := range q.Options {
		fmt.Fprintf(w, "  %d) %s\n", i+1, opt.Text)
	}
}

type buttonsView struct{}

func (buttonsView) Prompt(w io.Writer, q domain.Question) {
	header(w, q)
	listOptions(w, q)
	fmt.Fprint(w, "pick one option: ")
}

func (buttonsView) Parse(q domain.Question, input string) (domain.Answer, error) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return nil, fmt.Errorf("expected an option number: %w", err)
	}
	if n < 1 || n > len(q.Options) {
		return nil, fmt.Errorf("option %d out of range 1-%d", n, len(q.Options))
	}
	return domain.OptionIndex(n - 1), nil
}

type checkboxesView struct{}

func (checkboxesView) Prompt(w io.Writer, q domain.Question) {
	header(w, q)
	listOptions(w, q)
	fmt.Fprint(w, "pick options (comma-separated): ")
}

// Parse produces a boolean slice aligned positionally with the options, not
// a list of indices.
func (checkboxesView) Parse(q domain.Question, input string) (domain.Answer, error) {
	picks := domain.Checklist(make([]bool, len(q.Options)))
	any := false
	for _, part := range strings.Split(input, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("expected option numbers: %w", err)
		}
		if n < 1 || n > len(q.Options) {
			return nil, fmt.Errorf("option %d out of range 1-%d", n, len(q.Options))
		}
		picks[n-1] = true
		any = true
	}
	if !any {
		return nil, domain.ErrNoAnswer
	}
	return picks, nil
}

type rangeView struct{}

func (rangeView) Prompt(w io.Writer, q domain.Question) {
	header(w, q)
	if q.Range != nil {
		fmt.Fprintf(w, "enter a value between %v and %v: ", q.Range.MinValue, q.Range.MaxValue)
		return
	}
	fmt.Fprint(w, "enter a value: ")
}

func (rangeView) Parse(q domain.Question, input string) (domain.Answer, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil {
		return nil, fmt.Errorf("expected a number: %w", err)
	}
	if q.Range != nil && (v < q.Range.MinValue || v > q.Range.MaxValue) {
		return nil, fmt.Errorf("%v outside range %v-%v", v, q.Range.MinValue, q.Range.MaxValue)
	}
	return domain.RangeValue(v), nil
}

type reorderView struct{}

func (reorderView) Prompt(w io.Writer, q domain.Question) {
	header(w, q)
	listOptions(w, q)
	fmt.Fprint(w, "enter the items in order (e.g. 3,1,2): ")
}

// Parse submits the sequence of item identifiers in their final order, not
// the item text. The input must be a full permutation.
func (reorderView) Parse(q domain.Question, input string) (domain.Answer, error) {
	parts := strings.Split(strings.TrimSpace(input), ",")
	if len(parts) != len(q.Options) {
		return nil, fmt.Errorf("expected %d items, got %d", len(q.Options), len(parts))
	}
	order := domain.Ordering(make([]int, 0, len(parts)))
	seen := make(map[int]bool, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("expected item numbers: %w", err)
		}
		if n < 1 || n > len(q.Options) {
			return nil, fmt.Errorf("item %d out of range 1-%d", n, len(q.Options))
		}
		if seen[n] {
			return nil, fmt.Errorf("item %d listed twice", n)
		}
		seen[n] = true
		order = append(order, n-1)
	}
	return order, nil
}

type locationView struct{}

func (locationView) Prompt(w io.Writer, q domain.Question) {
	header(w, q)
	fmt.Fprint(w, "enter a point as lat,lon: ")
}

// Parse refuses empty input: submission stays disabled until a point has
// been picked.
func (locationView) Parse(_ domain.Question, input string) (domain.Answer, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, domain.ErrNoAnswer
	}
	parts := strings.Split(input, ",")
	if len(parts) != 2 {
		return nil, fmt.Errorf("expected lat,lon")
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude: %w", err)
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("point %v,%v off the map", lat, lon)
	}
	return domain.Location{Lat: lat, Lon: lon}, nil
}

type typeAnswerView struct{}

func (typeAnswerView) Prompt(w io.Writer, q domain.Question) {
	header(w, q)
	fmt.Fprint(w, "type your answer: ")
}

func (typeAnswerView) Parse(_ domain.Question, input string) (domain.Answer, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, domain.ErrNoAnswer
	}
	return domain.TextAnswer(input), nil
}

type unsupportedView struct {
	kind domain.QuestionType
}

func (v unsupportedView) Prompt(w io.Writer, q domain.Question) {
	header(w, q)
	fmt.Fprintf(w, "unsupported question type %q - waiting for the next question\n", v.kind)
}

func (v unsupportedView) Parse(domain.Question, string) (domain.Answer, error) {
	return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedQuestion, v.kind)
}
