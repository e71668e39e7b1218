// Package simulator is a development match server speaking the Quizmon
// client protocol, so `play` can be exercised without the production
// backend. It is a tool, not the backend: no persistence, no accounts.
package simulator

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"quizmon-client/internal/domain"
)

// ContentOption is an authored answer choice with its correctness flag.
type ContentOption struct {
	Text      string `yaml:"text" json:"text"`
	IsCorrect bool   `yaml:"isCorrect" json:"isCorrect"`
}

// ContentRange is the authored key for a RANGE question. Tolerance widens
// the accepted interval around CorrectValue; zero means exact.
type ContentRange struct {
	MinValue     float64 `yaml:"minValue" json:"minValue"`
	MaxValue     float64 `yaml:"maxValue" json:"maxValue"`
	CorrectValue float64 `yaml:"correctValue" json:"correctValue"`
	Tolerance    float64 `yaml:"tolerance" json:"tolerance"`
}

// ContentLocation is the authored key for a LOCATION question; answers
// within RadiusKm of the point count as correct.
type ContentLocation struct {
	Lat      float64 `yaml:"lat" json:"lat"`
	Lon      float64 `yaml:"lon" json:"lon"`
	RadiusKm float64 `yaml:"radiusKm" json:"radiusKm"`
}

// ContentQuestion is a question with its answer key. For REORDER the
// authored option order is the correct order.
type ContentQuestion struct {
	ID            string              `yaml:"id" json:"id"`
	Type          domain.QuestionType `yaml:"type" json:"type"`
	Text          string              `yaml:"text" json:"text"`
	Media         []domain.Media      `yaml:"media" json:"media,omitempty"`
	Options       []ContentOption     `yaml:"options" json:"options,omitempty"`
	Range         *ContentRange       `yaml:"range" json:"range,omitempty"`
	CorrectAnswer string              `yaml:"correctAnswer" json:"correctAnswer,omitempty"`
	Location      *ContentLocation    `yaml:"location" json:"location,omitempty"`
}

// Content is one playable quiz with answer keys.
type Content struct {
	ID        string            `yaml:"id" json:"id"`
	Title     string            `yaml:"title" json:"title"`
	Questions []ContentQuestion `yaml:"questions" json:"questions"`
}

// LoadContent reads a quiz from a YAML file and fills in missing ids.
func LoadContent(path string) (Content, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Content{}, err
	}
	var content Content
	if err := yaml.Unmarshal(data, &content); err != nil {
		return Content{}, fmt.Errorf("parse quiz file: %w", err)
	}
	if len(content.Questions) == 0 {
		return Content{}, fmt.Errorf("quiz file %s has no questions", path)
	}
	if content.ID == "" {
		content.ID = uuid.NewString()
	}
	for i := range content.Questions {
		if content.Questions[i].ID == "" {
			content.Questions[i].ID = uuid.NewString()
		}
	}
	return content, nil
}

// Wire strips the answer key: this is the question as the client may see it.
func (q ContentQuestion) Wire() domain.Question {
	wire := domain.Question{
		ID:    q.ID,
		Type:  q.Type,
		Text:  q.Text,
		Media: q.Media,
	}
	for _, opt := range q.Options {
		wire.Options = append(wire.Options, domain.Option{Text: opt.Text})
	}
	if q.Range != nil {
		wire.Range = &domain.Range{MinValue: q.Range.MinValue, MaxValue: q.Range.MaxValue}
	}
	return wire
}

// SampleContent is the built-in demo quiz used when no quiz file is given.
func SampleContent() Content {
	return Content{
		ID:    "sample-quiz",
		Title: "Quizmon sampler",
		Questions: []ContentQuestion{
			{
				ID:   "q1",
				Type: domain.TypeButtons,
				Text: "What is 2 + 2?",
				Options: []ContentOption{
					{Text: "3"},
					{Text: "4", IsCorrect: true},
					{Text: "5"},
				},
			},
			{
				ID:   "q2",
				Type: domain.TypeCheckboxes,
				Text: "Which of these are primes?",
				Options: []ContentOption{
					{Text: "2", IsCorrect: true},
					{Text: "4"},
					{Text: "5", IsCorrect: true},
					{Text: "9"},
				},
			},
			{
				ID:    "q3",
				Type:  domain.TypeRange,
				Text:  "How many minutes in an hour?",
				Range: &ContentRange{MinValue: 0, MaxValue: 120, CorrectValue: 60},
			},
			{
				ID:   "q4",
				Type: domain.TypeReorder,
				Text: "Order from smallest to largest",
				Options: []ContentOption{
					{Text: "ant"},
					{Text: "cat"},
					{Text: "horse"},
					{Text: "whale"},
				},
			},
			{
				ID:            "q5",
				Type:          domain.TypeTypeAnswer,
				Text:          "What color is the sky on a clear day?",
				CorrectAnswer: "blue",
			},
			{
				ID:       "q6",
				Type:     domain.TypeLocation,
				Text:     "Click on Paris",
				Location: &ContentLocation{Lat: 48.8566, Lon: 2.3522, RadiusKm: 100},
			},
		},
	}
}
