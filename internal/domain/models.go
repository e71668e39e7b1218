package domain

// QuestionType tags the interactive surface a question needs.
type QuestionType string

const (
	TypeButtons    QuestionType = "BUTTONS"
	TypeCheckboxes QuestionType = "CHECKBOXES"
	TypeRange      QuestionType = "RANGE"
	TypeReorder    QuestionType = "REORDER"
	TypeLocation   QuestionType = "LOCATION"
	TypeTypeAnswer QuestionType = "TYPEANSWER"
)

// MediaKind distinguishes the single displayable asset a question may carry.
type MediaKind string

const (
	MediaImage MediaKind = "IMAGE"
	MediaVideo MediaKind = "VIDEO"
)

// Media is a question's displayable asset. StartTime and Duration are only
// meaningful for VIDEO clips (seconds).
type Media struct {
	Type      MediaKind `json:"type"`
	URL       string    `json:"url"`
	StartTime int       `json:"startTime,omitempty"`
	Duration  int       `json:"duration,omitempty"`
}

// Option is one answer choice. The server never discloses correctness here;
// verdicts arrive separately via answerResult.
type Option struct {
	Text string `json:"text"`
}

// Range bounds a numeric slider question.
type Range struct {
	MinValue float64 `json:"minValue"`
	MaxValue float64 `json:"maxValue"`
}

// Question is the server-authored content unit as delivered during play.
type Question struct {
	ID      string       `json:"id"`
	Type    QuestionType `json:"type"`
	Text    string       `json:"text"`
	Media   []Media      `json:"media,omitempty"`
	Options []Option     `json:"options,omitempty"`
	Range   *Range       `json:"range,omitempty"`
}

// Answer is the variant-typed payload of one submission. The wire shape of
// the answer field depends on the question type, so each variant marshals to
// its bare JSON value.
type Answer interface {
	isAnswer()
}

// OptionIndex answers a BUTTONS question (zero-based).
type OptionIndex int

// Checklist answers a CHECKBOXES question; positions align with the
// question's options.
type Checklist []bool

// RangeValue answers a RANGE question.
type RangeValue float64

// Ordering answers a REORDER question: item indices in their final order.
type Ordering []int

// TextAnswer answers a TYPEANSWER question.
type TextAnswer string

// Location answers a LOCATION question.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (OptionIndex) isAnswer() {}
func (Checklist) isAnswer()   {}
func (RangeValue) isAnswer()  {}
func (Ordering) isAnswer()    {}
func (TextAnswer) isAnswer()  {}
func (Location) isAnswer()    {}

// AnswerSubmission is one attempt by one user on one question.
type AnswerSubmission struct {
	MatchID    string `json:"matchId"`
	UserID     string `json:"userId"`
	QuestionID string `json:"questionId"`
	Answer     Answer `json:"answer"`
}

// AnswerResult is the server's verdict on a scored submission. CorrectLatLon
// is present only for LOCATION questions.
type AnswerResult struct {
	UserID        string    `json:"userId"`
	QuestionID    string    `json:"questionId"`
	IsCorrect     bool      `json:"isCorrect"`
	CorrectLatLon *Location `json:"correctLatLon,omitempty"`
}

// Player is a roster entry in the match lobby.
type Player struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

// ScoreEntry is one row of the live scoreboard, replaced wholesale on every
// updatedScores event.
type ScoreEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// LeaderboardEntry is a final ranking row; Rank is derived client-side.
type LeaderboardEntry struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// User identifies the local player across REST and socket calls.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
}
