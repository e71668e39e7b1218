// Package rest wraps the Quizmon HTTP API: everything that is not
// real-time. Calls are conventional request/response with the auth token in
// the Authorization header.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"quizmon-client/internal/domain"
)

// Quiz is the authored content summary returned by the CRUD endpoints.
type Quiz struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	CategoryID string            `json:"categoryId,omitempty"`
	Rating     float64           `json:"rating,omitempty"`
	Questions  []domain.Question `json:"questions,omitempty"`
}

// Category groups quizzes for browsing.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Match is a created room as returned by the match endpoints.
type Match struct {
	ID     string `json:"id"`
	QuizID string `json:"quizId"`
	HostID string `json:"hostId"`
	Quiz   *Quiz  `json:"quiz,omitempty"`
}

// Credentials is the login/register response.
type Credentials struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Statistics is the per-user dashboard payload.
type Statistics struct {
	Period         string  `json:"period,omitempty"`
	MatchesPlayed  int     `json:"matchesPlayed"`
	CorrectAnswers int     `json:"correctAnswers"`
	TotalScore     int     `json:"totalScore"`
	AverageScore   float64 `json:"averageScore"`
}

// Client talks to the Quizmon REST API.
type Client struct {
	base  string
	token string
	http  *http.Client
	log   *zap.Logger
}

// NewClient builds a client for the given API base URL. token may be empty
// for the auth endpoints.
func NewClient(base, token string, log *zap.Logger) *Client {
	return &Client{
		base:  base,
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
		log:   log,
	}
}

// Login exchanges credentials for a token and user identity.
func (c *Client) Login(ctx context.Context, username, password string) (Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &creds)
	return creds, err
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, username, email, password string) (Credentials, error) {
	var creds Credentials
	err := c.do(ctx, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &creds)
	return creds, err
}

// Categories lists the browsing categories.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var cats []Category
	err := c.do(ctx, http.MethodGet, "/category", nil, &cats)
	return cats, err
}

// QuizzesByCategory lists the quizzes under one category.
func (c *Client) QuizzesByCategory(ctx context.Context, categoryID string) ([]Quiz, error) {
	var quizzes []Quiz
	err := c.do(ctx, http.MethodGet, "/category/quiz/"+categoryID, nil, &quizzes)
	return quizzes, err
}

// Quizzes lists every visible quiz.
func (c *Client) Quizzes(ctx context.Context) ([]Quiz, error) {
	var quizzes []Quiz
	err := c.do(ctx, http.MethodGet, "/quiz", nil, &quizzes)
	return quizzes, err
}

// Quiz fetches one quiz with its questions.
func (c *Client) Quiz(ctx context.Context, id string) (Quiz, error) {
	var quiz Quiz
	err := c.do(ctx, http.MethodGet, "/quiz/"+id, nil, &quiz)
	return quiz, err
}

// CreateQuiz submits a new quiz shell.
func (c *Client) CreateQuiz(ctx context.Context, quiz Quiz) (Quiz, error) {
	var created Quiz
	err := c.do(ctx, http.MethodPost, "/quiz", quiz, &created)
	return created, err
}

// DeleteQuiz removes a quiz the user owns.
func (c *Client) DeleteQuiz(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/quiz/"+id, nil, nil)
}

// RateQuiz records a 1-5 rating.
func (c *Client) RateQuiz(ctx context.Context, id string, rating int) error {
	return c.do(ctx, http.MethodPost, "/quiz/"+id+"/rating", map[string]int{"rating": rating}, nil)
}

// CreateMatch opens a room for a quiz and returns its code.
func (c *Client) CreateMatch(ctx context.Context, quizID string) (Match, error) {
	var m Match
	err := c.do(ctx, http.MethodPost, "/matches", map[string]string{"quizId": quizID}, &m)
	return m, err
}

// Match fetches room metadata (quiz, host) for the lobby.
func (c *Client) Match(ctx context.Context, id string) (Match, error) {
	var m Match
	err := c.do(ctx, http.MethodGet, "/matches/"+id, nil, &m)
	if errors.Is(err, domain.ErrQuizNotFound) {
		return m, fmt.Errorf("match %s: %w", id, domain.ErrRoomNotFound)
	}
	return m, err
}

// Statistics fetches the user dashboard, optionally filtered by period.
func (c *Client) Statistics(ctx context.Context, period string) (Statistics, error) {
	path := "/user/stats"
	if period != "" {
		path += "?period=" + period
	}
	var stats Statistics
	err := c.do(ctx, http.MethodGet, path, nil, &stats)
	return stats, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s %s: %w", method, path, domain.ErrQuizNotFound)
	case resp.StatusCode >= 300:
		var apiErr struct {
			Message string `json:"message"`
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Message != "" {
			return fmt.Errorf("%s %s: %s", method, path, apiErr.Message)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}
