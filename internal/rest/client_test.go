package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"quizmon-client/internal/domain"
)

func TestClientSendsAuthHeader(t *testing.T) {
	var gotAuth, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		json.NewEncoder(w).Encode([]Quiz{{ID: "q1", Title: "Capitals"}})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok-123", zap.NewNop())
	quizzes, err := client.Quizzes(context.Background())
	if err != nil {
		t.Fatalf("quizzes: %v", err)
	}
	if gotAuth != "tok-123" {
		t.Fatalf("expected raw token in Authorization, got %q", gotAuth)
	}
	if gotPath != "/quiz" {
		t.Fatalf("expected /quiz, got %q", gotPath)
	}
	if len(quizzes) != 1 || quizzes[0].Title != "Capitals" {
		t.Fatalf("unexpected quizzes %+v", quizzes)
	}
}

func TestClientLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["username"] != "alice" || body["password"] != "secret" {
			t.Errorf("unexpected body %v", body)
		}
		json.NewEncoder(w).Encode(Credentials{
			Token: "tok",
			User:  domain.User{ID: "u1", Username: "alice"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())
	creds, err := client.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if creds.Token != "tok" || creds.User.ID != "u1" {
		t.Fatalf("unexpected credentials %+v", creds)
	}
}

func TestClientErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/quiz/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/quiz/private":
			w.WriteHeader(http.StatusUnauthorized)
		case "/matches/gone":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"message": "rating out of range"})
		}
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", zap.NewNop())
	ctx := context.Background()

	if _, err := client.Quiz(ctx, "gone"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
	if _, err := client.Quiz(ctx, "private"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := client.Match(ctx, "gone"); !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
	err := client.RateQuiz(ctx, "q1", 9)
	if err == nil || !strings.Contains(err.Error(), "rating out of range") {
		t.Fatalf("expected server message surfaced, got %v", err)
	}
}

func TestCreateMatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/matches" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(Match{ID: "m-42", QuizID: body["quizId"]})
	}))
	defer server.Close()

	client := NewClient(server.URL, "tok", zap.NewNop())
	m, err := client.CreateMatch(context.Background(), "quiz-7")
	if err != nil {
		t.Fatalf("create match: %v", err)
	}
	if m.ID != "m-42" || m.QuizID != "quiz-7" {
		t.Fatalf("unexpected match %+v", m)
	}
}
