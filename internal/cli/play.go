package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizmon-client/internal/config"
	"quizmon-client/internal/gateway"
	"quizmon-client/internal/history"
	"quizmon-client/internal/match"
	"quizmon-client/internal/render"
	"quizmon-client/internal/rest"
)

func newPlayCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "play <matchId>",
		Short: "Join a match room and play it live",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), opts, args[0], cmd.OutOrStdout())
		},
	}
}

func runPlay(ctx context.Context, opts *rootOptions, matchID string, out io.Writer) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	auth, err := loadAuth(cfg)
	if err != nil {
		return fmt.Errorf("not logged in, run `quizmon login` first: %w", err)
	}
	log := opts.logger()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Best effort: the lobby header needs REST, the match itself does not.
	restClient := rest.NewClient(cfg.Server.APIURL, auth.Token, log)
	quizzes := rest.NewQuizCache(restClient, config.Duration(cfg.Cache.QuizTTL, 10*time.Minute))
	if m, err := restClient.Match(ctx, matchID); err == nil && m.QuizID != "" {
		if quiz, err := quizzes.Quiz(ctx, m.QuizID); err == nil {
			fmt.Fprintf(out, "match %s - %s\n", matchID, quiz.Title)
		}
	}

	var gwOpts []gateway.Option
	if cfg.Play.Rejoin {
		gwOpts = append(gwOpts, gateway.WithRejoin(5, time.Second))
	}
	gw := gateway.New(cfg.Server.SocketURL, log, gwOpts...)

	sessionOpts := []match.Option{
		match.WithWrongPulse(config.Duration(cfg.Play.WrongPulse, match.DefaultWrongPulse)),
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		log.Warn("history disabled", zap.Error(err))
	} else {
		defer store.Close()
		sessionOpts = append(sessionOpts, match.WithFinishHook(store.Hook(ctx, log)))
	}

	session := match.NewSession(gw, auth.User, matchID, log, sessionOpts...)
	defer session.Close()
	if err := session.Join(ctx); err != nil {
		return fmt.Errorf("join match %s: %w", matchID, err)
	}
	fmt.Fprintf(out, "joined match %s as %s\n", matchID, auth.User.Username)

	return playLoop(ctx, session, os.Stdin, out)
}

// playLoop runs the interactive read-render-submit cycle until the match
// ends or the player quits.
func playLoop(ctx context.Context, session *match.Session, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	poll := time.NewTicker(200 * time.Millisecond)
	defer poll.Stop()

	var (
		shownQuestion string
		resultShown   bool
	)
	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "leaving match")
			return nil

		case notice := <-session.Notices():
			fmt.Fprintf(out, "[%s] %s\n", notice.Kind, notice.Message)

		case line, ok := <-lines:
			if !ok {
				return nil
			}
			st := session.Snapshot()
			if st.Phase != match.QuestionActive || st.CurrentQuestion == nil {
				fmt.Fprintln(out, "no question is open for answers right now")
				continue
			}
			q := *st.CurrentQuestion
			ans, err := render.For(q.Type).Parse(q, line)
			if err != nil {
				fmt.Fprintf(out, "%v - try again: ", err)
				continue
			}
			if session.Submit(ans) {
				fmt.Fprintln(out, "answer locked in")
			} else {
				fmt.Fprintln(out, "submission rejected (already answered or time is up)")
			}

		case <-poll.C:
			st := session.Snapshot()

			if q := st.CurrentQuestion; q != nil && q.ID != shownQuestion {
				shownQuestion = q.ID
				resultShown = false
				fmt.Fprintf(out, "\n--- question (%ds) ---\n", st.RemainingSeconds)
				render.For(q.Type).Prompt(out, *q)
			}

			if guard := session.Guard(); !resultShown && guard.QuestionID == shownQuestion && guard.IsCorrect != nil {
				resultShown = true
				if *guard.IsCorrect {
					fmt.Fprintln(out, "\ncorrect!")
				} else {
					fmt.Fprintln(out, "\nwrong")
				}
				printScoreboard(out, st)
			}

			if st.Phase == match.GameOver {
				printLeaderboard(out, st)
				return nil
			}
		}
	}
}

func printScoreboard(out io.Writer, st match.State) {
	if len(st.Scoreboard) == 0 {
		return
	}
	fmt.Fprintln(out, "scores:")
	for _, entry := range st.Scoreboard {
		fmt.Fprintf(out, "  %-20s %d\n", entry.Username, entry.Score)
	}
}

func printLeaderboard(out io.Writer, st match.State) {
	fmt.Fprintln(out, "\n=== game over ===")
	for _, entry := range st.Leaderboard {
		fmt.Fprintf(out, "  #%d %-20s %d\n", entry.Rank, entry.Username, entry.Score)
	}
}
