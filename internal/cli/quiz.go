package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"quizmon-client/internal/config"
	"quizmon-client/internal/rest"
)

func newQuizCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Browse and manage quizzes",
	}
	cmd.AddCommand(
		newQuizListCmd(opts),
		newQuizShowCmd(opts),
		newQuizCreateCmd(opts),
		newQuizRemoveCmd(opts),
		newQuizRateCmd(opts),
		newQuizHostCmd(opts),
	)
	return cmd
}

func quizClient(opts *rootOptions) (*rest.Client, *rest.QuizCache, error) {
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	auth, err := loadAuth(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("not logged in, run `quizmon login` first: %w", err)
	}
	client := rest.NewClient(cfg.Server.APIURL, auth.Token, opts.logger())
	cache := rest.NewQuizCache(client, config.Duration(cfg.Cache.QuizTTL, 10*time.Minute))
	return client, cache, nil
}

func newQuizListCmd(opts *rootOptions) *cobra.Command {
	var categoryID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List quizzes, optionally within a category",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := quizClient(opts)
			if err != nil {
				return err
			}
			var quizzes []rest.Quiz
			if categoryID != "" {
				quizzes, err = client.QuizzesByCategory(cmd.Context(), categoryID)
			} else {
				quizzes, err = client.Quizzes(cmd.Context())
			}
			if err != nil {
				return err
			}
			for _, q := range quizzes {
				fmt.Fprintf(cmd.OutOrStdout(), "%-36s  %.1f  %s\n", q.ID, q.Rating, q.Title)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&categoryID, "category", "", "filter by category id")
	return cmd
}

func newQuizShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <quizId>",
		Short: "Show a quiz and its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, cache, err := quizClient(opts)
			if err != nil {
				return err
			}
			quiz, err := cache.Quiz(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printQuiz(cmd.OutOrStdout(), quiz)
			return nil
		},
	}
}

func printQuiz(out io.Writer, quiz rest.Quiz) {
	fmt.Fprintf(out, "%s (%s)\n", quiz.Title, quiz.ID)
	for i, q := range quiz.Questions {
		fmt.Fprintf(out, "  %2d. [%s] %s\n", i+1, q.Type, q.Text)
	}
}

func newQuizCreateCmd(opts *rootOptions) *cobra.Command {
	var title, categoryID string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an empty quiz shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := quizClient(opts)
			if err != nil {
				return err
			}
			created, err := client.CreateQuiz(cmd.Context(), rest.Quiz{
				Title:      title,
				CategoryID: categoryID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created quiz %s\n", created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "quiz title")
	cmd.Flags().StringVar(&categoryID, "category", "", "category id")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newQuizRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <quizId>",
		Short: "Delete a quiz you own",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := quizClient(opts)
			if err != nil {
				return err
			}
			if err := client.DeleteQuiz(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted quiz %s\n", args[0])
			return nil
		},
	}
}

func newQuizRateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rate <quizId> <rating>",
		Short: "Rate a quiz from 1 to 5",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil || rating < 1 || rating > 5 {
				return fmt.Errorf("rating must be an integer between 1 and 5")
			}
			client, _, err := quizClient(opts)
			if err != nil {
				return err
			}
			if err := client.RateQuiz(cmd.Context(), args[0], rating); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "thanks for rating")
			return nil
		},
	}
}

func newQuizHostCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "host <quizId>",
		Short: "Open a match room for a quiz and print its code",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := quizClient(opts)
			if err != nil {
				return err
			}
			return hostMatch(cmd.Context(), client, args[0], cmd.OutOrStdout())
		},
		Args: cobra.ExactArgs(1),
	}
}

func hostMatch(ctx context.Context, client *rest.Client, quizID string, out io.Writer) error {
	m, err := client.CreateMatch(ctx, quizID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "match %s is open, join with `quizmon play %s`\n", m.ID, m.ID)
	return nil
}
