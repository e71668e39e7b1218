package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"quizmon-client/internal/config"
	"quizmon-client/internal/domain"
	"quizmon-client/pkg/logger"
)

type rootOptions struct {
	configPath string
	apiURL     string
	socketURL  string
	debug      bool
}

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	envConfig := os.Getenv("QUIZMON_CONFIG")
	if envConfig == "" {
		envConfig = config.DefaultPath()
	}

	cmd := &cobra.Command{
		Use:   "quizmon",
		Short: "Terminal client for the Quizmon real-time quiz game",
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&opts.apiURL, "api", os.Getenv("QUIZMON_API"), "REST API base URL")
	cmd.PersistentFlags().StringVar(&opts.socketURL, "socket", os.Getenv("QUIZMON_SOCKET"), "match socket URL")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "verbose logging")

	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newPlayCmd(opts))
	cmd.AddCommand(newQuizCmd(opts))
	cmd.AddCommand(newCategoriesCmd(opts))
	cmd.AddCommand(newStatsCmd(opts))
	cmd.AddCommand(newHistoryCmd(opts))
	cmd.AddCommand(newSimulateCmd(opts))
	return cmd
}

// loadConfig applies flag overrides on top of the YAML config.
func (o *rootOptions) loadConfig() (config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return cfg, err
	}
	if o.apiURL != "" {
		cfg.Server.APIURL = o.apiURL
	}
	if o.socketURL != "" {
		cfg.Server.SocketURL = o.socketURL
	}
	return cfg, nil
}

func (o *rootOptions) logger() *zap.Logger {
	return logger.New(o.debug)
}

// authState is the persisted login: token plus the user identity the socket
// protocol needs on every join.
type authState struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

func loadAuth(cfg config.Config) (authState, error) {
	var auth authState
	data, err := os.ReadFile(cfg.Auth.TokenFile)
	if err != nil {
		return auth, err
	}
	if err := json.Unmarshal(data, &auth); err != nil {
		return auth, err
	}
	return auth, nil
}

func saveAuth(cfg config.Config, auth authState) error {
	data, err := json.MarshalIndent(auth, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(cfg.Auth.TokenFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(cfg.Auth.TokenFile, data, 0o600)
}
