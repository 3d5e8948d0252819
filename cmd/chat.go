package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spigell/career-pilot/internal/assistant"
	"github.com/spigell/career-pilot/internal/failure"
	"github.com/spigell/career-pilot/internal/logger"
	"github.com/spigell/career-pilot/internal/profile"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	PromptSubmit   = "Submit resume and query"
	PromptFollowUp = "Ask a follow-up question"
	PromptExport   = "Export PDF summary"
	PromptProfile  = "Show resume info"
	PromptExit     = "Exit"

	chatSessionID = "cli"
)

var errExit = errors.New("exit requested")

var menu = promptui.Select{
	Label: "What next?",
	Items: []string{PromptSubmit, PromptFollowUp, PromptExport, PromptProfile, PromptExit},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive session",
	Run: func(cmd *cobra.Command, _ []string) {
		chat(cmd)
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringP("resume", "r", "", "path to the resume file (PDF or text)")
}

type chatState struct {
	service    *assistant.Service
	out        io.Writer
	resumePath string
	profile    *profile.Candidate
	logger     *zap.Logger
}

// chat runs the interactive menu loop. Each action completes before the next menu.
func chat(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(logger.Options{
		JSON:  viper.GetBool("json"),
		Debug: viper.GetBool("debug"),
		File:  viper.GetString("log-file"),
	})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the career-pilot", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", redactConfig(string(pretty), config)))

	service, closeStore, err := newService(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the assistant", zap.Error(err))
	}
	defer closeStore()

	if _, err := service.Sessions().Open(ctx, chatSessionID); err != nil {
		logger.Fatal("opening a session", zap.Error(err))
	}
	defer func() {
		if err := service.Sessions().End(ctx, chatSessionID); err != nil {
			logger.Warn("ending the session", zap.Error(err))
		}
	}()

	state := &chatState{
		service:    service,
		out:        cmd.OutOrStdout(),
		resumePath: cmd.Flag("resume").Value.String(),
		logger:     logger,
	}

	for {
		_, action, err := menu.Run()
		if err != nil {
			logger.Info("exiting", zap.Error(err))
			return
		}

		if err := state.handleAction(ctx, action); err != nil {
			if errors.Is(err, errExit) || isPromptAbort(err) {
				return
			}
			logger.Error("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func (s *chatState) handleAction(ctx context.Context, action string) error {
	switch action {
	case PromptSubmit:
		return s.submit(ctx)
	case PromptFollowUp:
		return s.followUp(ctx)
	case PromptExport:
		return s.export(ctx)
	case PromptProfile:
		return s.showProfile()
	case PromptExit:
		s.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	}

	return fmt.Errorf("unknown action %q", action)
}

func (s *chatState) submit(ctx context.Context) error {
	pathPrompt := promptui.Prompt{Label: "Resume file", Default: s.resumePath, AllowEdit: true}
	path, err := pathPrompt.Run()
	if err != nil {
		return err
	}
	s.resumePath = strings.TrimSpace(path)

	queryPrompt := promptui.Prompt{Label: "What's on your mind? (e.g. Software Developer jobs in Kochi)"}
	query, err := queryPrompt.Run()
	if err != nil {
		return err
	}

	var resume []byte
	if s.resumePath != "" {
		resume, err = os.ReadFile(s.resumePath)
		if err != nil {
			return fmt.Errorf("reading resume: %w", err)
		}
	}

	result, err := s.service.Submit(ctx, chatSessionID, resume, query)
	if result.Profile != nil {
		s.profile = result.Profile
	}
	if err != nil {
		return s.show(err)
	}

	s.logger.Info("query answered",
		zap.String(logger.FieldIntent, result.Classification.Intent.String()),
		zap.Bool("fallback", result.Classification.Fallback),
	)
	fmt.Fprintln(s.out, result.Text)
	return nil
}

func (s *chatState) followUp(ctx context.Context) error {
	questionPrompt := promptui.Prompt{Label: "Ask a question"}
	question, err := questionPrompt.Run()
	if err != nil {
		return err
	}

	answer, err := s.service.FollowUp(ctx, chatSessionID, question)
	if err != nil {
		return s.show(err)
	}

	fmt.Fprintln(s.out, answer)
	return nil
}

func (s *chatState) export(ctx context.Context) error {
	path, err := s.service.ExportFile(ctx, chatSessionID)
	if err != nil {
		return s.show(err)
	}

	fmt.Fprintf(s.out, "PDF summary saved to %s\n", path)
	return nil
}

func (s *chatState) showProfile() error {
	if s.profile == nil {
		fmt.Fprintln(s.out, "No resume info yet, submit a query first.")
		return nil
	}

	pretty, err := json.MarshalIndent(s.profile, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(pretty))
	return nil
}

// show prints user-facing failures and keeps the session going. Other errors are returned.
func (s *chatState) show(err error) error {
	if failure.KindOf(err) == "" {
		return err
	}
	fmt.Fprintf(s.out, "Error: %s\n", failure.Message(err))
	return nil
}

func isPromptAbort(err error) bool {
	return errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF)
}

// redactConfig hides inline secrets before the config is logged.
func redactConfig(pretty string, config *Config) string {
	if config.Gemini.APIKey == "" {
		return pretty
	}
	return strings.ReplaceAll(pretty, config.Gemini.APIKey, "***")
}
