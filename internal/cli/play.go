package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"exam-quiz-service/internal/app"
	"exam-quiz-service/internal/config"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/tui"
)

type playOptions struct {
	selector   string
	externalID string
	noColor    bool
}

// NewPlayCmd runs one quiz session in the terminal.
func NewPlayCmd(configPath *string) *cobra.Command {
	var opts playOptions
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz session in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !isTerminal(cmd.OutOrStdout()) {
				return errNotTerminal
			}
			return runPlay(cmd.Context(), *configPath, opts)
		},
	}
	cmd.Flags().StringVar(&opts.selector, "category", "", "category name, \"weak\" or empty for a mixed run")
	cmd.Flags().StringVar(&opts.externalID, "user", "", "external id of a signed-in player (omit to play as guest)")
	cmd.Flags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")
	return cmd
}

func runPlay(ctx context.Context, configPath string, opts playOptions) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	rt, err := newServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	user, err := rt.resolvePlayer(ctx, opts.externalID)
	if err != nil {
		return err
	}

	session, err := app.BeginSession(ctx, rt.analytics, rt.bank, user, opts.selector, uuid.NewString(), time.Now())
	if err != nil {
		return err
	}

	model := tui.NewModel(ctx, session, rt.analytics, tui.Options{NoColor: opts.noColor, User: user})
	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(tui.Model); ok && m.Outcome() != nil {
		o := m.Outcome()
		fmt.Printf("%d/%d correct (%d%%)\n", o.Overall.TotalCorrect, o.Overall.TotalAnswered, o.Overall.Rate)
	}
	return nil
}

// resolvePlayer looks up a registered player; an empty id plays as guest.
func (rt *services) resolvePlayer(ctx context.Context, externalID string) (*domain.User, error) {
	if externalID == "" {
		return nil, nil
	}
	if rt.store == nil {
		return nil, domain.ErrStorageUnavailable
	}
	user, err := rt.store.GetUserByExternalID(ctx, externalID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("%w: run signin first", err)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
