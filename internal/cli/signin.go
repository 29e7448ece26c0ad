package cli

import (
	"context"
	"fmt"

	"exam-quiz-service/internal/config"
	"exam-quiz-service/internal/domain"
	"exam-quiz-service/internal/identity"
	"github.com/spf13/cobra"
)

// NewSignInCmd registers a player from identity-provider profile data and prints a token.
func NewSignInCmd(configPath *string) *cobra.Command {
	var profile domain.Profile
	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Register a player and print a session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := runSignIn(cmd.Context(), *configPath, profile)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&profile.ExternalID, "external-id", "", "identity provider user id")
	cmd.Flags().StringVar(&profile.DisplayName, "name", "", "display name")
	cmd.Flags().StringVar(&profile.AvatarURL, "avatar", "", "avatar url")
	_ = cmd.MarkFlagRequired("external-id")
	return cmd
}

func runSignIn(ctx context.Context, configPath string, profile domain.Profile) (string, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	if cfg.Auth.Secret == "" {
		return "", fmt.Errorf("%w: set auth.secret or QUIZ_AUTH_SECRET", identity.ErrMissingSecret)
	}
	rt, err := newServices(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer rt.Close()

	_, token, err := rt.issuer.SignIn(ctx, profile)
	return token, err
}
