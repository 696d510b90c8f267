package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/0xcro3dile/staffassist/internal/domain/usecases"
)

// newSessionsCmd creates the 'sessions' command for reading a conversation log.
func newSessionsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <session-id>",
		Short: "Print the conversation log of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.validate(false); err != nil {
				return err
			}

			st, err := openStore(a.cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			history, err := usecases.NewConversationStore(st, a.logger, nil).History(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to read session %q: %w", args[0], err)
			}

			out, err := json.MarshalIndent(history, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
