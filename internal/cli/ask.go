package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/0xcro3dile/staffassist/internal/domain/entities"
)

var writeClipboard = clipboard.WriteAll

type askOptions struct {
	session string
	staff   string
	copy    bool
}

// newAskCmd creates the 'ask' command for one-shot questions.
func newAskCmd(a *app) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the response envelope",
		Example: `  staffassist ask "Show me today's sales summary"
  staffassist ask --session 6f1c... "and yesterday?" --copy`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.validate(true); err != nil {
				return err
			}

			st, err := openStore(a.cfg.Store)
			if err != nil {
				return err
			}
			defer st.Close()

			assistant, err := a.newAssistant(cmd.Context(), st)
			if err != nil {
				return err
			}

			reply := assistant.Handle(cmd.Context(), entities.Query{
				Text:      strings.Join(args, " "),
				SessionID: opts.session,
				AskerID:   opts.staff,
			})

			out, err := json.MarshalIndent(reply, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode reply: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))

			if opts.copy {
				if err := writeClipboard(reply.Response.Content); err != nil {
					a.logger.Warn("clipboard unavailable", zap.Error(err))
				} else {
					fmt.Fprintln(cmd.ErrOrStderr(), "Response content copied to clipboard")
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.session, "session", "", "continue an existing session")
	cmd.Flags().StringVar(&opts.staff, "staff", "", "staff user id recorded with the session")
	cmd.Flags().BoolVar(&opts.copy, "copy", false, "copy the response content to the clipboard")
	return cmd
}
