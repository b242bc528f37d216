package cli

import (
	"github.com/spf13/cobra"

	"notewise/internal/ui"
)

func newChatCommand() *cobra.Command {
	var noContext bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat grounded in your notes",
		Long: `Open an interactive chat session in the terminal.

Each question is enriched with the most relevant notes from the vector
index before it is sent to the model, and answers reference the source
notes by link. Use --no-context for a plain chat without retrieval.

Examples:
  notewise chat
  notewise chat --no-context`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, noContext)
		},
	}

	cmd.Flags().BoolVar(&noContext, "no-context", false, "skip note retrieval and chat with the model directly")

	return cmd
}

func runChat(cmd *cobra.Command, noContext bool) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.teardown()

	session, err := a.newSession(!noContext)
	if err != nil {
		return err
	}

	return ui.Run(session)
}
