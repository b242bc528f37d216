package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"notewise/internal/generate"
)

func newGenerateCommand() *cobra.Command {
	var modeName string

	cmd := &cobra.Command{
		Use:   "generate [note]",
		Short: "Transform a note with the completion model",
		Long: `Generate a summary, outline, rewrite, or tag suggestions for a note.

The note is addressed by its vault-relative path. With no argument, or
with '-', the input text is read from stdin instead.

Examples:
  notewise generate projects/roadmap.md
  notewise generate --mode outline projects/roadmap.md
  cat draft.md | notewise generate --mode tags -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, modeName)
		},
	}

	cmd.Flags().StringVarP(&modeName, "mode", "m", "summarize", "transformation to apply (summarize, outline, rewrite, tags)")

	return cmd
}

func runGenerate(cmd *cobra.Command, args []string, modeName string) error {
	mode, err := generate.ParseMode(modeName)
	if err != nil {
		return err
	}

	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.teardown()

	input, err := readGenerateInput(a, args)
	if err != nil {
		return err
	}

	generator, err := generate.New(a.gateway, a.log)
	if err != nil {
		return err
	}

	output, err := generator.Generate(cmd.Context(), mode, input)
	if err != nil {
		return err
	}

	fmt.Println(output)
	return nil
}

func readGenerateInput(a *app, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}
	return a.scanner.Read(args[0])
}
