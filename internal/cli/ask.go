package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"notewise/internal/vectorize"
)

func newAskCommand() *cobra.Command {
	var (
		noContext    bool
		filterType   string
		filterExt    string
		createdYear  int
		modifiedYear int
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a one-off question grounded in your notes",
		Long: `Ask a single question and print the answer.

By default the question is enriched with the most relevant notes from
the vector index before it is sent to the model. Metadata flags narrow
which notes are considered.

Examples:
  notewise ask "what did I decide about the api redesign?"
  notewise ask --created-year 2025 "summarize my january planning notes"
  notewise ask --no-context "explain vector embeddings"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			filter, err := buildFilter(filterType, filterExt, createdYear, modifiedYear)
			if err != nil {
				return err
			}
			return runAsk(cmd, question, noContext, filter)
		},
	}

	cmd.Flags().BoolVar(&noContext, "no-context", false, "skip note retrieval and ask the model directly")
	cmd.Flags().StringVar(&filterType, "type", "", "only consider notes of this type")
	cmd.Flags().StringVar(&filterExt, "ext", "", "only consider notes with this extension")
	cmd.Flags().IntVar(&createdYear, "created-year", 0, "only consider notes created in this year")
	cmd.Flags().IntVar(&modifiedYear, "modified-year", 0, "only consider notes modified in this year")

	return cmd
}

func runAsk(cmd *cobra.Command, question string, noContext bool, filter vectorize.Filter) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.teardown()

	session, err := a.newSession(!noContext)
	if err != nil {
		return err
	}

	reply, err := session.Send(ctx, question, filter)
	if err != nil {
		return err
	}

	fmt.Println(reply)
	return nil
}

// buildFilter assembles a metadata filter from the ask flags and
// validates it before any request is made.
func buildFilter(noteType, ext string, createdYear, modifiedYear int) (vectorize.Filter, error) {
	filter := vectorize.Filter{}
	if noteType != "" {
		filter["type"] = noteType
	}
	if ext != "" {
		filter["extension"] = strings.TrimPrefix(ext, ".")
	}
	if createdYear != 0 {
		filter["createdYear"] = createdYear
	}
	if modifiedYear != 0 {
		filter["modifiedYear"] = modifiedYear
	}
	if len(filter) == 0 {
		return nil, nil
	}
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return filter, nil
}
