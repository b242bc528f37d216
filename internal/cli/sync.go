package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"notewise/internal/formatter"
)

func newSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync the vault into the vector index",
		Long: `Scan the vault and push changed notes into the vector index.

Notes are compared against their last recorded sync time, so an
unchanged vault is a cheap no-op. One note failing does not stop the
run; failures are listed in the result.

Examples:
  notewise sync
  notewise sync -o json
  notewise sync --config ./vault.yaml`,
		RunE: runSync,
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.teardown()

	if !a.cfg.Sync.Enabled {
		return fmt.Errorf("sync is disabled in configuration")
	}

	engine, err := a.newEngine()
	if err != nil {
		return err
	}

	result, err := engine.Sync(cmd.Context())
	if err != nil {
		return err
	}

	f, err := formatter.New(getOutputFormat(), !noColor)
	if err != nil {
		return err
	}
	out, err := f.Format(result)
	if err != nil {
		return err
	}
	if _, err := os.Stdout.Write(out); err != nil {
		return err
	}

	if result.Failed > 0 {
		return fmt.Errorf("%d notes failed to sync", result.Failed)
	}
	return nil
}
