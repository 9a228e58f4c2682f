package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conorfennell/studytrace/internal/storage"
	"github.com/conorfennell/studytrace/internal/sync"
)

// SyncCmd returns the sync command.
func SyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Import cards from all configured sources",
		Args:  cobra.NoArgs,
		RunE:  runSync,
	}
}

func runSync(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	reports, err := a.syncer.RunSync(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(reports) == 0 {
		fmt.Fprintln(out, "No sources configured. Add one with `studytrace source add <path/or/url.git>`")
		return nil
	}
	for _, r := range reports {
		if r.Err != "" {
			fmt.Fprintf(out, "%s %s: %s\n", color.New(color.FgRed).Sprint("FAILED"), r.Path, r.Err)
			continue
		}
		fmt.Fprintf(out, "%s %s: %d parsed, %d inserted, %d deleted, %d errors\n",
			color.New(color.FgGreen).Sprint("OK"), r.Path, r.Parsed, r.Inserted, r.Deleted, r.Errors)
	}
	return nil
}

// SourceCmd returns the source command group.
func SourceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage card sources",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "add <path|url>",
		Short: "Add a local directory or git repository as a card source",
		Args:  cobra.ExactArgs(1),
		RunE:  runSourceAdd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List card sources",
		Args:  cobra.NoArgs,
		RunE:  runSourceList,
	})
	return cmd
}

func runSourceAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	path := args[0]
	sourceType := sync.SourceType(path)
	if sourceType == storage.SourceLocal {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve path %s: %w", path, err)
		}
		path = abs
	}

	existing, err := a.db.FindSourceByPath(cmd.Context(), path)
	if err != nil {
		return err
	}
	if existing != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Source already exists: %s\n", path)
		return nil
	}

	id, err := a.db.InsertSource(cmd.Context(), path, sourceType)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s source %d: %s\n", sourceType, id, path)
	return nil
}

func runSourceList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	sources, err := a.db.GetAllSources(cmd.Context())
	if err != nil {
		return err
	}
	for _, s := range sources {
		scanned := "never"
		if s.LastScanned.Valid {
			scanned = s.LastScanned.Time.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\t%s\n", s.ID, s.Type, s.Path, scanned)
	}
	return nil
}
