package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// main hands off to the cobra command tree. Wiring lives in app.go; business
// logic lives in the internal service packages.
func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "linkage",
		Short: "Compliance relationship graph service",
		Long: `linkage tracks KYC/KYB relationships between screened parties: family and
business ties, ownership and control, and organization to individual
associations, with verification, risk escalation and periodic review.

Configuration is read from the environment.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newMigrateCommand())
	return root
}
