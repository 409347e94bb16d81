package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yeisme/docflow/pkg/internal/policy"
)

var (
	policyCmd = &cobra.Command{
		Use:               "policy",
		Short:             "Document type policy commands",
		PersistentPreRunE: loadConfig,
	}

	policyListCmd = &cobra.Command{
		Use:     "ls",
		Short:   "list configured document types and their approval rules",
		Aliases: []string{"list"},
		Run: func(cmd *cobra.Command, args []string) {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tAPPROVAL\tREVIEW\tLEVEL")

			for _, e := range policy.FromGlobalConfig().Catalog() {
				fmt.Fprintf(tw, "%s\t%t\t%t\t%d\n", e.Type, e.RequiresApproval, e.RequiresReview, e.ApprovalLevel)
			}

			_ = tw.Flush()
		},
	}
)

// registerPolicyCommands 注册策略相关命令.
func registerPolicyCommands() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyListCmd)
}
