package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func helpActionCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "help-action <verb>",
		Aliases: []string{"help_action"},
		Short:   "Print an example about how to use a verb",
		Example: "  " + progName + " help-action get-tracks",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, _, err := cmd.Root().Find(args)
			if err != nil || target == cmd.Root() {
				return usageErrorf("unsupported action: %s", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n\n", target.Short)
			if target.Example != "" {
				fmt.Fprintln(out, target.Example)
			}
			if target.Long != "" {
				fmt.Fprintf(out, "\n%s\n", strings.TrimSpace(target.Long))
			}
			return nil
		},
	}
}
