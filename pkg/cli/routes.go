package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nuxleus/directhost/pkg/cli/internal/output"
)

func newRoutesCommand(g *globalOptions) *cobra.Command {
	opts := &hostOptions{}
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "List the route table of the selected services",
		Example: `  directhost routes --demo
  directhost routes -f 'fixtures/*.yaml' --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, cleanup, err := opts.newFixture(cmd.Context(), g)
			if err != nil {
				return err
			}
			defer cleanup()

			routes := f.Routes()
			return g.printResult(routes, func(w io.Writer) {
				tw := output.Table(w)
				fmt.Fprintln(tw, "VERBS\tPATH\tOPERATION")
				for _, r := range routes {
					verbs := strings.Join(r.Verbs, ",")
					if verbs == "" {
						verbs = "*"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", verbs, r.Path, r.Operation)
				}
				_ = tw.Flush()
			})
		},
	}
	opts.bind(cmd)
	return cmd
}
