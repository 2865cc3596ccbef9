package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ciudamos/authority"
	"ciudamos/classify"
)

func newListCommand(v *viper.Viper) *cobra.Command {
	var (
		areas   []string
		urgency string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored reports as an authority dashboard would",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			st, closeStore, err := openLocalStore(ctx, v)
			if err != nil {
				return err
			}
			defer closeStore()

			dash := authority.Filter(st.Reports(), areas, urgency)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Asignados: %d  Mostrados: %d\n", dash.Assigned, len(dash.Reports))

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tFECHA\tCATEGORIA\tURGENCIA\tESTADO")
			for _, r := range dash.Reports {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Timestamp, r.Category, classify.InferReportUrgency(r), r.CurrentStatus())
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringSliceVar(&areas, "authority-areas", nil, "areas the authority handles (default: all)")
	cmd.Flags().StringVar(&urgency, "urgency", authority.UrgencyAll, "Alta, Media, Baja or ALL")
	return cmd
}
