package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ciudamos/classify"
	"ciudamos/db"
	"ciudamos/store"
)

type submitOptions struct {
	lat, lon    float64
	title       string
	category    string
	urgency     string
	description string
	area        string
}

func newSubmitCommand(v *viper.Viper) *cobra.Command {
	var o submitOptions
	cmd := &cobra.Command{
		Use:   "submit <image>",
		Short: "Classify a photo, confirm the draft and store the report",
		Long: `Submit classifies the photo, applies the flag overrides on top of the
AI draft and stores the report. A category must be recognised or given
with --category; it is never guessed.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSubmit(cmd, v, args[0], o)
		},
	}
	cmd.Flags().Float64Var(&o.lat, "lat", 0, "latitude of the incident")
	cmd.Flags().Float64Var(&o.lon, "lon", 0, "longitude of the incident")
	cmd.Flags().StringVar(&o.title, "title", "", "display title (default: the category)")
	cmd.Flags().StringVar(&o.category, "category", "", "confirmed category, overrides the AI")
	cmd.Flags().StringVar(&o.urgency, "urgency", "", "Alta, Media or Baja, overrides the AI")
	cmd.Flags().StringVar(&o.description, "description", "", "description, overrides the AI")
	cmd.Flags().StringVar(&o.area, "area", "", "responsible area (default: the category)")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func runSubmit(cmd *cobra.Command, v *viper.Viper, image string, o submitOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	_, draft, err := classifyImage(ctx, v, image)
	if err != nil {
		return err
	}
	printAdvisory(out, draft)

	photo, err := filepath.Abs(image)
	if err != nil {
		photo = image
	}
	report, err := classify.ConfirmDraft(draft, o.lat, o.lon, "file://"+photo, classify.Overrides{
		Title:       o.title,
		Category:    o.category,
		Urgency:     o.urgency,
		Description: o.description,
		Area:        o.area,
	})
	if err != nil {
		return err
	}

	st, closeStore, err := openLocalStore(ctx, v)
	if err != nil {
		return err
	}
	defer closeStore()

	saved, err := st.Add(ctx, report)
	if err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	fmt.Fprintf(out, "Reporte %s guardado: %s (%s)\n", saved.ID, saved.Category, saved.Urgency)
	return nil
}

// openLocalStore opens the sqlite backed store named by the store setting.
func openLocalStore(ctx context.Context, v *viper.Viper) (*store.Store, func(), error) {
	kv, err := db.OpenSQL(ctx, db.DialectSQLite, v.GetString("store"))
	if err != nil {
		return nil, nil, fmt.Errorf("open local store: %w", err)
	}
	st, err := store.Open(ctx, kv)
	if err != nil {
		kv.Close()
		return nil, nil, err
	}
	return st, func() {
		st.Close()
		kv.Close()
	}, nil
}
