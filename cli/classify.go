package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ciudamos/aiclient"
	"ciudamos/classify"
	"ciudamos/types"
)

func newClassifyCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <image>",
		Short: "Classify a photo and print the pre-filled draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, draft, err := classifyImage(cmd.Context(), v, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := printJSON(out, "Resultado", res); err != nil {
				return err
			}
			if err := printJSON(out, "Borrador", draft); err != nil {
				return err
			}
			printAdvisory(out, draft)
			return nil
		},
	}
}

func newAIClient(v *viper.Viper) *aiclient.Client {
	var opts []aiclient.Option
	if d := v.GetDuration("timeout"); d > 0 {
		opts = append(opts, aiclient.WithTimeout(d))
	}
	return aiclient.New(v.GetString("server"), opts...)
}

func classifyImage(ctx context.Context, v *viper.Viper, path string) (types.AIResult, types.Draft, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	res, err := newAIClient(v).Analyze(ctx, path)
	if err != nil {
		return types.AIResult{}, types.Draft{}, fmt.Errorf("classify %s: %w", path, err)
	}
	return res, classify.DraftFromAI(res), nil
}

func printJSON(w io.Writer, label string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", label, err)
	}
	fmt.Fprintf(w, "%s:\n%s\n", label, data)
	return nil
}

func printAdvisory(w io.Writer, d types.Draft) {
	if d.Confidence < classify.LowConfidence {
		fmt.Fprintf(w, "Confianza baja (%.2f): revisa los campos antes de enviar.\n", d.Confidence)
	}
	if d.Category == "" {
		fmt.Fprintf(w, "Categoría no reconocida (%q): confírmala con --category.\n", d.RawCategory)
	}
}
