package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hearthml/hearth/internal/ml"
)

func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect the prediction model",
	}

	cmd.AddCommand(newModelCheckCmd())

	return cmd
}

func newModelCheckCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check [path]",
		Short: "Validate a model coefficients file",
		Long:  "Load the model file, verify every feature column has a coefficient, and score a sample house as a smoke test.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := viper.GetString("model.path")
			if len(args) > 0 {
				path = args[0]
			}
			if path == "" {
				path = "model.yaml"
			}
			return runModelCheck(path, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runModelCheck(path string, jsonOutput bool) error {
	m, err := ml.Load(path)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	// Score a representative California house as a smoke test.
	sample := ml.HouseFeatures{
		Longitude:        -122.23,
		Latitude:         37.88,
		HousingMedianAge: 41,
		TotalRooms:       880,
		TotalBedrooms:    129,
		Population:       322,
		Households:       126,
		MedianIncome:     8.3252,
		OceanProximity:   "NEAR BAY",
	}
	price := m.Predict(sample)

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]interface{}{
			"path":         path,
			"features":     len(ml.FeatureColumns()),
			"sample_price": price,
		})
	}

	fmt.Printf("Model OK: %s\n", path)
	fmt.Printf("  features:     %d\n", len(ml.FeatureColumns()))
	fmt.Printf("  sample price: %.2f USD\n", price)
	return nil
}
