package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hearthml/hearth/internal/service"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "key",
		Aliases: []string{"apikey"},
		Short:   "Manage API keys",
		Long:    "Create, list, and deactivate API keys used to authenticate against the Hearth API.",
	}

	cmd.AddCommand(newKeyCreateCmd())
	cmd.AddCommand(newKeyListCmd())
	cmd.AddCommand(newKeyDeactivateCmd())

	return cmd
}

// newAuthService builds an AuthService for CLI credential operations. The
// JWT secret is irrelevant here; the CLI never mints tokens.
func newAuthService() (*service.AuthService, func(), error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}
	svc := service.NewAuthService(st, service.AuthConfig{
		JWTSecret:  viper.GetString("auth.jwt_secret"),
		BcryptCost: viper.GetInt("auth.bcrypt_cost"),
	})
	return svc, func() { st.Close() }, nil
}

// ---------- key create ----------

func newKeyCreateCmd() *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new API key",
		Long:  "Generate a new API key. The plaintext is shown once and cannot be retrieved again.",
		Example: `  hearth key create "CI pipeline"
  hearth key create "batch scorer" --description "Nightly bulk scoring job"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyCreate(args[0], description)
		},
	}

	cmd.Flags().StringVar(&description, "description", "", "Human-readable description for the key")

	return cmd
}

func runKeyCreate(name, description string) error {
	authSvc, closeStore, err := newAuthService()
	if err != nil {
		return err
	}
	defer closeStore()

	key, plaintext, err := authSvc.IssueKey(context.Background(), name, description)
	if err != nil {
		return fmt.Errorf("create api key: %w", err)
	}

	fmt.Println("API Key created:")
	fmt.Println()
	fmt.Printf("  ID:   %d\n", key.ID)
	fmt.Printf("  Name: %s\n", key.Name)
	fmt.Printf("  Key:  %s\n", plaintext)
	fmt.Println()
	fmt.Println("  Save this key now - it cannot be retrieved again.")
	return nil
}

// ---------- key list ----------

func newKeyListCmd() *cobra.Command {
	var (
		jsonOutput  bool
		showDeleted bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List all API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeyList(jsonOutput, showDeleted)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&showDeleted, "all", false, "Include soft-deleted keys")

	return cmd
}

func runKeyList(jsonOutput, showDeleted bool) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	keys, err := st.ListAPIKeys(context.Background(), 0, 1000, showDeleted)
	if err != nil {
		return fmt.Errorf("list api keys: %w", err)
	}

	type keyRow struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Prefix  string `json:"prefix"`
		Status  string `json:"status"`
		Created string `json:"created"`
	}

	rows := make([]keyRow, len(keys))
	for i, k := range keys {
		rows[i] = keyRow{
			ID:      k.ID,
			Name:    k.Name,
			Prefix:  k.KeyPrefix,
			Status:  string(k.Status()),
			Created: k.CreatedAt.Format(time.RFC3339),
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}

	if len(rows) == 0 {
		fmt.Println("No API keys. Use 'hearth key create' to create one.")
		return nil
	}

	fmt.Printf("%-6s %-24s %-10s %-12s %-24s\n", "ID", "NAME", "PREFIX", "STATUS", "CREATED")
	fmt.Printf("%-6s %-24s %-10s %-12s %-24s\n", "--", "----", "------", "------", "-------")
	for _, k := range rows {
		fmt.Printf("%-6d %-24s %-10s %-12s %-24s\n", k.ID, k.Name, k.Prefix, k.Status, k.Created)
	}

	return nil
}

// ---------- key deactivate ----------

func newKeyDeactivateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "deactivate <id>",
		Aliases: []string{"revoke"},
		Short:   "Deactivate an API key by ID",
		Long:    "Deactivate an API key, preventing any further authenticated requests using that key. Existing session tokens stop working immediately.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key ID %q", args[0])
			}
			return runKeyDeactivate(id)
		},
	}

	return cmd
}

func runKeyDeactivate(id int64) error {
	st, err := openStore()
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if err := st.DeactivateAPIKey(context.Background(), id); err != nil {
		return fmt.Errorf("deactivate api key: %w", err)
	}

	fmt.Printf("Deactivated API key %d\n", id)
	return nil
}
