package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"portfolio-backend-go/internal/app"
	"portfolio-backend-go/internal/config"
	"portfolio-backend-go/internal/logging"
	"portfolio-backend-go/internal/services"
	"portfolio-backend-go/internal/store"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore reads the config and opens the configured store. The caller must
// defer st.Close().
func openStore(ctx context.Context) (store.Store, error) {
	cfg, err := config.LoadOperator()
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if _, err := logging.Init(logging.Config{Level: logLevel, JSON: cfg.LogJSON}); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return st, nil
}

func newSeeder(st store.Store) services.Seeder {
	return services.Seeder{
		Store:   st,
		Content: services.NewContent(st, nil),
		About:   services.AboutService{Store: st},
	}
}

// readFixture decodes a YAML seed file.
func readFixture(path string) (services.Fixture, error) {
	var f services.Fixture
	raw, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return f, fmt.Errorf("parsing %s: %w", path, err)
	}
	return f, nil
}

func printCounts[N int | int64](cmd *cobra.Command, verb string, counts map[string]N) {
	colls := make([]string, 0, len(counts))
	for c := range counts {
		colls = append(colls, c)
	}
	sort.Strings(colls)
	for _, c := range colls {
		fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s %d\n", c, verb, counts[c])
	}
}

var logLevel string

var rootCmd = &cobra.Command{
	Use:          "portfolioctl",
	Short:        "Operator tasks for the portfolio backend",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
	},
}

// seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load or remove portfolio content",
}

var seedImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Insert the records of a seed file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fixture, err := readFixture(args[0])
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := newSeeder(st).Import(ctx, fixture)
		printCounts(cmd, "imported", counts)
		if err != nil {
			return fmt.Errorf("import stopped: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Data imported")
		return nil
	},
}

var seedDestroyYes bool

var seedDestroyCmd = &cobra.Command{
	Use:   "destroy",
	Short: "Delete all portfolio content (users, contacts, CVs and settings are kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !seedDestroyYes {
			return fmt.Errorf("refusing to delete content without --yes")
		}
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		counts, err := newSeeder(st).Destroy(ctx)
		printCounts(cmd, "deleted", counts)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Data destroyed")
		return nil
	},
}

// admin command
var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage administrator accounts",
}

var (
	adminName     string
	adminEmail    string
	adminPassword string
)

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin, or reset the password and role of an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		password := adminPassword
		if password == "" {
			password = os.Getenv("ADMIN_PASSWORD")
		}
		if adminEmail == "" || password == "" {
			return fmt.Errorf("--email and --password (or ADMIN_PASSWORD) are required")
		}
		ctx := cmd.Context()
		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		user, err := services.UserService{Store: st}.EnsureAdmin(ctx, adminName, adminEmail, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Admin %s <%s> ready (id %s)\n", user.Name, user.Email, user.ID)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	seedDestroyCmd.Flags().BoolVar(&seedDestroyYes, "yes", false, "confirm deletion")
	seedCmd.AddCommand(seedImportCmd, seedDestroyCmd)

	adminCreateCmd.Flags().StringVar(&adminName, "name", "Admin", "display name")
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "login email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "password (defaults to $ADMIN_PASSWORD)")
	adminCmd.AddCommand(adminCreateCmd)

	rootCmd.AddCommand(seedCmd, adminCmd)
}
