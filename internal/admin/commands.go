package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sharkguard/internal/application"
	"github.com/JonMunkholm/sharkguard/internal/core"
)

// ErrNotConfirmed is returned by reset without --yes.
var ErrNotConfirmed = errors.New("refusing to reset without --yes")

func importCommand(c *cli) *cobra.Command {
	var (
		file   string
		atomic bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a catch CSV file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []application.Option
			if cmd.Flags().Changed("atomic") {
				opts = append(opts, application.WithAtomic(atomic))
			}
			app, err := c.open(cmd.Context(), opts...)
			if err != nil {
				return err
			}
			defer app.Close()

			f, err := os.Open(file)
			if err != nil {
				return fmt.Errorf("open %s: %w", file, err)
			}
			defer f.Close()

			res, err := app.Service.Import(cmd.Context(), file, f)
			if err != nil {
				var ie *core.ImportError
				if errors.As(err, &ie) {
					for _, p := range ie.Problems {
						fmt.Fprintln(cmd.ErrOrStderr(), p.Error())
					}
				}
				return core.NewUserError(err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "rows %d: added %d sharks, %d beaches, %d catches\n",
				res.Rows, res.AddedSharks, res.AddedBeaches, res.AddedCatches)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "CSV file to import")
	cmd.Flags().BoolVar(&atomic, "atomic", false, "Run the write stages in one transaction")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func historyCommand(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent imports as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			recs, err := app.Service.ImportHistory(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if recs == nil {
				recs = []core.ImportRecord{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Number of imports to show")
	return cmd
}

func migrateCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database schema if it does not exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Service.Migrate(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func resetCommand(c *cli) *cobra.Command {
	var (
		scope   string
		confirm bool
	)

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete catch data (users are kept)",
		Long: "Delete catch data. Scope catches empties the catch table, scope all also empties\n" +
			"sharks, beaches, warning subscriptions and import history. This cannot be undone.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := core.ResetScope(scope)
			if !s.Valid() {
				return fmt.Errorf("unknown scope %q: use catches or all", scope)
			}
			if !confirm {
				return ErrNotConfirmed
			}

			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), ResetTimeout)
			defer cancel()
			if err := app.Service.Reset(ctx, s); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset %s\n", s)
			return nil
		},
	}

	cmd.Flags().StringVar(&scope, "scope", string(core.ResetCatches), "What to delete: catches or all")
	cmd.Flags().BoolVar(&confirm, "yes", false, "Confirm the reset")
	return cmd
}

func speciesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "species",
		Short:       "Print the species reference table",
		Annotations: map[string]string{skipConfig: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SPECIES\tCOMMON NAME\tRISK")
			for _, info := range core.SpeciesTable() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.Species, info.CommonName, info.Risk)
			}
			return tw.Flush()
		},
	}
}

func usersCommand(c *cli) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	var req core.CreateUserRequest
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Password == "" {
				req.Password = os.Getenv("SHARKCTL_PASSWORD")
			}

			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			u, err := app.Service.CreateUser(cmd.Context(), req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (access level %d)\n", u.Email, u.AccessLevel)
			return nil
		},
	}
	addCmd.Flags().StringVar(&req.Email, "email", "", "Email address")
	addCmd.Flags().StringVar(&req.FirstName, "first-name", "", "First name")
	addCmd.Flags().StringVar(&req.Surname, "surname", "", "Surname")
	addCmd.Flags().IntVar(&req.AccessLevel, "access-level", 1, "Access level 1-3")
	addCmd.Flags().StringVar(&req.Password, "password", "", "Password (default $SHARKCTL_PASSWORD)")
	_ = addCmd.MarkFlagRequired("email")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List user accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := c.open(cmd.Context())
			if err != nil {
				return err
			}
			defer app.Close()

			users, err := app.Service.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "EMAIL\tNAME\tLEVEL")
			for _, u := range users {
				fmt.Fprintf(tw, "%s\t%s %s\t%d\n", u.Email, u.FirstName, u.Surname, u.AccessLevel)
			}
			return tw.Flush()
		},
	}

	usersCmd.AddCommand(addCmd, listCmd)
	return usersCmd
}
