package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/passbolt-e2e/internal/config"
	"github.com/xkilldash9x/passbolt-e2e/internal/observability"
	"github.com/xkilldash9x/passbolt-e2e/internal/server"
)

func newServerClient(cfg *config.Config) (*server.Client, error) {
	return server.NewClient(cfg.Passbolt().URL, cfg.Server().Timeout, observability.GetLogger())
}

// newCheckCmd probes the application before a test run.
func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the application under test is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			client, err := newServerClient(cfg)
			if err != nil {
				return err
			}

			ok := color.New(color.FgGreen, color.Bold).SprintFunc()
			ko := color.New(color.FgRed, color.Bold).SprintFunc()
			out := cmd.OutOrStdout()

			health, err := client.Health(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "%s %s: %v\n", ko("FAIL"), client.BaseURL(), err)
				return err
			}
			if !health.OK() {
				fmt.Fprintf(out, "%s %s: %s (%s)\n", ko("FAIL"), client.BaseURL(), health.Status, health.Message)
				return fmt.Errorf("application is not healthy: %s", health.Message)
			}
			fmt.Fprintf(out, "%s %s: %s\n", ok("OK"), client.BaseURL(), health.Message)
			return nil
		},
	}
}

func newResetDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-db [dataset]",
		Short: "Reset the application database to a dataset",
		Long:  "Reset the database with the configured strategy (server.reset.strategy). The dataset defaults to passbolt.reset_dataset.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			dataset := cfg.Passbolt().ResetDataset
			if len(args) == 1 {
				dataset = args[0]
			}

			client, err := newServerClient(cfg)
			if err != nil {
				return err
			}
			logger := observability.GetLogger()
			resetter, closeFn, err := server.NewResetter(cmd.Context(), cfg.Server(), client, afero.NewOsFs(), logger)
			if err != nil {
				return err
			}
			defer closeFn()

			if err := resetter.Reset(cmd.Context(), dataset); err != nil {
				return err
			}
			logger.Info("Database reset.", zap.String("dataset", dataset))
			fmt.Fprintf(cmd.OutOrStdout(), "database reset to %q\n", dataset)
			return nil
		},
	}
}

func newEmailCmd() *cobra.Command {
	var link string

	cmd := &cobra.Command{
		Use:   "email <username>",
		Short: "Show the last email the application sent to a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			client, err := newServerClient(cfg)
			if err != nil {
				return err
			}
			email, err := client.LastEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			if link != "" {
				href, ok := email.LinkByText(link)
				if !ok {
					return fmt.Errorf("no link matching %q in the last email to %s", link, args[0])
				}
				fmt.Fprintln(cmd.OutOrStdout(), href)
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Subject: %s\n", email.Subject)
			for _, l := range email.Links {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s <%s>\n", l.Text, l.Href)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&link, "link", "", "print only the href of the first link whose text contains this")
	return cmd
}
