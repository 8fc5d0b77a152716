package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/passbolt-e2e/internal/fixtures"
	"github.com/xkilldash9x/passbolt-e2e/internal/passbolt"
)

func newFixturesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fixtures",
		Short: "Inspect the fixture catalogue",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "users",
		Short: "List the fixture users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfig(cmd)
			if err != nil {
				return err
			}
			cat, err := fixtures.Load(afero.NewOsFs(), cfg.Fixtures().Path)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ALIAS\tUSERNAME\tNAME\tROLE\tID")
			for _, u := range cat.Users() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", u.Alias, u.Username, u.FullName(), u.Role, u.ID)
			}
			return w.Flush()
		},
	})
	return cmd
}

func newNotificationIDCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "notification-id <key>...",
		Short: "Print the DOM id of the notification for a message key",
		Args:  cobra.MinimumNArgs(1),
		// Pure computation, no configuration needed.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			for _, key := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", key, passbolt.NotificationElementID(key))
			}
		},
	}
}
