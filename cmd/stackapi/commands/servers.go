package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// NewServersCommand creates the servers command group.
func NewServersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "servers",
		Aliases: []string{"server"},
		Short:   "Manage compute servers",
	}

	cmd.AddCommand(newServersListCommand())
	cmd.AddCommand(newServersGetCommand())
	cmd.AddCommand(newServersConsoleCommand())
	cmd.AddCommand(newServersRebootCommand())

	return cmd
}

// formatAddresses flattens server addresses as "net=addr, addr; net2=addr".
func formatAddresses(addresses map[string][]stackapi.ServerAddress) string {
	networks := make([]string, 0, len(addresses))
	for network := range addresses {
		networks = append(networks, network)
	}

	sort.Strings(networks)

	parts := make([]string, 0, len(networks))

	for _, network := range networks {
		addrs := make([]string, 0, len(addresses[network]))
		for _, address := range addresses[network] {
			addrs = append(addrs, address.Addr)
		}

		parts = append(parts, network+"="+strings.Join(addrs, ", "))
	}

	return valueOrNA(strings.Join(parts, "; "))
}

func newServersListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List servers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			list, err := session.Compute().ListServers(contextOf(cmd), listParams(cmd))
			if err != nil {
				return fmt.Errorf("failed to list servers: %w", err)
			}

			return render(cmd, list, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Status", "Networks")

				rows := make([][]string, 0, len(list.Servers))
				for _, server := range list.Servers {
					rows = append(rows, []string{server.ID, server.Name, server.Status, formatAddresses(server.Addresses)})
				}

				return appendRows(table, rows)
			})
		},
	}

	addListFlags(cmd)

	return cmd
}

func newServersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get SERVER_ID",
		Short: "Get server details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			server, err := session.Compute().GetServer(contextOf(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to get server: %w", err)
			}

			return render(cmd, server, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return appendRows(table, [][]string{
					{"ID", server.ID},
					{"Name", server.Name},
					{"Status", server.Status},
					{"Project", valueOrNA(server.TenantID)},
					{"Networks", formatAddresses(server.Addresses)},
				})
			})
		},
	}
}

func newServersConsoleCommand() *cobra.Command {
	var consoleType string

	cmd := &cobra.Command{
		Use:   "console SERVER_ID",
		Short: "Get a remote console URL",
		Long: fmt.Sprintf("Get a remote console URL for a server. Types: %s, %s, %s, %s, %s.",
			constants.ConsoleNoVNC, constants.ConsoleXVPVNC, constants.ConsoleSpiceHTML5,
			constants.ConsoleRDPHTML5, constants.ConsoleSerial),
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			console, err := session.Compute().GetConsole(contextOf(cmd), args[0], consoleType)
			if err != nil {
				return fmt.Errorf("failed to get console: %w", err)
			}

			return render(cmd, console, func(table *tablewriter.Table) error {
				table.Header("Type", "URL")

				return appendRows(table, [][]string{{console.Type, console.URL}})
			})
		},
	}

	cmd.Flags().StringVar(&consoleType, "type", constants.ConsoleNoVNC, "console type")

	return cmd
}

func newServersRebootCommand() *cobra.Command {
	var hard bool

	cmd := &cobra.Command{
		Use:   "reboot SERVER_ID",
		Short: "Reboot a server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			err = session.Compute().Reboot(contextOf(cmd), args[0], hard)
			if err != nil {
				return fmt.Errorf("failed to reboot server: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reboot of server %s requested\n", args[0])

			return nil
		},
	}

	cmd.Flags().BoolVar(&hard, "hard", false, "power cycle instead of a graceful reboot")

	return cmd
}
