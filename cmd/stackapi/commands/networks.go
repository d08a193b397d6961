package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewNetworksCommand creates the networks command group.
func NewNetworksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "networks",
		Aliases: []string{"network", "net"},
		Short:   "Inspect networks",
	}

	cmd.AddCommand(newNetworksListCommand())
	cmd.AddCommand(newNetworksGetCommand())

	return cmd
}

func newNetworksListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List networks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			list, err := session.Networking().ListNetworks(contextOf(cmd), listParams(cmd))
			if err != nil {
				return fmt.Errorf("failed to list networks: %w", err)
			}

			return render(cmd, list, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Status", "External", "Shared", "Subnets")

				rows := make([][]string, 0, len(list.Networks))
				for _, network := range list.Networks {
					rows = append(rows, []string{
						network.ID,
						network.Name,
						network.Status,
						formatBool(network.External),
						formatBool(network.Shared),
						strconv.Itoa(len(network.Subnets)),
					})
				}

				return appendRows(table, rows)
			})
		},
	}

	addListFlags(cmd)

	return cmd
}

func newNetworksGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get NETWORK_ID",
		Short: "Get network details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			network, err := session.Networking().GetNetwork(contextOf(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to get network: %w", err)
			}

			return render(cmd, network, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return appendRows(table, [][]string{
					{"ID", network.ID},
					{"Name", network.Name},
					{"Status", network.Status},
					{"Project", valueOrNA(network.ProjectID)},
					{"External", formatBool(network.External)},
					{"MTU", strconv.Itoa(network.MTU)},
					{"Subnets", valueOrNA(strings.Join(network.Subnets, ", "))},
				})
			})
		},
	}
}
