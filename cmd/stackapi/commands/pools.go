package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/stackapi/internal/constants"
	"github.com/fivetwenty-io/stackapi/pkg/stackapi"
)

// NewPoolsCommand creates the load-balancer pools command group.
func NewPoolsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pools",
		Aliases: []string{"pool"},
		Short:   "Manage load-balancer pools",
		Long: `Manage load-balancer pools and their members.

Changes rejected with 409 Conflict while the load balancer is busy are retried.`,
	}

	cmd.AddCommand(newPoolsListCommand())
	cmd.AddCommand(newPoolsCreateCommand())
	cmd.AddCommand(newPoolsDeleteCommand())
	cmd.AddCommand(newPoolsAddMemberCommand())

	return cmd
}

func renderPool(cmd *cobra.Command, pool *stackapi.Pool) error {
	return render(cmd, pool, func(table *tablewriter.Table) error {
		table.Header("Property", "Value")

		return appendRows(table, [][]string{
			{"ID", pool.ID},
			{"Name", valueOrNA(pool.Name)},
			{"Protocol", pool.Protocol},
			{"Algorithm", pool.LBAlgorithm},
			{"Provisioning Status", valueOrNA(pool.ProvisioningStatus)},
			{"Operating Status", valueOrNA(pool.OperatingStatus)},
			{"Members", strconv.Itoa(len(pool.Members))},
		})
	})
}

func newPoolsListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pools",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			list, err := session.LoadBalancer().ListPools(contextOf(cmd), listParams(cmd))
			if err != nil {
				return fmt.Errorf("failed to list pools: %w", err)
			}

			return render(cmd, list, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Protocol", "Algorithm", "Status", "Members")

				rows := make([][]string, 0, len(list.Pools))
				for _, pool := range list.Pools {
					rows = append(rows, []string{
						pool.ID,
						valueOrNA(pool.Name),
						pool.Protocol,
						pool.LBAlgorithm,
						valueOrNA(pool.ProvisioningStatus),
						strconv.Itoa(len(pool.Members)),
					})
				}

				return appendRows(table, rows)
			})
		},
	}

	addListFlags(cmd)

	return cmd
}

func newPoolsCreateCommand() *cobra.Command {
	var req stackapi.PoolCreateRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			pool, err := session.LoadBalancer().CreatePool(contextOf(cmd), &req)
			if err != nil {
				return fmt.Errorf("failed to create pool: %w", err)
			}

			return renderPool(cmd, pool)
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "pool name")
	cmd.Flags().StringVar(&req.Description, "description", "", "pool description")
	cmd.Flags().StringVar(&req.Protocol, "protocol", "HTTP", "pool protocol")
	cmd.Flags().StringVar(&req.LBAlgorithm, "lb-algorithm", "ROUND_ROBIN", "load-balancing algorithm")
	cmd.Flags().StringVar(&req.ListenerID, "listener", "", "listener id")
	cmd.Flags().StringVar(&req.LoadBalancerID, "loadbalancer", "", "load balancer id")

	return cmd
}

func newPoolsDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete POOL_ID",
		Short: "Delete a pool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			err = session.LoadBalancer().DeletePool(contextOf(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete pool: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Pool %s deleted\n", args[0])

			return nil
		},
	}
}

func newPoolsAddMemberCommand() *cobra.Command {
	var (
		poolID string
		weight int
		req    stackapi.MemberCreateRequest
	)

	cmd := &cobra.Command{
		Use:   "add-member",
		Short: "Add a member to a pool",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if poolID == "" {
				return constants.ErrPoolIDRequired
			}

			if req.Address == "" {
				return constants.ErrMemberAddrMissing
			}

			if cmd.Flags().Changed("weight") {
				req.Weight = &weight
			}

			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			member, err := session.LoadBalancer().CreateMember(contextOf(cmd), poolID, &req)
			if err != nil {
				return fmt.Errorf("failed to add pool member: %w", err)
			}

			return render(cmd, member, func(table *tablewriter.Table) error {
				table.Header("ID", "Address", "Port", "Weight", "Status")

				return appendRows(table, [][]string{{
					member.ID,
					member.Address,
					strconv.Itoa(member.ProtocolPort),
					strconv.Itoa(member.Weight),
					valueOrNA(member.ProvisioningStatus),
				}})
			})
		},
	}

	cmd.Flags().StringVar(&poolID, "pool", "", "pool id")
	cmd.Flags().StringVar(&req.Name, "name", "", "member name")
	cmd.Flags().StringVar(&req.Address, "address", "", "member IP address")
	cmd.Flags().IntVar(&req.ProtocolPort, "port", 80, "member port")
	cmd.Flags().IntVar(&weight, "weight", 1, "member weight")
	cmd.Flags().StringVar(&req.SubnetID, "subnet", "", "member subnet id")

	return cmd
}
