package commands

import (
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewStacksCommand creates the stacks command group.
func NewStacksCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "stacks",
		Aliases: []string{"stack"},
		Short:   "Inspect orchestration stacks",
	}

	cmd.AddCommand(newStacksListCommand())
	cmd.AddCommand(newStacksGetCommand())

	return cmd
}

func newStacksListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stacks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			list, err := session.Orchestration().ListStacks(contextOf(cmd), listParams(cmd))
			if err != nil {
				return fmt.Errorf("failed to list stacks: %w", err)
			}

			return render(cmd, list, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Status", "Created")

				rows := make([][]string, 0, len(list.Stacks))
				for _, stack := range list.Stacks {
					rows = append(rows, []string{stack.ID, stack.StackName, stack.StackStatus, valueOrNA(stack.CreationTime)})
				}

				return appendRows(table, rows)
			})
		},
	}

	addListFlags(cmd)

	return cmd
}

func newStacksGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get STACK_NAME STACK_ID",
		Short: "Get stack details",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			stack, err := session.Orchestration().GetStack(contextOf(cmd), args[0], args[1])
			if err != nil {
				return fmt.Errorf("failed to get stack: %w", err)
			}

			return render(cmd, stack, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return appendRows(table, [][]string{
					{"ID", stack.ID},
					{"Name", stack.StackName},
					{"Status", stack.StackStatus},
					{"Reason", valueOrNA(stack.StackStatusReason)},
					{"Created", valueOrNA(stack.CreationTime)},
					{"Updated", valueOrNA(stack.UpdatedTime)},
				})
			})
		},
	}
}
