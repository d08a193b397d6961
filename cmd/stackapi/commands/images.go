package commands

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

// NewImagesCommand creates the images command group.
func NewImagesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "images",
		Aliases: []string{"image"},
		Short:   "Manage images",
		Long:    "List, inspect and delete images of the image service",
	}

	cmd.AddCommand(newImagesListCommand())
	cmd.AddCommand(newImagesGetCommand())
	cmd.AddCommand(newImagesDeleteCommand())

	return cmd
}

func newImagesListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List images",
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			list, err := session.Images().List(contextOf(cmd), listParams(cmd))
			if err != nil {
				return fmt.Errorf("failed to list images: %w", err)
			}

			return render(cmd, list, func(table *tablewriter.Table) error {
				table.Header("ID", "Name", "Status", "Disk Format", "Size")

				rows := make([][]string, 0, len(list.Images))
				for _, image := range list.Images {
					rows = append(rows, []string{
						image.ID, image.Name, image.Status, valueOrNA(image.DiskFormat), strconv.FormatInt(image.Size, 10),
					})
				}

				return appendRows(table, rows)
			})
		},
	}

	addListFlags(cmd)

	return cmd
}

func newImagesGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get IMAGE_ID",
		Short: "Get image details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			image, err := session.Images().Get(contextOf(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to get image: %w", err)
			}

			return render(cmd, image, func(table *tablewriter.Table) error {
				table.Header("Property", "Value")

				return appendRows(table, [][]string{
					{"ID", image.ID},
					{"Name", image.Name},
					{"Status", image.Status},
					{"Visibility", valueOrNA(image.Visibility)},
					{"Disk Format", valueOrNA(image.DiskFormat)},
					{"Container Format", valueOrNA(image.ContainerFormat)},
					{"Size", strconv.FormatInt(image.Size, 10)},
					{"Checksum", valueOrNA(image.Checksum)},
				})
			})
		},
	}
}

func newImagesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete IMAGE_ID",
		Short: "Delete an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := CreateClient(contextOf(cmd))
			if err != nil {
				return err
			}
			defer session.Close()

			err = session.Images().Delete(contextOf(cmd), args[0])
			if err != nil {
				return fmt.Errorf("failed to delete image: %w", err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Image %s deleted\n", args[0])

			return nil
		},
	}
}
