package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"photoscan/internal/client"
)

func newEntitiesCommand(ctx *commandContext) *cobra.Command {
	entitiesCmd := &cobra.Command{
		Use:   "entities",
		Short: "Manage recognized people and pets",
	}

	entitiesCmd.AddCommand(newEntitiesListCommand(ctx))
	entitiesCmd.AddCommand(newEntitiesRenameCommand(ctx))
	entitiesCmd.AddCommand(newEntitiesRemoveCommand(ctx))

	return entitiesCmd
}

func newEntitiesListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every entity with its photo count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(cl *client.Client) error {
				resp, err := cl.Entities(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Entities) == 0 {
					fmt.Fprintln(out, "No entities recognized yet.")
					return nil
				}
				rows := make([][]string, 0, len(resp.Entities))
				for _, entity := range resp.Entities {
					rows = append(rows, []string{
						strconv.FormatInt(entity.ID, 10),
						entity.Type,
						entity.Name,
						strconv.Itoa(entity.PhotoCount),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Type", "Name", "Photos"},
					rows,
					rightAligned{0, 3},
				))
				return nil
			})
		},
	}
}

func newEntitiesRenameCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Assign a real name to an entity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid entity id %q", args[0])
			}
			name := strings.TrimSpace(args[1])
			if name == "" {
				return errors.New("entity name is required")
			}
			return ctx.withClient(func(cl *client.Client) error {
				if err := cl.RenameEntity(cmd.Context(), id, name); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Entity %d renamed to %q\n", id, name)
				return nil
			})
		},
	}
}

func newEntitiesRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <name>",
		Short: "Delete every entity with the given name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("entity name is required")
			}
			return ctx.withClient(func(cl *client.Client) error {
				resp, err := cl.DeleteEntities(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entit%s named %q\n",
					resp.Deleted, pluralEntitySuffix(resp.Deleted), name)
				return nil
			})
		},
	}
}

func pluralEntitySuffix(n int64) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

func newPhotoCommand(ctx *commandContext) *cobra.Command {
	photoCmd := &cobra.Command{
		Use:   "photo",
		Short: "Inspect a photo on record",
	}

	photoCmd.AddCommand(&cobra.Command{
		Use:   "entities <photo-id>",
		Short: "List the entities recognized in a photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid photo id %q", args[0])
			}
			return ctx.withClient(func(cl *client.Client) error {
				resp, err := cl.PhotoEntities(cmd.Context(), id)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(resp.Entities) == 0 {
					fmt.Fprintf(out, "Photo %d has no recognized entities.\n", id)
					return nil
				}
				rows := make([][]string, 0, len(resp.Entities))
				for _, entity := range resp.Entities {
					box := ""
					if len(entity.BoundingBox) > 0 {
						box = string(entity.BoundingBox)
					}
					rows = append(rows, []string{
						strconv.FormatInt(entity.EntityID, 10),
						entity.Type,
						entity.Name,
						box,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"ID", "Type", "Name", "Bounding Box"},
					rows,
					rightAligned{0},
				))
				return nil
			})
		},
	})

	return photoCmd
}
