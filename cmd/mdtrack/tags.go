package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mdtracker/mdtrack/pkg/tracker"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage match tags",
	Long:  `Provides commands for creating, listing, renaming, and deleting tags. Matches keep the tag names they were recorded with.`,
}

var tagCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new tag",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		color, _ := cmd.Flags().GetString("color")
		description, _ := cmd.Flags().GetString("description")

		if name == "" {
			return fmt.Errorf("tag name cannot be empty")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		// Duplicate names are allowed by the store; just warn.
		if _, err := tracker.GetTagByName(cmd.Context(), dbConn, name); err == nil {
			fmt.Printf("Warning: a tag named '%s' already exists.\n", name)
		}

		tag, err := tracker.CreateTag(cmd.Context(), dbConn, name, color, description)
		if err != nil {
			return fmt.Errorf("failed to create tag: %w", err)
		}

		fmt.Println("Tag created successfully:")
		return printJSON(tag)
	},
}

var tagListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all tags",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		tags, err := tracker.ListTags(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to list tags: %w", err)
		}

		if len(tags) == 0 {
			fmt.Println("No tags found.")
			return nil
		}
		return printJSON(tags)
	},
}

var tagRenameCmd = &cobra.Command{
	Use:   "rename [name] [new-name]",
	Short: "Rename a tag",
	Long:  `Renames a tag. Matches recorded under the old name keep it as a snapshot; only new matches pick up the new name.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[1] == "" {
			return fmt.Errorf("new tag name cannot be empty")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		tag, err := tracker.GetTagByName(cmd.Context(), dbConn, args[0])
		if err != nil {
			if errors.Is(err, tracker.ErrTagNotFound) {
				fmt.Printf("Tag '%s' not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to find tag: %w", err)
		}

		renamed, err := tracker.RenameTag(cmd.Context(), dbConn, tag.ID, args[1])
		if err != nil {
			return fmt.Errorf("failed to rename tag: %w", err)
		}

		fmt.Println("Tag renamed successfully:")
		return printJSON(renamed)
	},
}

var tagDeleteCmd = &cobra.Command{
	Use:   "delete [name]",
	Short: "Delete a tag by its name",
	Long:  `Deletes a tag. References on matches lose their link to the tag entity but keep the recorded name.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		tag, err := tracker.GetTagByName(cmd.Context(), dbConn, args[0])
		if err != nil {
			if errors.Is(err, tracker.ErrTagNotFound) {
				fmt.Printf("Tag '%s' not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to find tag: %w", err)
		}

		if err := tracker.DeleteTag(cmd.Context(), dbConn, tag.ID); err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}

		fmt.Printf("Tag '%s' deleted successfully. Matches kept the recorded tag name.\n", args[0])
		return nil
	},
}

func initTagCmds() {
	tagCreateCmd.Flags().StringP("name", "n", "", "Name of the tag (required)")
	tagCreateCmd.MarkFlagRequired("name")
	tagCreateCmd.Flags().String("color", "", "Display color for the tag")
	tagCreateCmd.Flags().StringP("description", "d", "", "Description of the tag")

	tagsCmd.AddCommand(tagCreateCmd, tagListCmd, tagRenameCmd, tagDeleteCmd)
}
