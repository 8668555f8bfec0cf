package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mdtracker/mdtrack/pkg/tracker"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Manage tracking projects",
	Long:  `Provides commands for creating, listing, getting, updating, and deleting projects (seasons, events, ladders).`,
}

func periodFromFlags(cmd *cobra.Command) *tracker.Period {
	start, _ := cmd.Flags().GetString("period-start")
	end, _ := cmd.Flags().GetString("period-end")
	if start == "" && end == "" {
		return nil
	}
	return &tracker.Period{Start: start, End: end}
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new project",
	Long:  `Creates a new project with the given name and optional description and period.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		description, _ := cmd.Flags().GetString("description")

		if name == "" {
			return fmt.Errorf("project name cannot be empty")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		project, err := tracker.CreateProject(cmd.Context(), dbConn, name, description, periodFromFlags(cmd))
		if err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		fmt.Println("Project created successfully:")
		return printJSON(project)
	},
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Long:  `Lists projects ordered by most recent activity. Archived projects are hidden unless --all is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		includeArchived, _ := cmd.Flags().GetBool("all")

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		projects, err := tracker.ListProjects(cmd.Context(), dbConn, includeArchived)
		if err != nil {
			return fmt.Errorf("failed to list projects: %w", err)
		}

		if len(projects) == 0 {
			fmt.Println("No projects found.")
			return nil
		}
		return printJSON(projects)
	},
}

var projectGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get a specific project by its ID",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		project, err := tracker.GetProject(cmd.Context(), dbConn, projectID)
		if err != nil {
			if errors.Is(err, tracker.ErrProjectNotFound) {
				fmt.Printf("Project with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to get project: %w", err)
		}
		return printJSON(project)
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update an existing project",
	Long:  `Updates an existing project with the given ID. Only provided fields will be changed.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project ID format: %w", err)
		}

		archiveFlagSet := cmd.Flags().Changed("archive")
		unarchiveFlagSet := cmd.Flags().Changed("unarchive")
		if archiveFlagSet && unarchiveFlagSet {
			return fmt.Errorf("cannot use --archive and --unarchive flags simultaneously")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		current, err := tracker.GetProject(cmd.Context(), dbConn, projectID)
		if err != nil {
			if errors.Is(err, tracker.ErrProjectNotFound) {
				fmt.Printf("Project with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to get project: %w", err)
		}

		name := current.Name
		if cmd.Flags().Changed("name") {
			name, _ = cmd.Flags().GetString("name")
		}
		description := current.Description
		if cmd.Flags().Changed("description") {
			description, _ = cmd.Flags().GetString("description")
		}
		period := current.Period
		if p := periodFromFlags(cmd); p != nil {
			period = p
		}
		archived := current.Archived
		if archiveFlagSet {
			archived = true
		} else if unarchiveFlagSet {
			archived = false
		}

		project, err := tracker.UpdateProject(cmd.Context(), dbConn, projectID, name, description, period, archived)
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}

		fmt.Println("Project updated successfully:")
		return printJSON(project)
	},
}

var projectDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a project by its ID",
	Long:  `Deletes a project. Its matches are not removed and remain reachable by ID.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := tracker.DeleteProject(cmd.Context(), dbConn, projectID); err != nil {
			if errors.Is(err, tracker.ErrProjectNotFound) {
				fmt.Printf("Project with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to delete project: %w", err)
		}

		fmt.Printf("Project with ID %s deleted successfully. Its matches were kept.\n", args[0])
		return nil
	},
}

var projectActivateCmd = &cobra.Command{
	Use:   "activate [id]",
	Short: "Mark a project as the active one",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid project ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if _, err := tracker.GetProject(cmd.Context(), dbConn, projectID); err != nil {
			if errors.Is(err, tracker.ErrProjectNotFound) {
				fmt.Printf("Project with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to get project: %w", err)
		}

		if err := tracker.SetPreference(cmd.Context(), dbConn, tracker.PrefActiveProject, projectID.String()); err != nil {
			return fmt.Errorf("failed to set active project: %w", err)
		}
		fmt.Printf("Project %s is now active.\n", args[0])
		return nil
	},
}

func initProjectCmds() {
	projectCreateCmd.Flags().StringP("name", "n", "", "Name of the project (required)")
	projectCreateCmd.MarkFlagRequired("name")
	projectCreateCmd.Flags().StringP("description", "d", "", "Description of the project")
	projectCreateCmd.Flags().String("period-start", "", "Start of the project period (YYYY-MM-DD)")
	projectCreateCmd.Flags().String("period-end", "", "End of the project period (YYYY-MM-DD)")

	projectListCmd.Flags().Bool("all", false, "Include archived projects")

	projectUpdateCmd.Flags().StringP("name", "n", "", "New name for the project")
	projectUpdateCmd.Flags().StringP("description", "d", "", "New description for the project")
	projectUpdateCmd.Flags().String("period-start", "", "New start of the project period")
	projectUpdateCmd.Flags().String("period-end", "", "New end of the project period")
	projectUpdateCmd.Flags().Bool("archive", false, "Archive the project")
	projectUpdateCmd.Flags().Bool("unarchive", false, "Unarchive the project")

	projectsCmd.AddCommand(projectCreateCmd, projectListCmd, projectGetCmd, projectUpdateCmd, projectDeleteCmd, projectActivateCmd)
}
