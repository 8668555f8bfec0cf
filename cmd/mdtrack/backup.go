package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mdtracker/mdtrack/pkg/tracker"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export data as a JSON document",
	Long: `Exports data as a JSON backup document on stdout. By default the whole database is
exported (projects, decks, tags, matches, soft-deleted records included). Use
--project-id for a single project and its matches, or --decks-only for the deck library.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectIDStr, _ := cmd.Flags().GetString("project-id")
		decksOnly, _ := cmd.Flags().GetBool("decks-only")

		if projectIDStr != "" && decksOnly {
			return fmt.Errorf("cannot use --project-id and --decks-only simultaneously")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		var doc any
		switch {
		case decksOnly:
			doc, err = tracker.ExportDecks(cmd.Context(), dbConn)
		case projectIDStr != "":
			projectID, parseErr := uuid.Parse(projectIDStr)
			if parseErr != nil {
				return fmt.Errorf("invalid project-id format: %w", parseErr)
			}
			doc, err = tracker.ExportProject(cmd.Context(), dbConn, projectID)
		default:
			var activeID *uuid.UUID
			if value, prefErr := tracker.GetPreference(cmd.Context(), dbConn, tracker.PrefActiveProject); prefErr == nil {
				if id, idErr := uuid.Parse(value); idErr == nil {
					activeID = &id
				}
			}
			doc, err = tracker.ExportAll(cmd.Context(), dbConn, activeID)
		}
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}

		output, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to format export document: %w", err)
		}
		fmt.Println(string(output))
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import a previously exported JSON document",
	Long: `Imports a JSON backup document. Records are matched by ID: new IDs are inserted
and existing IDs are overwritten with the imported fields. A document that fails to
parse is rejected before anything is written.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read import file: %w", err)
		}

		doc, err := tracker.ParseImport(data)
		if err != nil {
			return err
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		counts, err := tracker.ImportDocument(cmd.Context(), dbConn, doc)
		if err != nil {
			return fmt.Errorf("failed to import: %w", err)
		}

		if doc.ActiveProjectID != nil {
			// Adopt the imported active project only if it actually exists now.
			if _, err := tracker.GetProject(cmd.Context(), dbConn, *doc.ActiveProjectID); err == nil {
				if err := tracker.SetPreference(cmd.Context(), dbConn, tracker.PrefActiveProject, doc.ActiveProjectID.String()); err != nil && !errors.Is(err, tracker.ErrPreferenceNotFound) {
					return fmt.Errorf("failed to set active project from import: %w", err)
				}
			}
		}

		fmt.Printf("Import complete: %d projects, %d decks, %d tags, %d matches.\n",
			counts.Projects, counts.Decks, counts.Tags, counts.Matches)
		return nil
	},
}

func initBackupCmds() {
	exportCmd.Flags().StringP("project-id", "p", "", "Export a single project and its matches")
	exportCmd.Flags().Bool("decks-only", false, "Export only the deck library")
}
