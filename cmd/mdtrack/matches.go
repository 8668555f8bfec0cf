package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mdtracker/mdtrack/pkg/tracker"
)

const maxOpponentDeckNameLength = 60

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Record and manage matches",
	Long:  `Provides commands for recording, listing, getting, updating, and soft-deleting matches.`,
}

func validateMatchInput(match tracker.Match) error {
	if match.MyDeckName == "" {
		return fmt.Errorf("your deck name cannot be empty")
	}
	if len([]rune(match.OpDeckName)) > maxOpponentDeckNameLength {
		return fmt.Errorf("opponent deck name must be at most %d characters", maxOpponentDeckNameLength)
	}
	if match.Result != tracker.ResultWin && match.Result != tracker.ResultLoss {
		return fmt.Errorf("result must be '%s' or '%s'", tracker.ResultWin, tracker.ResultLoss)
	}
	if match.TurnOrder != tracker.TurnFirst && match.TurnOrder != tracker.TurnSecond {
		return fmt.Errorf("turn order must be '%s' or '%s'", tracker.TurnFirst, tracker.TurnSecond)
	}
	if match.Rating != nil && *match.Rating < 0 {
		return fmt.Errorf("rating cannot be negative")
	}
	return nil
}

// resolveTagRefs turns tag names into references, linking each to a tag
// entity when one with that name exists. Unknown names stay as free text.
func resolveTagRefs(ctx context.Context, dbConn *sql.DB, names []string) ([]tracker.TagRef, error) {
	var refs []tracker.TagRef
	for _, name := range names {
		tag, err := tracker.GetTagByName(ctx, dbConn, name)
		if err != nil {
			if errors.Is(err, tracker.ErrTagNotFound) {
				refs = append(refs, tracker.TagRef{TagName: name})
				continue
			}
			return nil, fmt.Errorf("failed to resolve tag '%s': %w", name, err)
		}
		id := tag.ID
		refs = append(refs, tracker.TagRef{TagID: &id, TagName: tag.Name})
	}
	return refs, nil
}

var matchRecordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record a finished match",
	Long:  `Records a match in a project with its result, turn order, decks, optional rating, and tags.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectIDStr, _ := cmd.Flags().GetString("project-id")
		projectID, err := uuid.Parse(projectIDStr)
		if err != nil {
			return fmt.Errorf("invalid project-id format: %w", err)
		}

		match := tracker.Match{ProjectID: projectID}
		match.PlayedAt, _ = cmd.Flags().GetString("played-at")
		match.Result, _ = cmd.Flags().GetString("result")
		match.TurnOrder, _ = cmd.Flags().GetString("turn")
		match.MyDeckName, _ = cmd.Flags().GetString("deck")
		match.OpDeckName, _ = cmd.Flags().GetString("opponent")
		match.Note, _ = cmd.Flags().GetString("note")
		match.Initiative.Value, _ = cmd.Flags().GetString("coin")

		if match.PlayedAt == "" {
			return fmt.Errorf("played-at is required (RFC 3339, e.g. 2024-03-01T10:00:00Z)")
		}
		if cmd.Flags().Changed("rating") {
			rating, _ := cmd.Flags().GetFloat64("rating")
			match.Rating = &rating
		}
		if deckIDStr, _ := cmd.Flags().GetString("deck-id"); deckIDStr != "" {
			deckID, err := uuid.Parse(deckIDStr)
			if err != nil {
				return fmt.Errorf("invalid deck-id format: %w", err)
			}
			match.MyDeckID = &deckID
		}
		if err := validateMatchInput(match); err != nil {
			return err
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		tagsStr, _ := cmd.Flags().GetString("tags")
		refs, err := resolveTagRefs(cmd.Context(), dbConn, splitList(tagsStr))
		if err != nil {
			return err
		}
		match.Tags = refs

		created, err := tracker.CreateMatch(cmd.Context(), dbConn, match)
		if err != nil {
			return fmt.Errorf("failed to record match: %w", err)
		}

		if match.MyDeckID != nil {
			// Remembered for the next recording session; failure is not fatal.
			if err := tracker.SetPreference(cmd.Context(), dbConn, tracker.PrefLastDeck, match.MyDeckID.String()); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to remember last-used deck: %v\n", err)
			}
		}

		fmt.Println("Match recorded successfully:")
		return printJSON(created)
	},
}

var matchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List matches",
	Long:  `Lists a project's matches in chronological order, or all live matches carrying a tag. Soft-deleted matches are hidden unless --all is set.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		projectIDStr, _ := cmd.Flags().GetString("project-id")
		tag, _ := cmd.Flags().GetString("tag")
		includeDeleted, _ := cmd.Flags().GetBool("all")

		if projectIDStr == "" && tag == "" {
			return fmt.Errorf("either --project-id or --tag is required")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		var matches []tracker.Match
		if tag != "" {
			matches, err = tracker.ListMatchesByTag(cmd.Context(), dbConn, tag)
		} else {
			projectID, parseErr := uuid.Parse(projectIDStr)
			if parseErr != nil {
				return fmt.Errorf("invalid project-id format: %w", parseErr)
			}
			if includeDeleted {
				matches, err = tracker.ListAllMatchesByProject(cmd.Context(), dbConn, projectID)
			} else {
				matches, err = tracker.ListMatchesByProject(cmd.Context(), dbConn, projectID)
			}
		}
		if err != nil {
			return fmt.Errorf("failed to list matches: %w", err)
		}

		if len(matches) == 0 {
			fmt.Println("No matches found.")
			return nil
		}
		return printJSON(matches)
	},
}

var matchGetCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Get a specific match by its ID",
	Long:  `Retrieves a match, including soft-deleted ones, with its tag references and flattened tag names.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matchID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid match ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		match, err := tracker.GetMatch(cmd.Context(), dbConn, matchID)
		if err != nil {
			if errors.Is(err, tracker.ErrMatchNotFound) {
				fmt.Printf("Match with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to get match: %w", err)
		}
		return printJSON(match)
	},
}

var matchUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update an existing match",
	Long:  `Updates an existing match with the given ID. Only provided fields will be changed. Tags, when provided, replace the current set.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matchID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid match ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		match, err := tracker.GetMatch(cmd.Context(), dbConn, matchID)
		if err != nil {
			if errors.Is(err, tracker.ErrMatchNotFound) {
				fmt.Printf("Match with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to get match: %w", err)
		}

		if cmd.Flags().Changed("played-at") {
			match.PlayedAt, _ = cmd.Flags().GetString("played-at")
		}
		if cmd.Flags().Changed("result") {
			match.Result, _ = cmd.Flags().GetString("result")
		}
		if cmd.Flags().Changed("turn") {
			match.TurnOrder, _ = cmd.Flags().GetString("turn")
		}
		if cmd.Flags().Changed("deck") {
			match.MyDeckName, _ = cmd.Flags().GetString("deck")
		}
		if cmd.Flags().Changed("opponent") {
			match.OpDeckName, _ = cmd.Flags().GetString("opponent")
		}
		if cmd.Flags().Changed("note") {
			match.Note, _ = cmd.Flags().GetString("note")
		}
		if cmd.Flags().Changed("rating") {
			rating, _ := cmd.Flags().GetFloat64("rating")
			match.Rating = &rating
		}
		if cmd.Flags().Changed("tags") {
			tagsStr, _ := cmd.Flags().GetString("tags")
			refs, err := resolveTagRefs(cmd.Context(), dbConn, splitList(tagsStr))
			if err != nil {
				return err
			}
			match.Tags = refs
		}
		if err := validateMatchInput(match); err != nil {
			return err
		}

		updated, err := tracker.UpdateMatch(cmd.Context(), dbConn, match)
		if err != nil {
			return fmt.Errorf("failed to update match: %w", err)
		}

		fmt.Println("Match updated successfully:")
		return printJSON(updated)
	},
}

var matchDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Soft-delete a match by its ID",
	Long:  `Soft-deletes a match. It disappears from listings and statistics but stays in the database and can be restored.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matchID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid match ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := tracker.SetMatchDeleted(cmd.Context(), dbConn, matchID, true); err != nil {
			if errors.Is(err, tracker.ErrMatchNotFound) {
				fmt.Printf("Match with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to delete match: %w", err)
		}

		fmt.Printf("Match with ID %s deleted. Use 'matches restore' to bring it back.\n", args[0])
		return nil
	},
}

var matchRestoreCmd = &cobra.Command{
	Use:   "restore [id]",
	Short: "Restore a soft-deleted match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		matchID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid match ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := tracker.SetMatchDeleted(cmd.Context(), dbConn, matchID, false); err != nil {
			if errors.Is(err, tracker.ErrMatchNotFound) {
				fmt.Printf("Match with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to restore match: %w", err)
		}

		fmt.Printf("Match with ID %s restored.\n", args[0])
		return nil
	},
}

func initMatchCmds() {
	matchRecordCmd.Flags().StringP("project-id", "p", "", "ID of the project the match belongs to (required)")
	matchRecordCmd.MarkFlagRequired("project-id")
	matchRecordCmd.Flags().String("played-at", "", "When the match was played (RFC 3339, required)")
	matchRecordCmd.MarkFlagRequired("played-at")
	matchRecordCmd.Flags().StringP("result", "r", "", "Match result: win or loss (required)")
	matchRecordCmd.MarkFlagRequired("result")
	matchRecordCmd.Flags().String("turn", "", "Turn order: first or second (required)")
	matchRecordCmd.MarkFlagRequired("turn")
	matchRecordCmd.Flags().StringP("deck", "d", "", "Name of the deck you played (required)")
	matchRecordCmd.MarkFlagRequired("deck")
	matchRecordCmd.Flags().StringP("opponent", "o", "", "Name of the opponent's deck (60 characters max)")
	matchRecordCmd.Flags().String("deck-id", "", "ID of your deck in the library")
	matchRecordCmd.Flags().String("coin", "", "Initiative coin outcome: heads or tails")
	matchRecordCmd.Flags().Float64("rating", 0, "Rating after the match")
	matchRecordCmd.Flags().StringP("tags", "t", "", "Comma-separated list of tag names")
	matchRecordCmd.Flags().String("note", "", "Free-form note")

	matchListCmd.Flags().StringP("project-id", "p", "", "ID of the project to list matches for")
	matchListCmd.Flags().StringP("tag", "t", "", "List all live matches carrying this tag instead")
	matchListCmd.Flags().Bool("all", false, "Include soft-deleted matches (project listing only)")

	matchUpdateCmd.Flags().String("played-at", "", "New play time (RFC 3339)")
	matchUpdateCmd.Flags().StringP("result", "r", "", "New result: win or loss")
	matchUpdateCmd.Flags().String("turn", "", "New turn order: first or second")
	matchUpdateCmd.Flags().StringP("deck", "d", "", "New deck name")
	matchUpdateCmd.Flags().StringP("opponent", "o", "", "New opponent deck name (60 characters max)")
	matchUpdateCmd.Flags().Float64("rating", 0, "New rating")
	matchUpdateCmd.Flags().StringP("tags", "t", "", "New comma-separated tag names (replaces existing)")
	matchUpdateCmd.Flags().String("note", "", "New note")

	matchesCmd.AddCommand(matchRecordCmd, matchListCmd, matchGetCmd, matchUpdateCmd, matchDeleteCmd, matchRestoreCmd)
}
