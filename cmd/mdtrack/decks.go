package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mdtracker/mdtrack/pkg/tracker"
)

var decksCmd = &cobra.Command{
	Use:   "decks",
	Short: "Manage the deck library",
	Long:  `Provides commands for creating, listing, updating, and deleting your decks. Recorded matches keep the deck name they were written with.`,
}

var deckCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new deck",
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		color, _ := cmd.Flags().GetString("color")
		labelsStr, _ := cmd.Flags().GetString("labels")
		favorite, _ := cmd.Flags().GetBool("favorite")
		note, _ := cmd.Flags().GetString("note")

		if name == "" {
			return fmt.Errorf("deck name cannot be empty")
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		deck, err := tracker.CreateDeck(cmd.Context(), dbConn, name, color, splitList(labelsStr), favorite, note)
		if err != nil {
			return fmt.Errorf("failed to create deck: %w", err)
		}

		fmt.Println("Deck created successfully:")
		return printJSON(deck)
	},
}

var deckListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all decks",
	RunE: func(cmd *cobra.Command, args []string) error {
		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		decks, err := tracker.ListDecks(cmd.Context(), dbConn)
		if err != nil {
			return fmt.Errorf("failed to list decks: %w", err)
		}

		if len(decks) == 0 {
			fmt.Println("No decks found.")
			return nil
		}
		return printJSON(decks)
	},
}

var deckUpdateCmd = &cobra.Command{
	Use:   "update [id]",
	Short: "Update an existing deck",
	Long:  `Updates an existing deck with the given ID. Only provided fields will be changed. Matches recorded with this deck keep its old name.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deckID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid deck ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		current, err := tracker.GetDeck(cmd.Context(), dbConn, deckID)
		if err != nil {
			if errors.Is(err, tracker.ErrDeckNotFound) {
				fmt.Printf("Deck with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to get deck: %w", err)
		}

		name := current.Name
		if cmd.Flags().Changed("name") {
			name, _ = cmd.Flags().GetString("name")
		}
		color := current.Color
		if cmd.Flags().Changed("color") {
			color, _ = cmd.Flags().GetString("color")
		}
		labels := current.Labels
		if cmd.Flags().Changed("labels") {
			labelsStr, _ := cmd.Flags().GetString("labels")
			labels = splitList(labelsStr)
		}
		favorite := current.Favorite
		if cmd.Flags().Changed("favorite") {
			favorite, _ = cmd.Flags().GetBool("favorite")
		}
		note := current.Note
		if cmd.Flags().Changed("note") {
			note, _ = cmd.Flags().GetString("note")
		}

		deck, err := tracker.UpdateDeck(cmd.Context(), dbConn, deckID, name, color, labels, favorite, note)
		if err != nil {
			return fmt.Errorf("failed to update deck: %w", err)
		}

		fmt.Println("Deck updated successfully:")
		return printJSON(deck)
	},
}

var deckDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a deck by its ID",
	Long:  `Deletes a deck from the library. Matches recorded with it keep their deck name snapshots.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		deckID, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid deck ID format: %w", err)
		}

		dbConn, err := openDB()
		if err != nil {
			return err
		}
		defer dbConn.Close()

		if err := tracker.DeleteDeck(cmd.Context(), dbConn, deckID); err != nil {
			if errors.Is(err, tracker.ErrDeckNotFound) {
				fmt.Printf("Deck with ID %s not found.\n", args[0])
				return nil
			}
			return fmt.Errorf("failed to delete deck: %w", err)
		}

		fmt.Printf("Deck with ID %s deleted successfully.\n", args[0])
		return nil
	},
}

func initDeckCmds() {
	deckCreateCmd.Flags().StringP("name", "n", "", "Name of the deck (required)")
	deckCreateCmd.MarkFlagRequired("name")
	deckCreateCmd.Flags().String("color", "", "Display color for the deck (e.g. #ff0000)")
	deckCreateCmd.Flags().String("labels", "", "Comma-separated list of labels")
	deckCreateCmd.Flags().Bool("favorite", false, "Mark the deck as a favorite")
	deckCreateCmd.Flags().String("note", "", "Free-form note")

	deckUpdateCmd.Flags().StringP("name", "n", "", "New name for the deck")
	deckUpdateCmd.Flags().String("color", "", "New display color")
	deckUpdateCmd.Flags().String("labels", "", "New comma-separated labels (replaces existing)")
	deckUpdateCmd.Flags().Bool("favorite", false, "New favorite status")
	deckUpdateCmd.Flags().String("note", "", "New note")

	decksCmd.AddCommand(deckCreateCmd, deckListCmd, deckUpdateCmd, deckDeleteCmd)
}
