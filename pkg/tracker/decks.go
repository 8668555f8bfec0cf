package tracker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrDeckNotFound = errors.New("deck not found")
)

const (
	createDeckStatement = `
	INSERT INTO decks (id, name, color, labels, favorite, note)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	getDeckStatement = `
	SELECT id, name, color, labels, favorite, note, created_at, updated_at
	FROM decks
	WHERE id = ?
	`

	listDecksStatement = `
	SELECT id, name, color, labels, favorite, note, created_at, updated_at
	FROM decks
	ORDER BY name ASC
	`

	updateDeckStatement = `
	UPDATE decks
	SET name = ?, color = ?, labels = ?, favorite = ?, note = ?, updated_at = unixepoch()
	WHERE id = ?
	`

	deleteDeckStatement = `
	DELETE FROM decks
	WHERE id = ?
	`
)

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func marshalLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	encoded, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("failed to encode deck labels: %w", err)
	}
	return string(encoded), nil
}

func scanDeck(row interface{ Scan(...any) error }) (Deck, error) {
	var deck Deck
	var color, note sql.NullString
	var labelsJSON string

	err := row.Scan(
		&deck.ID,
		&deck.Name,
		&color,
		&labelsJSON,
		&deck.Favorite,
		&note,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		return Deck{}, err
	}

	deck.Color = color.String
	deck.Note = note.String
	if labelsJSON != "" {
		if err := json.Unmarshal([]byte(labelsJSON), &deck.Labels); err != nil {
			return Deck{}, fmt.Errorf("failed to decode deck labels: %w", err)
		}
	}
	if len(deck.Labels) == 0 {
		deck.Labels = nil
	}
	return deck, nil
}

func CreateDeck(ctx context.Context, db *sql.DB, name, color string, labels []string, favorite bool, note string) (Deck, error) {
	deckID := uuid.New()

	labelsJSON, err := marshalLabels(labels)
	if err != nil {
		return Deck{}, err
	}

	_, err = db.ExecContext(
		ctx,
		createDeckStatement,
		deckID,
		name,
		nullableString(color),
		labelsJSON,
		favorite,
		nullableString(note),
	)
	if err != nil {
		return Deck{}, err
	}

	return GetDeck(ctx, db, deckID)
}

func GetDeck(ctx context.Context, db *sql.DB, id uuid.UUID) (Deck, error) {
	deck, err := scanDeck(db.QueryRowContext(ctx, getDeckStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Deck{}, ErrDeckNotFound
		}
		return Deck{}, err
	}
	return deck, nil
}

func ListDecks(ctx context.Context, db *sql.DB) ([]Deck, error) {
	rows, err := db.QueryContext(ctx, listDecksStatement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var decks []Deck
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, deck)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return decks, nil
}

// UpdateDeck replaces the mutable fields of a deck. Match records that
// snapshot this deck's name are untouched.
func UpdateDeck(ctx context.Context, db *sql.DB, id uuid.UUID, name, color string, labels []string, favorite bool, note string) (Deck, error) {
	labelsJSON, err := marshalLabels(labels)
	if err != nil {
		return Deck{}, err
	}

	res, err := db.ExecContext(
		ctx,
		updateDeckStatement,
		name,
		nullableString(color),
		labelsJSON,
		favorite,
		nullableString(note),
		id,
	)
	if err != nil {
		return Deck{}, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return Deck{}, err
	}

	if rowsAffected == 0 {
		return Deck{}, ErrDeckNotFound
	}

	return GetDeck(ctx, db, id)
}

// DeleteDeck hard-deletes the deck record. Historical matches keep their
// my_deck_name snapshot (and a dangling my_deck_id, which callers treat as
// informational only).
func DeleteDeck(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, deleteDeckStatement, id)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrDeckNotFound
	}

	return nil
}
