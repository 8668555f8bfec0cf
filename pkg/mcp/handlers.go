package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mdtracker/mdtrack/pkg/stats"
	"github.com/mdtracker/mdtrack/pkg/tracker"
)

const maxOpponentDeckNameLength = 60

// RegisterPingTool registers the simple ping tool.
func RegisterPingTool(s *server.MCPServer) {
	pingTool := mcp.NewTool("ping",
		mcp.WithDescription("Responds with 'pong' to check if the match tracker MCP server is alive."),
	)
	s.AddTool(pingTool, pingHandler)
}

func pingHandler(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText("pong_mdtrack"), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to serialize result to JSON: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func parseID(request mcp.CallToolRequest, param string) (uuid.UUID, *mcp.CallToolResult) {
	raw, ok := request.Params.Arguments[param].(string)
	if !ok || raw == "" {
		return uuid.Nil, mcp.NewToolResultError(fmt.Sprintf("'%s' parameter is required and must be a non-empty string.", param))
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, mcp.NewToolResultError(fmt.Sprintf("'%s' is not a valid id: %v", param, err))
	}
	return id, nil
}

// Helper function to parse comma-separated tag strings
func parseTags(tagsStr string) []string {
	var tagsList []string
	for _, tag := range strings.Split(tagsStr, ",") {
		t := strings.TrimSpace(tag)
		if t != "" {
			tagsList = append(tagsList, t)
		}
	}
	return tagsList
}

// resolveTagRefs turns tag names into references, linking to a tag entity
// when one with that name exists and keeping free text otherwise.
func resolveTagRefs(ctx context.Context, db *sql.DB, names []string) ([]tracker.TagRef, error) {
	var refs []tracker.TagRef
	for _, name := range names {
		tag, err := tracker.GetTagByName(ctx, db, name)
		if err != nil {
			if errors.Is(err, tracker.ErrTagNotFound) {
				refs = append(refs, tracker.TagRef{TagName: name})
				continue
			}
			return nil, err
		}
		id := tag.ID
		refs = append(refs, tracker.TagRef{TagID: &id, TagName: tag.Name})
	}
	return refs, nil
}

func periodFromArgs(request mcp.CallToolRequest) *tracker.Period {
	start, _ := request.Params.Arguments["period_start"].(string)
	end, _ := request.Params.Arguments["period_end"].(string)
	if start == "" && end == "" {
		return nil
	}
	return &tracker.Period{Start: start, End: end}
}

// RegisterProjectTools registers the project CRUD and active-project tools.
func RegisterProjectTools(s *server.MCPServer, db *sql.DB) {
	createProject := mcp.NewTool("create_project",
		mcp.WithDescription("Creates a new tracking project (e.g. a season or event)."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name for the new project.")),
		mcp.WithString("description", mcp.Description("Optional description for the project.")),
		mcp.WithString("period_start", mcp.Description("Optional period start date (YYYY-MM-DD).")),
		mcp.WithString("period_end", mcp.Description("Optional period end date (YYYY-MM-DD).")),
	)
	s.AddTool(createProject, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, nameOk := request.Params.Arguments["name"].(string)
		if !nameOk || name == "" {
			return mcp.NewToolResultError("'name' parameter is required and must be a non-empty string."), nil
		}
		description, _ := request.Params.Arguments["description"].(string)

		project, err := tracker.CreateProject(ctx, db, name, description, periodFromArgs(request))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create project: %v", err)), nil
		}
		return jsonResult(project)
	})

	listProjects := mcp.NewTool("list_projects",
		mcp.WithDescription("Lists projects, newest activity first. Archived projects are hidden unless requested."),
		mcp.WithBoolean("include_archived", mcp.Description("Include archived projects in the listing.")),
	)
	s.AddTool(listProjects, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		includeArchived, _ := request.Params.Arguments["include_archived"].(bool)
		projects, err := tracker.ListProjects(ctx, db, includeArchived)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list projects: %v", err)), nil
		}
		if len(projects) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(projects)
	})

	getProject := mcp.NewTool("get_project",
		mcp.WithDescription("Retrieves a project by its id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the project to retrieve.")),
	)
	s.AddTool(getProject, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		project, err := tracker.GetProject(ctx, db, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error retrieving project '%s': %v", id, err)), nil
		}
		return jsonResult(project)
	})

	updateProject := mcp.NewTool("update_project",
		mcp.WithDescription("Updates a project's name, description, period, or archived status."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the project to update.")),
		mcp.WithString("name", mcp.Description("Optional new name.")),
		mcp.WithString("description", mcp.Description("Optional new description.")),
		mcp.WithString("period_start", mcp.Description("Optional new period start date.")),
		mcp.WithString("period_end", mcp.Description("Optional new period end date.")),
		mcp.WithBoolean("archived", mcp.Description("Optional new archived status.")),
	)
	s.AddTool(updateProject, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		current, err := tracker.GetProject(ctx, db, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error finding project '%s' to update: %v", id, err)), nil
		}

		name := current.Name
		if n, ok := request.Params.Arguments["name"].(string); ok && n != "" {
			name = n
		}
		description := current.Description
		if d, ok := request.Params.Arguments["description"].(string); ok {
			description = d
		}
		period := current.Period
		if p := periodFromArgs(request); p != nil {
			period = p
		}
		archived := current.Archived
		if a, ok := request.Params.Arguments["archived"].(bool); ok {
			archived = a
		}

		project, err := tracker.UpdateProject(ctx, db, id, name, description, period, archived)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update project '%s': %v", id, err)), nil
		}
		return jsonResult(project)
	})

	deleteProject := mcp.NewTool("delete_project",
		mcp.WithDescription("Deletes a project. Its matches are kept and stay reachable by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the project to delete.")),
	)
	s.AddTool(deleteProject, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		if err := tracker.DeleteProject(ctx, db, id); err != nil {
			if errors.Is(err, tracker.ErrProjectNotFound) {
				return mcp.NewToolResultText(fmt.Sprintf("Project '%s' not found, nothing to delete.", id)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete project '%s': %v", id, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Project '%s' deleted successfully.", id)), nil
	})

	setActiveProject := mcp.NewTool("set_active_project",
		mcp.WithDescription("Marks a project as the active one for subsequent sessions."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the project to activate.")),
	)
	s.AddTool(setActiveProject, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		if _, err := tracker.GetProject(ctx, db, id); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error finding project '%s' to activate: %v", id, err)), nil
		}
		if err := tracker.SetPreference(ctx, db, tracker.PrefActiveProject, id.String()); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to set active project: %v", err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Project '%s' is now active.", id)), nil
	})

	getActiveProject := mcp.NewTool("get_active_project",
		mcp.WithDescription("Returns the currently active project, if one is set."),
	)
	s.AddTool(getActiveProject, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		value, err := tracker.GetPreference(ctx, db, tracker.PrefActiveProject)
		if err != nil {
			if errors.Is(err, tracker.ErrPreferenceNotFound) {
				return mcp.NewToolResultText("No active project is set."), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Failed to read active project: %v", err)), nil
		}
		id, err := uuid.Parse(value)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Stored active project id is invalid: %v", err)), nil
		}
		project, err := tracker.GetProject(ctx, db, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error retrieving active project '%s': %v", id, err)), nil
		}
		return jsonResult(project)
	})
}

// RegisterDeckTools registers the deck CRUD tools.
func RegisterDeckTools(s *server.MCPServer, db *sql.DB) {
	createDeck := mcp.NewTool("create_deck",
		mcp.WithDescription("Creates a new deck in the shared deck library."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name for the new deck.")),
		mcp.WithString("color", mcp.Description("Optional display color (e.g. #ff0000).")),
		mcp.WithString("labels", mcp.Description("Optional comma-separated list of labels.")),
		mcp.WithBoolean("favorite", mcp.Description("Mark the deck as a favorite.")),
		mcp.WithString("note", mcp.Description("Optional free-form note.")),
	)
	s.AddTool(createDeck, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, nameOk := request.Params.Arguments["name"].(string)
		if !nameOk || name == "" {
			return mcp.NewToolResultError("'name' parameter is required and must be a non-empty string."), nil
		}
		color, _ := request.Params.Arguments["color"].(string)
		labelsStr, _ := request.Params.Arguments["labels"].(string)
		favorite, _ := request.Params.Arguments["favorite"].(bool)
		note, _ := request.Params.Arguments["note"].(string)

		deck, err := tracker.CreateDeck(ctx, db, name, color, parseTags(labelsStr), favorite, note)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create deck: %v", err)), nil
		}
		return jsonResult(deck)
	})

	listDecks := mcp.NewTool("list_decks",
		mcp.WithDescription("Lists all decks in the library, sorted by name."),
	)
	s.AddTool(listDecks, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decks, err := tracker.ListDecks(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list decks: %v", err)), nil
		}
		if len(decks) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(decks)
	})

	updateDeck := mcp.NewTool("update_deck",
		mcp.WithDescription("Updates a deck's name, color, labels, favorite flag, or note. Matches keep the deck name they were recorded with."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the deck to update.")),
		mcp.WithString("name", mcp.Description("Optional new name.")),
		mcp.WithString("color", mcp.Description("Optional new color.")),
		mcp.WithString("labels", mcp.Description("Optional new comma-separated labels (replaces existing).")),
		mcp.WithBoolean("favorite", mcp.Description("Optional new favorite status.")),
		mcp.WithString("note", mcp.Description("Optional new note.")),
	)
	s.AddTool(updateDeck, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		current, err := tracker.GetDeck(ctx, db, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error finding deck '%s' to update: %v", id, err)), nil
		}

		name := current.Name
		if n, ok := request.Params.Arguments["name"].(string); ok && n != "" {
			name = n
		}
		color := current.Color
		if c, ok := request.Params.Arguments["color"].(string); ok {
			color = c
		}
		labels := current.Labels
		if l, ok := request.Params.Arguments["labels"].(string); ok {
			labels = parseTags(l)
		}
		favorite := current.Favorite
		if f, ok := request.Params.Arguments["favorite"].(bool); ok {
			favorite = f
		}
		note := current.Note
		if n, ok := request.Params.Arguments["note"].(string); ok {
			note = n
		}

		deck, err := tracker.UpdateDeck(ctx, db, id, name, color, labels, favorite, note)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update deck '%s': %v", id, err)), nil
		}
		return jsonResult(deck)
	})

	deleteDeck := mcp.NewTool("delete_deck",
		mcp.WithDescription("Deletes a deck from the library. Recorded matches keep their deck name snapshots."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the deck to delete.")),
	)
	s.AddTool(deleteDeck, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		if err := tracker.DeleteDeck(ctx, db, id); err != nil {
			if errors.Is(err, tracker.ErrDeckNotFound) {
				return mcp.NewToolResultText(fmt.Sprintf("Deck '%s' not found, nothing to delete.", id)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete deck '%s': %v", id, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Deck '%s' deleted successfully.", id)), nil
	})
}

// RegisterTagTools registers the tag management tools.
func RegisterTagTools(s *server.MCPServer, db *sql.DB) {
	createTag := mcp.NewTool("create_tag",
		mcp.WithDescription("Creates a new match tag."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name for the new tag.")),
		mcp.WithString("color", mcp.Description("Optional display color.")),
		mcp.WithString("description", mcp.Description("Optional description.")),
	)
	s.AddTool(createTag, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, nameOk := request.Params.Arguments["name"].(string)
		if !nameOk || name == "" {
			return mcp.NewToolResultError("'name' parameter is required and must be a non-empty string."), nil
		}
		color, _ := request.Params.Arguments["color"].(string)
		description, _ := request.Params.Arguments["description"].(string)

		tag, err := tracker.CreateTag(ctx, db, name, color, description)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to create tag: %v", err)), nil
		}
		return jsonResult(tag)
	})

	listTags := mcp.NewTool("list_tags",
		mcp.WithDescription("Lists all tags, sorted by name."),
	)
	s.AddTool(listTags, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tags, err := tracker.ListTags(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list tags: %v", err)), nil
		}
		if len(tags) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(tags)
	})

	renameTag := mcp.NewTool("rename_tag",
		mcp.WithDescription("Renames a tag. Matches recorded under the old name keep it as a snapshot."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Current name of the tag.")),
		mcp.WithString("new_name", mcp.Required(), mcp.Description("New name for the tag.")),
	)
	s.AddTool(renameTag, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, nameOk := request.Params.Arguments["name"].(string)
		newName, newOk := request.Params.Arguments["new_name"].(string)
		if !nameOk || name == "" {
			return mcp.NewToolResultError("'name' parameter is required."), nil
		}
		if !newOk || newName == "" {
			return mcp.NewToolResultError("'new_name' parameter is required and must be non-empty."), nil
		}

		tag, err := tracker.GetTagByName(ctx, db, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error finding tag '%s' to rename: %v", name, err)), nil
		}
		renamed, err := tracker.RenameTag(ctx, db, tag.ID, newName)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to rename tag '%s': %v", name, err)), nil
		}
		return jsonResult(renamed)
	})

	deleteTag := mcp.NewTool("delete_tag",
		mcp.WithDescription("Deletes a tag. Matches keep the tag name they were recorded with."),
		mcp.WithString("name", mcp.Required(), mcp.Description("Name of the tag to delete.")),
	)
	s.AddTool(deleteTag, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, nameOk := request.Params.Arguments["name"].(string)
		if !nameOk || name == "" {
			return mcp.NewToolResultError("'name' parameter is required."), nil
		}

		tag, err := tracker.GetTagByName(ctx, db, name)
		if err != nil {
			if errors.Is(err, tracker.ErrTagNotFound) {
				return mcp.NewToolResultText(fmt.Sprintf("Tag '%s' not found, nothing to delete.", name)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Error finding tag '%s' to delete: %v", name, err)), nil
		}
		if err := tracker.DeleteTag(ctx, db, tag.ID); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete tag '%s': %v", name, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Tag '%s' deleted successfully.", name)), nil
	})
}

func validateMatchInput(match tracker.Match) string {
	if match.MyDeckName == "" {
		return "'my_deck_name' must be a non-empty string."
	}
	if len([]rune(match.OpDeckName)) > maxOpponentDeckNameLength {
		return fmt.Sprintf("'op_deck_name' must be at most %d characters.", maxOpponentDeckNameLength)
	}
	if match.Result != tracker.ResultWin && match.Result != tracker.ResultLoss {
		return "'result' must be 'win' or 'loss'."
	}
	if match.TurnOrder != tracker.TurnFirst && match.TurnOrder != tracker.TurnSecond {
		return "'turn_order' must be 'first' or 'second'."
	}
	if match.Rating != nil && *match.Rating < 0 {
		return "'rating' must not be negative."
	}
	return ""
}

// RegisterMatchTools registers the match recording and listing tools.
func RegisterMatchTools(s *server.MCPServer, db *sql.DB) {
	recordMatch := mcp.NewTool("record_match",
		mcp.WithDescription("Records a finished match in a project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Id of the project the match belongs to.")),
		mcp.WithString("played_at", mcp.Required(), mcp.Description("When the match was played (RFC 3339, e.g. 2024-03-01T10:00:00Z).")),
		mcp.WithString("result", mcp.Required(), mcp.Description("Match result: 'win' or 'loss'.")),
		mcp.WithString("turn_order", mcp.Required(), mcp.Description("Whether you went 'first' or 'second'.")),
		mcp.WithString("my_deck_name", mcp.Required(), mcp.Description("Name of the deck you played.")),
		mcp.WithString("op_deck_name", mcp.Required(), mcp.Description("Name of the opponent's deck (60 characters max).")),
		mcp.WithString("my_deck_id", mcp.Description("Optional id of your deck in the library.")),
		mcp.WithString("coin_method", mcp.Description("How initiative was decided (defaults to 'coin').")),
		mcp.WithString("coin_value", mcp.Description("Initiative outcome, e.g. 'heads' or 'tails'.")),
		mcp.WithNumber("rating", mcp.Description("Optional rating after the match.")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated list of tag names.")),
		mcp.WithString("note", mcp.Description("Optional free-form note.")),
	)
	s.AddTool(recordMatch, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, errResult := parseID(request, "project_id")
		if errResult != nil {
			return errResult, nil
		}

		match := tracker.Match{ProjectID: projectID}
		match.PlayedAt, _ = request.Params.Arguments["played_at"].(string)
		match.Result, _ = request.Params.Arguments["result"].(string)
		match.TurnOrder, _ = request.Params.Arguments["turn_order"].(string)
		match.MyDeckName, _ = request.Params.Arguments["my_deck_name"].(string)
		match.OpDeckName, _ = request.Params.Arguments["op_deck_name"].(string)
		match.Note, _ = request.Params.Arguments["note"].(string)
		match.Initiative.Method, _ = request.Params.Arguments["coin_method"].(string)
		match.Initiative.Value, _ = request.Params.Arguments["coin_value"].(string)

		if raw, ok := request.Params.Arguments["my_deck_id"].(string); ok && raw != "" {
			deckID, err := uuid.Parse(raw)
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("'my_deck_id' is not a valid id: %v", err)), nil
			}
			match.MyDeckID = &deckID
		}
		if rating, ok := request.Params.Arguments["rating"].(float64); ok {
			match.Rating = &rating
		}
		if match.PlayedAt == "" {
			return mcp.NewToolResultError("'played_at' parameter is required."), nil
		}
		if msg := validateMatchInput(match); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}

		tagsStr, _ := request.Params.Arguments["tags"].(string)
		refs, err := resolveTagRefs(ctx, db, parseTags(tagsStr))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve tags: %v", err)), nil
		}
		match.Tags = refs

		created, err := tracker.CreateMatch(ctx, db, match)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to record match: %v", err)), nil
		}
		return jsonResult(created)
	})

	listMatches := mcp.NewTool("list_matches",
		mcp.WithDescription("Lists a project's matches in chronological order. Soft-deleted matches are hidden unless requested."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Id of the project to list matches for.")),
		mcp.WithBoolean("include_deleted", mcp.Description("Include soft-deleted matches.")),
	)
	s.AddTool(listMatches, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, errResult := parseID(request, "project_id")
		if errResult != nil {
			return errResult, nil
		}
		includeDeleted, _ := request.Params.Arguments["include_deleted"].(bool)

		var matches []tracker.Match
		var err error
		if includeDeleted {
			matches, err = tracker.ListAllMatchesByProject(ctx, db, projectID)
		} else {
			matches, err = tracker.ListMatchesByProject(ctx, db, projectID)
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list matches: %v", err)), nil
		}
		if len(matches) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(matches)
	})

	matchesByTag := mcp.NewTool("list_matches_by_tag",
		mcp.WithDescription("Lists all live matches carrying a given tag name, across projects."),
		mcp.WithString("tag", mcp.Required(), mcp.Description("Tag name to look up.")),
	)
	s.AddTool(matchesByTag, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tag, tagOk := request.Params.Arguments["tag"].(string)
		if !tagOk || tag == "" {
			return mcp.NewToolResultError("'tag' parameter is required and must be non-empty."), nil
		}
		matches, err := tracker.ListMatchesByTag(ctx, db, tag)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to list matches for tag '%s': %v", tag, err)), nil
		}
		if len(matches) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(matches)
	})

	getMatch := mcp.NewTool("get_match",
		mcp.WithDescription("Retrieves a match by its id, including soft-deleted ones."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the match to retrieve.")),
	)
	s.AddTool(getMatch, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		match, err := tracker.GetMatch(ctx, db, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error retrieving match '%s': %v", id, err)), nil
		}
		return jsonResult(match)
	})

	updateMatch := mcp.NewTool("update_match",
		mcp.WithDescription("Updates fields of an existing match. Tags, when provided, replace the current set."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the match to update.")),
		mcp.WithString("played_at", mcp.Description("Optional new play time (RFC 3339).")),
		mcp.WithString("result", mcp.Description("Optional new result: 'win' or 'loss'.")),
		mcp.WithString("turn_order", mcp.Description("Optional new turn order: 'first' or 'second'.")),
		mcp.WithString("my_deck_name", mcp.Description("Optional new deck name.")),
		mcp.WithString("op_deck_name", mcp.Description("Optional new opponent deck name (60 characters max).")),
		mcp.WithNumber("rating", mcp.Description("Optional new rating.")),
		mcp.WithString("tags", mcp.Description("Optional new comma-separated tag names (replaces existing).")),
		mcp.WithString("note", mcp.Description("Optional new note.")),
	)
	s.AddTool(updateMatch, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		match, err := tracker.GetMatch(ctx, db, id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Error finding match '%s' to update: %v", id, err)), nil
		}

		if v, ok := request.Params.Arguments["played_at"].(string); ok && v != "" {
			match.PlayedAt = v
		}
		if v, ok := request.Params.Arguments["result"].(string); ok && v != "" {
			match.Result = v
		}
		if v, ok := request.Params.Arguments["turn_order"].(string); ok && v != "" {
			match.TurnOrder = v
		}
		if v, ok := request.Params.Arguments["my_deck_name"].(string); ok && v != "" {
			match.MyDeckName = v
		}
		if v, ok := request.Params.Arguments["op_deck_name"].(string); ok {
			match.OpDeckName = v
		}
		if v, ok := request.Params.Arguments["note"].(string); ok {
			match.Note = v
		}
		if rating, ok := request.Params.Arguments["rating"].(float64); ok {
			match.Rating = &rating
		}
		if tagsStr, ok := request.Params.Arguments["tags"].(string); ok {
			refs, err := resolveTagRefs(ctx, db, parseTags(tagsStr))
			if err != nil {
				return mcp.NewToolResultError(fmt.Sprintf("Failed to resolve tags: %v", err)), nil
			}
			match.Tags = refs
		}
		if msg := validateMatchInput(match); msg != "" {
			return mcp.NewToolResultError(msg), nil
		}

		updated, err := tracker.UpdateMatch(ctx, db, match)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to update match '%s': %v", id, err)), nil
		}
		return jsonResult(updated)
	})

	deleteMatch := mcp.NewTool("delete_match",
		mcp.WithDescription("Soft-deletes a match. It disappears from listings and statistics but can be restored."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the match to delete.")),
	)
	s.AddTool(deleteMatch, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		if err := tracker.SetMatchDeleted(ctx, db, id, true); err != nil {
			if errors.Is(err, tracker.ErrMatchNotFound) {
				return mcp.NewToolResultText(fmt.Sprintf("Match '%s' not found, nothing to delete.", id)), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("Failed to delete match '%s': %v", id, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Match '%s' deleted. Use restore_match to bring it back.", id)), nil
	})

	restoreMatch := mcp.NewTool("restore_match",
		mcp.WithDescription("Restores a soft-deleted match."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Id of the match to restore.")),
	)
	s.AddTool(restoreMatch, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, errResult := parseID(request, "id")
		if errResult != nil {
			return errResult, nil
		}
		if err := tracker.SetMatchDeleted(ctx, db, id, false); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to restore match '%s': %v", id, err)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Match '%s' restored.", id)), nil
	})
}

func parseFilterMode(raw string) (stats.FilterMode, string) {
	switch raw {
	case "", "or":
		return stats.FilterOr, ""
	case "and":
		return stats.FilterAnd, ""
	default:
		return stats.FilterOr, "'filter_mode' must be 'or' or 'and'."
	}
}

// RegisterStatsTools registers the aggregation tools.
func RegisterStatsTools(s *server.MCPServer, db *sql.DB) {
	projectStats := mcp.NewTool("project_stats",
		mcp.WithDescription("Computes win-rate KPIs, tag usage, and the deck matchup matrix for a project."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Id of the project to analyze.")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tag names to filter matches by.")),
		mcp.WithString("filter_mode", mcp.Description("Tag filter combination: 'or' (default) or 'and'.")),
	)
	s.AddTool(projectStats, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, errResult := parseID(request, "project_id")
		if errResult != nil {
			return errResult, nil
		}
		tagsStr, _ := request.Params.Arguments["tags"].(string)
		modeStr, _ := request.Params.Arguments["filter_mode"].(string)
		mode, msg := parseFilterMode(modeStr)
		if msg != "" {
			return mcp.NewToolResultError(msg), nil
		}

		matches, err := tracker.ListMatchesByProject(ctx, db, projectID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load matches: %v", err)), nil
		}
		if selected := parseTags(tagsStr); len(selected) > 0 {
			matches = stats.FilterByTags(matches, selected, mode)
		}

		report := struct {
			KPIs     stats.KPIs     `json:"kpis"`
			Tags     []stats.TagRow `json:"tags"`
			Matchups stats.Matrix   `json:"matchups"`
		}{
			KPIs:     stats.ComputeKPIs(matches),
			Tags:     stats.TagStats(matches),
			Matchups: stats.MatchupMatrix(matches),
		}
		return jsonResult(report)
	})

	rateSeries := mcp.NewTool("rate_series",
		mcp.WithDescription("Returns a project's rating-over-time series, sorted by play time."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Id of the project to analyze.")),
		mcp.WithString("tags", mcp.Description("Optional comma-separated tag names to filter matches by.")),
		mcp.WithString("filter_mode", mcp.Description("Tag filter combination: 'or' (default) or 'and'.")),
	)
	s.AddTool(rateSeries, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, errResult := parseID(request, "project_id")
		if errResult != nil {
			return errResult, nil
		}
		tagsStr, _ := request.Params.Arguments["tags"].(string)
		modeStr, _ := request.Params.Arguments["filter_mode"].(string)
		mode, msg := parseFilterMode(modeStr)
		if msg != "" {
			return mcp.NewToolResultError(msg), nil
		}

		matches, err := tracker.ListMatchesByProject(ctx, db, projectID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to load matches: %v", err)), nil
		}
		if selected := parseTags(tagsStr); len(selected) > 0 {
			matches = stats.FilterByTags(matches, selected, mode)
		}

		series := stats.RateSeries(matches)
		if len(series) == 0 {
			return mcp.NewToolResultText("[]"), nil
		}
		return jsonResult(series)
	})
}

// RegisterBackupTools registers the export and import tools.
func RegisterBackupTools(s *server.MCPServer, db *sql.DB) {
	exportData := mcp.NewTool("export_data",
		mcp.WithDescription("Exports the full database (projects, decks, tags, matches) as a JSON document."),
	)
	s.AddTool(exportData, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var activeID *uuid.UUID
		if value, err := tracker.GetPreference(ctx, db, tracker.PrefActiveProject); err == nil {
			if id, err := uuid.Parse(value); err == nil {
				activeID = &id
			}
		}
		doc, err := tracker.ExportAll(ctx, db, activeID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to export data: %v", err)), nil
		}
		return jsonResult(doc)
	})

	exportProject := mcp.NewTool("export_project",
		mcp.WithDescription("Exports a single project and its matches as a JSON document."),
		mcp.WithString("project_id", mcp.Required(), mcp.Description("Id of the project to export.")),
	)
	s.AddTool(exportProject, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		projectID, errResult := parseID(request, "project_id")
		if errResult != nil {
			return errResult, nil
		}
		doc, err := tracker.ExportProject(ctx, db, projectID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to export project '%s': %v", projectID, err)), nil
		}
		return jsonResult(doc)
	})

	exportDecks := mcp.NewTool("export_decks",
		mcp.WithDescription("Exports the deck library as a JSON document."),
	)
	s.AddTool(exportDecks, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		doc, err := tracker.ExportDecks(ctx, db)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to export decks: %v", err)), nil
		}
		return jsonResult(doc)
	})

	importData := mcp.NewTool("import_data",
		mcp.WithDescription("Imports a previously exported JSON document. Records are matched by id; existing records with the same id are overwritten."),
		mcp.WithString("document", mcp.Required(), mcp.Description("The JSON export document to import.")),
	)
	s.AddTool(importData, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, rawOk := request.Params.Arguments["document"].(string)
		if !rawOk || raw == "" {
			return mcp.NewToolResultError("'document' parameter is required and must be a non-empty string."), nil
		}
		doc, err := tracker.ParseImport([]byte(raw))
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Import rejected: %v", err)), nil
		}
		counts, err := tracker.ImportDocument(ctx, db, doc)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Import failed: %v", err)), nil
		}
		return jsonResult(counts)
	})
}
