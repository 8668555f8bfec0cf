package tracker

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/mdtracker/mdtrack/pkg/db"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	testDB, err := db.OpenDBConnection(":memory:", true, "NORMAL")
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	if err := db.UpgradeDB(testDB, ":memory:", db.TargetSchemaVersion); err != nil {
		t.Fatalf("Failed to migrate schema: %v", err)
	}

	return testDB
}

func TestCreateProject(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	ctx := context.Background()
	period := &Period{Start: "2024-03-01T00:00:00Z", End: "2024-03-31T23:59:59Z"}

	project, err := CreateProject(ctx, testDB, "Season 12", "ladder climb", period)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	if project.Name != "Season 12" {
		t.Errorf("Expected project name 'Season 12', got %s", project.Name)
	}
	if project.Description != "ladder climb" {
		t.Errorf("Expected description 'ladder climb', got %s", project.Description)
	}
	if project.Archived {
		t.Errorf("New project should not be archived")
	}
	if project.ID == uuid.Nil {
		t.Errorf("Expected project ID to be set, got nil UUID")
	}
	if project.Period == nil || project.Period.Start != period.Start || project.Period.End != period.End {
		t.Errorf("Period mismatch: expected %+v, got %+v", period, project.Period)
	}
	if project.CreatedAt <= 0 || project.UpdatedAt <= 0 {
		t.Errorf("Expected timestamps to be set, got %f / %f", project.CreatedAt, project.UpdatedAt)
	}
}

func TestProjectWithoutPeriod(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	ctx := context.Background()
	project, err := CreateProject(ctx, testDB, "Casual", "", nil)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if project.Period != nil {
		t.Errorf("Expected nil period, got %+v", project.Period)
	}

	retrieved, err := GetProject(ctx, testDB, project.ID)
	if err != nil {
		t.Fatalf("GetProject failed: %v", err)
	}
	if retrieved.Period != nil {
		t.Errorf("Expected nil period after round-trip, got %+v", retrieved.Period)
	}
}

func TestGetProjectNotFound(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	_, err := GetProject(context.Background(), testDB, uuid.New())
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Expected ErrProjectNotFound, got %v", err)
	}
}

func TestUpdateProjectNotFound(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	_, err := UpdateProject(context.Background(), testDB, uuid.New(), "Name", "", nil, false)
	if !errors.Is(err, ErrProjectNotFound) {
		t.Errorf("Update of a missing project should fail with ErrProjectNotFound, got %v", err)
	}
}

func TestListProjectsFiltersArchived(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	ctx := context.Background()
	active, err := CreateProject(ctx, testDB, "Active", "", nil)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	archived, err := CreateProject(ctx, testDB, "Old", "", nil)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}
	if _, err := UpdateProject(ctx, testDB, archived.ID, archived.Name, "", nil, true); err != nil {
		t.Fatalf("UpdateProject failed: %v", err)
	}

	visible, err := ListProjects(ctx, testDB, false)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(visible) != 1 || visible[0].ID != active.ID {
		t.Errorf("Expected only the active project, got %d projects", len(visible))
	}

	all, err := ListProjects(ctx, testDB, true)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected both projects with includeArchived, got %d", len(all))
	}
}

func TestDeleteProjectLeavesMatches(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	ctx := context.Background()
	project, err := CreateProject(ctx, testDB, "Doomed", "", nil)
	if err != nil {
		t.Fatalf("CreateProject failed: %v", err)
	}

	match, err := CreateMatch(ctx, testDB, Match{
		ProjectID:  project.ID,
		PlayedAt:   "2024-03-01T10:00:00Z",
		Result:     ResultWin,
		TurnOrder:  TurnFirst,
		MyDeckName: "Control",
		OpDeckName: "Aggro",
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}

	if err := DeleteProject(ctx, testDB, project.ID); err != nil {
		t.Fatalf("DeleteProject failed: %v", err)
	}

	// The match survives its project.
	survivor, err := GetMatch(ctx, testDB, match.ID)
	if err != nil {
		t.Fatalf("Match should survive project deletion: %v", err)
	}
	if survivor.ProjectID != project.ID {
		t.Errorf("Match should keep its project reference, got %s", survivor.ProjectID)
	}
}

func TestPreferences(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	ctx := context.Background()

	if _, err := GetPreference(ctx, testDB, PrefActiveProject); !errors.Is(err, ErrPreferenceNotFound) {
		t.Errorf("Expected ErrPreferenceNotFound for an unset key, got %v", err)
	}

	projectID := uuid.New().String()
	if err := SetPreference(ctx, testDB, PrefActiveProject, projectID); err != nil {
		t.Fatalf("SetPreference failed: %v", err)
	}

	value, err := GetPreference(ctx, testDB, PrefActiveProject)
	if err != nil {
		t.Fatalf("GetPreference failed: %v", err)
	}
	if value != projectID {
		t.Errorf("Expected %s, got %s", projectID, value)
	}

	// Overwrite in place.
	if err := SetPreference(ctx, testDB, PrefActiveProject, "other"); err != nil {
		t.Fatalf("SetPreference overwrite failed: %v", err)
	}
	value, _ = GetPreference(ctx, testDB, PrefActiveProject)
	if value != "other" {
		t.Errorf("Expected overwritten value, got %s", value)
	}

	if err := DeletePreference(ctx, testDB, PrefActiveProject); err != nil {
		t.Fatalf("DeletePreference failed: %v", err)
	}
	if _, err := GetPreference(ctx, testDB, PrefActiveProject); !errors.Is(err, ErrPreferenceNotFound) {
		t.Errorf("Expected ErrPreferenceNotFound after delete, got %v", err)
	}
}
