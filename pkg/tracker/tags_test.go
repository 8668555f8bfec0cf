package tracker

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/google/uuid"
)

func setupTestDBWithProject(t *testing.T) (*sql.DB, uuid.UUID) {
	t.Helper()

	testDB := setupTestDB(t)
	project, err := CreateProject(context.Background(), testDB, "Test Project", "", nil)
	if err != nil {
		t.Fatalf("Failed to create test project: %v", err)
	}
	return testDB, project.ID
}

func createTaggedMatch(t *testing.T, testDB *sql.DB, projectID uuid.UUID, playedAt string, refs []TagRef) Match {
	t.Helper()
	match, err := CreateMatch(context.Background(), testDB, Match{
		ProjectID:  projectID,
		PlayedAt:   playedAt,
		Result:     ResultWin,
		TurnOrder:  TurnFirst,
		MyDeckName: "Control",
		OpDeckName: "Aggro",
		Tags:       refs,
	})
	if err != nil {
		t.Fatalf("CreateMatch failed: %v", err)
	}
	return match
}

func TestCreateAndListTags(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	ctx := context.Background()
	if _, err := CreateTag(ctx, testDB, "burn", "#ff0000", "fast damage"); err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	if _, err := CreateTag(ctx, testDB, "aggro", "", ""); err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	tags, err := ListTags(ctx, testDB)
	if err != nil {
		t.Fatalf("ListTags failed: %v", err)
	}
	if len(tags) != 2 {
		t.Fatalf("Expected 2 tags, got %d", len(tags))
	}
	// Alphabetical listing.
	if tags[0].Name != "aggro" || tags[1].Name != "burn" {
		t.Errorf("Expected tags sorted by name, got %s then %s", tags[0].Name, tags[1].Name)
	}
	if tags[1].Color != "#ff0000" || tags[1].Description != "fast damage" {
		t.Errorf("Tag fields lost: %+v", tags[1])
	}
}

func TestGetTagByName(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	ctx := context.Background()
	created, err := CreateTag(ctx, testDB, "combo", "", "")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	found, err := GetTagByName(ctx, testDB, "combo")
	if err != nil {
		t.Fatalf("GetTagByName failed: %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("Expected tag %s, got %s", created.ID, found.ID)
	}

	if _, err := GetTagByName(ctx, testDB, "missing"); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Expected ErrTagNotFound, got %v", err)
	}
}

func TestRenameTagDoesNotRewriteSnapshots(t *testing.T) {
	testDB, projectID := setupTestDBWithProject(t)
	defer testDB.Close()

	ctx := context.Background()
	tag, err := CreateTag(ctx, testDB, "aggro", "", "")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	match := createTaggedMatch(t, testDB, projectID, "2024-03-01T10:00:00Z",
		[]TagRef{{TagID: &tag.ID, TagName: tag.Name}})

	renamed, err := RenameTag(ctx, testDB, tag.ID, "hyper-aggro")
	if err != nil {
		t.Fatalf("RenameTag failed: %v", err)
	}
	if renamed.Name != "hyper-aggro" {
		t.Errorf("Expected renamed tag, got %s", renamed.Name)
	}

	// The match keeps the historical snapshot.
	after, err := GetMatch(ctx, testDB, match.ID)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if len(after.Tags) != 1 || after.Tags[0].TagName != "aggro" {
		t.Errorf("Rename must not touch match snapshots, got %+v", after.Tags)
	}
	if len(after.TagsFlat) != 1 || after.TagsFlat[0] != "aggro" {
		t.Errorf("tags_flat must keep the historical name, got %v", after.TagsFlat)
	}
}

func TestDeleteTagCascade(t *testing.T) {
	testDB, projectID := setupTestDBWithProject(t)
	defer testDB.Close()

	ctx := context.Background()
	aggro, err := CreateTag(ctx, testDB, "aggro", "", "")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}
	control, err := CreateTag(ctx, testDB, "control", "", "")
	if err != nil {
		t.Fatalf("CreateTag failed: %v", err)
	}

	tagged := createTaggedMatch(t, testDB, projectID, "2024-03-01T10:00:00Z",
		[]TagRef{{TagID: &aggro.ID, TagName: "aggro"}, {TagID: &control.ID, TagName: "control"}})
	untouched := createTaggedMatch(t, testDB, projectID, "2024-03-02T10:00:00Z",
		[]TagRef{{TagID: &control.ID, TagName: "control"}})

	// Pin updated_at to a sentinel so the cascade's bump is observable.
	const sentinel = 1000
	if _, err := testDB.Exec("UPDATE matches SET updated_at = ?;", sentinel); err != nil {
		t.Fatalf("Failed to pin updated_at: %v", err)
	}

	if err := DeleteTag(ctx, testDB, aggro.ID); err != nil {
		t.Fatalf("DeleteTag failed: %v", err)
	}

	if _, err := GetTag(ctx, testDB, aggro.ID); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Deleted tag should be gone, got %v", err)
	}

	after, err := GetMatch(ctx, testDB, tagged.ID)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if len(after.Tags) != 2 {
		t.Fatalf("Tag reference list should keep both entries, got %d", len(after.Tags))
	}
	if after.Tags[0].TagID != nil {
		t.Errorf("Deleted tag's reference should have nil tagId, got %v", after.Tags[0].TagID)
	}
	if after.Tags[0].TagName != "aggro" {
		t.Errorf("Tag name snapshot must survive deletion, got %q", after.Tags[0].TagName)
	}
	if after.Tags[1].TagID == nil || *after.Tags[1].TagID != control.ID {
		t.Errorf("Unrelated reference must keep its tagId, got %v", after.Tags[1].TagID)
	}

	// tags_flat is unchanged by the cascade: names survive.
	if len(after.TagsFlat) != 2 || after.TagsFlat[0] != "aggro" || after.TagsFlat[1] != "control" {
		t.Errorf("tags_flat changed across the cascade: %v", after.TagsFlat)
	}
	if after.UpdatedAt == sentinel {
		t.Errorf("Referencing match should have been bumped by the cascade")
	}

	// The match that never referenced the tag sees no write at all.
	other, err := GetMatch(ctx, testDB, untouched.ID)
	if err != nil {
		t.Fatalf("GetMatch failed: %v", err)
	}
	if other.UpdatedAt != sentinel {
		t.Errorf("Unrelated match was touched by the cascade: updated_at %f", other.UpdatedAt)
	}
}

func TestDeleteTagNotFound(t *testing.T) {
	testDB := setupTestDB(t)
	defer testDB.Close()

	if err := DeleteTag(context.Background(), testDB, uuid.New()); !errors.Is(err, ErrTagNotFound) {
		t.Errorf("Expected ErrTagNotFound, got %v", err)
	}
}

func TestFlatTagNames(t *testing.T) {
	id := uuid.New()
	refs := []TagRef{
		{TagID: &id, TagName: "aggro"},
		{TagName: ""},
		{TagName: "control"},
		{TagName: "aggro"}, // duplicate
	}

	flat := FlatTagNames(refs)
	if len(flat) != 2 || flat[0] != "aggro" || flat[1] != "control" {
		t.Errorf("Expected [aggro control], got %v", flat)
	}

	if flat := FlatTagNames(nil); len(flat) != 0 {
		t.Errorf("Expected empty set for no references, got %v", flat)
	}
}
