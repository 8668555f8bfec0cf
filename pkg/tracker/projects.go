package tracker

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrProjectNotFound = errors.New("project not found")
)

const (
	createProjectStatement = `
	INSERT INTO projects (id, name, description, period_start, period_end, archived)
	VALUES (?, ?, ?, ?, ?, ?)
	`

	getProjectStatement = `
	SELECT id, name, description, period_start, period_end, archived, created_at, updated_at
	FROM projects
	WHERE id = ?
	`

	listProjectsStatement = `
	SELECT id, name, description, period_start, period_end, archived, created_at, updated_at
	FROM projects
	WHERE archived = FALSE OR ? = true
	ORDER BY updated_at DESC
	`

	updateProjectStatement = `
	UPDATE projects
	SET name = ?, description = ?, period_start = ?, period_end = ?, archived = ?, updated_at = unixepoch()
	WHERE id = ?
	`

	deleteProjectStatement = `
	DELETE FROM projects
	WHERE id = ?
	`
)

func scanProject(row interface{ Scan(...any) error }) (Project, error) {
	var project Project
	var periodStart, periodEnd sql.NullString

	err := row.Scan(
		&project.ID,
		&project.Name,
		&project.Description,
		&periodStart,
		&periodEnd,
		&project.Archived,
		&project.CreatedAt,
		&project.UpdatedAt,
	)
	if err != nil {
		return Project{}, err
	}

	if periodStart.Valid || periodEnd.Valid {
		project.Period = &Period{Start: periodStart.String, End: periodEnd.String}
	}
	return project, nil
}

func periodColumns(period *Period) (any, any) {
	if period == nil {
		return nil, nil
	}
	var start, end any
	if period.Start != "" {
		start = period.Start
	}
	if period.End != "" {
		end = period.End
	}
	return start, end
}

func CreateProject(ctx context.Context, db *sql.DB, name, description string, period *Period) (Project, error) {
	projectID := uuid.New()
	start, end := periodColumns(period)

	_, err := db.ExecContext(
		ctx,
		createProjectStatement,
		projectID,
		name,
		description,
		start,
		end,
		false, // archived
	)
	if err != nil {
		return Project{}, err
	}

	return GetProject(ctx, db, projectID)
}

func GetProject(ctx context.Context, db *sql.DB, id uuid.UUID) (Project, error) {
	project, err := scanProject(db.QueryRowContext(ctx, getProjectStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Project{}, ErrProjectNotFound
		}
		return Project{}, err
	}
	return project, nil
}

func ListProjects(ctx context.Context, db *sql.DB, includeArchived bool) ([]Project, error) {
	rows, err := db.QueryContext(ctx, listProjectsStatement, includeArchived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, project)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return projects, nil
}

func UpdateProject(ctx context.Context, db *sql.DB, id uuid.UUID, name, description string, period *Period, archived bool) (Project, error) {
	start, end := periodColumns(period)

	res, err := db.ExecContext(
		ctx,
		updateProjectStatement,
		name,
		description,
		start,
		end,
		archived,
		id,
	)
	if err != nil {
		return Project{}, err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return Project{}, err
	}

	if rowsAffected == 0 {
		return Project{}, ErrProjectNotFound
	}

	return GetProject(ctx, db, id)
}

// DeleteProject hard-deletes the project record. Matches that reference it
// are deliberately left in place.
func DeleteProject(ctx context.Context, db *sql.DB, id uuid.UUID) error {
	res, err := db.ExecContext(ctx, deleteProjectStatement, id)
	if err != nil {
		return err
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrProjectNotFound
	}

	return nil
}
