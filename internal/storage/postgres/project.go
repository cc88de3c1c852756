package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrProjectNotFound is returned when a project lookup yields no results.
var ErrProjectNotFound = errors.New("project not found")

// Project represents a mood-board project in the database. MoodParams,
// PaletteData and ImageURLs are stored as JSONB documents and passed
// through verbatim; the server does not interpret their contents.
type Project struct {
	ID          string
	OwnerID     int64
	Name        string
	Description string
	IsPublic    bool
	MoodParams  json.RawMessage
	PaletteData json.RawMessage
	ImageURLs   json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProjectRepository provides project persistence operations.
type ProjectRepository struct {
	db *pgxpool.Pool
}

// NewProjectRepository creates a ProjectRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool.
func NewProjectRepository(db *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Create inserts a new project and returns it with ID and timestamps set.
//
// Precondition: p.OwnerID must reference an existing account; p.Name must be non-empty.
// Postcondition: Returns the created project with a generated ID.
func (r *ProjectRepository) Create(ctx context.Context, p *Project) (*Project, error) {
	id := uuid.NewString()
	var out Project
	err := r.db.QueryRow(ctx, `
		INSERT INTO projects
			(id, owner_id, name, description, is_public,
			 mood_params, palette_data, image_urls)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, owner_id, name, description, is_public,
		          mood_params, palette_data, image_urls, created_at, updated_at`,
		id, p.OwnerID, p.Name, p.Description, p.IsPublic,
		normalizeDoc(p.MoodParams), normalizeDoc(p.PaletteData), normalizeDoc(p.ImageURLs),
	).Scan(
		&out.ID, &out.OwnerID, &out.Name, &out.Description, &out.IsPublic,
		&out.MoodParams, &out.PaletteData, &out.ImageURLs, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting project: %w", err)
	}
	return &out, nil
}

// GetByID retrieves a project by its ID.
//
// Precondition: id must be non-empty.
// Postcondition: Returns the project or ErrProjectNotFound.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := r.db.QueryRow(ctx, `
		SELECT id, owner_id, name, description, is_public,
		       mood_params, palette_data, image_urls, created_at, updated_at
		FROM projects WHERE id = $1`,
		id,
	).Scan(
		&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.IsPublic,
		&p.MoodParams, &p.PaletteData, &p.ImageURLs, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("querying project: %w", err)
	}
	return &p, nil
}

// ListByOwner returns all projects owned by the given account, newest first.
//
// Precondition: ownerID must be > 0.
// Postcondition: Returns a slice (may be empty) or a non-nil error.
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*Project, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, name, description, is_public,
		       mood_params, palette_data, image_urls, created_at, updated_at
		FROM projects WHERE owner_id = $1 ORDER BY updated_at DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

// ListPublic returns publicly visible projects, newest first, paginated.
//
// Precondition: limit must be > 0; offset must be >= 0.
// Postcondition: Returns at most limit projects or a non-nil error.
func (r *ProjectRepository) ListPublic(ctx context.Context, limit, offset int) ([]*Project, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, owner_id, name, description, is_public,
		       mood_params, palette_data, image_urls, created_at, updated_at
		FROM projects WHERE is_public ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("listing public projects: %w", err)
	}
	defer rows.Close()
	return scanProjects(rows)
}

// CountPublic returns the total number of publicly visible projects.
//
// Postcondition: Returns a non-negative count or a non-nil error.
func (r *ProjectRepository) CountPublic(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM projects WHERE is_public`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting public projects: %w", err)
	}
	return count, nil
}

// CountAll returns the total number of projects.
//
// Postcondition: Returns a non-negative count or a non-nil error.
func (r *ProjectRepository) CountAll(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting projects: %w", err)
	}
	return count, nil
}

// RecentProject is the trimmed project view for the admin dashboard.
type RecentProject struct {
	ID            string
	Name          string
	OwnerID       int64
	OwnerUsername string
	CreatedAt     time.Time
}

// ListRecent returns the most recently created projects with their
// owners' usernames, newest first.
//
// Precondition: limit must be > 0.
// Postcondition: Returns at most limit entries or a non-nil error.
func (r *ProjectRepository) ListRecent(ctx context.Context, limit int) ([]RecentProject, error) {
	rows, err := r.db.Query(ctx, `
		SELECT p.id, p.name, p.owner_id, a.username, p.created_at
		FROM projects p
		JOIN accounts a ON a.id = p.owner_id
		ORDER BY p.created_at DESC
		LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing recent projects: %w", err)
	}
	defer rows.Close()

	recent := make([]RecentProject, 0)
	for rows.Next() {
		var rp RecentProject
		if err := rows.Scan(&rp.ID, &rp.Name, &rp.OwnerID, &rp.OwnerUsername, &rp.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning recent project row: %w", err)
		}
		recent = append(recent, rp)
	}
	return recent, rows.Err()
}

// Update persists the mutable fields of a project and bumps updated_at.
//
// Precondition: p.ID must reference an existing project.
// Postcondition: Returns the stored project, or ErrProjectNotFound.
func (r *ProjectRepository) Update(ctx context.Context, p *Project) (*Project, error) {
	var out Project
	err := r.db.QueryRow(ctx, `
		UPDATE projects SET
			name = $2, description = $3, is_public = $4,
			mood_params = $5, palette_data = $6, image_urls = $7,
			updated_at = now()
		WHERE id = $1
		RETURNING id, owner_id, name, description, is_public,
		          mood_params, palette_data, image_urls, created_at, updated_at`,
		p.ID, p.Name, p.Description, p.IsPublic,
		normalizeDoc(p.MoodParams), normalizeDoc(p.PaletteData), normalizeDoc(p.ImageURLs),
	).Scan(
		&out.ID, &out.OwnerID, &out.Name, &out.Description, &out.IsPublic,
		&out.MoodParams, &out.PaletteData, &out.ImageURLs, &out.CreatedAt, &out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return &out, nil
}

// Delete removes a project by ID.
//
// Precondition: id must be non-empty.
// Postcondition: The project is gone, or ErrProjectNotFound is returned.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProjectNotFound
	}
	return nil
}

func scanProjects(rows pgx.Rows) ([]*Project, error) {
	projects := make([]*Project, 0)
	for rows.Next() {
		var p Project
		if err := rows.Scan(
			&p.ID, &p.OwnerID, &p.Name, &p.Description, &p.IsPublic,
			&p.MoodParams, &p.PaletteData, &p.ImageURLs, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning project row: %w", err)
		}
		projects = append(projects, &p)
	}
	return projects, rows.Err()
}

// normalizeDoc substitutes an empty JSON object for absent documents so
// JSONB columns never hold SQL NULL.
func normalizeDoc(doc json.RawMessage) json.RawMessage {
	if len(doc) == 0 {
		return json.RawMessage(`{}`)
	}
	return doc
}
