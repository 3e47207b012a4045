package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"notaminda/internal/domain"
	"notaminda/internal/domain/models"
	"notaminda/internal/domain/repositories"
)

// PostgresMindMapRepository implements the MindMapRepository interface
type PostgresMindMapRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewMindMapRepository creates a new mind map repository
func NewMindMapRepository(config *RepositoryConfig) repositories.MindMapRepository {
	return &PostgresMindMapRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a new mind map
func (r *PostgresMindMapRepository) Create(ctx context.Context, mindMap *models.MindMap) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, title, is_private, flow_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, r.tables.MindMaps)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		mindMap.ID,
		mindMap.UserID,
		mindMap.Title,
		mindMap.IsPrivate,
		mindMap.FlowData,
		mindMap.CreatedAt,
	).Scan(&mindMap.CreatedAt)

	if err != nil {
		return fmt.Errorf("create mind map: %w", err)
	}

	return nil
}

// GetByID retrieves a mind map by ID, without its nodes
func (r *PostgresMindMapRepository) GetByID(ctx context.Context, id string) (*models.MindMap, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, is_private, flow_data, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.MindMaps)

	var mindMap models.MindMap
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&mindMap.ID,
		&mindMap.UserID,
		&mindMap.Title,
		&mindMap.IsPrivate,
		&mindMap.FlowData,
		&mindMap.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("mind map %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get mind map: %w", err)
	}

	return &mindMap, nil
}

// List retrieves all mind maps for a user, newest first
func (r *PostgresMindMapRepository) List(ctx context.Context, userID string) ([]models.MindMap, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, title, is_private, flow_data, created_at
		FROM %s
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, r.tables.MindMaps)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list mind maps: %w", err)
	}
	defer rows.Close()

	var mindMaps []models.MindMap
	for rows.Next() {
		var mindMap models.MindMap
		err := rows.Scan(
			&mindMap.ID,
			&mindMap.UserID,
			&mindMap.Title,
			&mindMap.IsPrivate,
			&mindMap.FlowData,
			&mindMap.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan mind map: %w", err)
		}
		mindMaps = append(mindMaps, mindMap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate mind maps: %w", err)
	}

	// Return empty slice instead of nil if no mind maps
	if mindMaps == nil {
		mindMaps = []models.MindMap{}
	}

	return mindMaps, nil
}

// Update persists title, privacy flag and flow data
func (r *PostgresMindMapRepository) Update(ctx context.Context, mindMap *models.MindMap) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, is_private = $2, flow_data = $3
		WHERE id = $4
	`, r.tables.MindMaps)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		mindMap.Title,
		mindMap.IsPrivate,
		mindMap.FlowData,
		mindMap.ID,
	)

	if err != nil {
		return fmt.Errorf("update mind map: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mind map %s: %w", mindMap.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a mind map; its nodes cascade via the FK
func (r *PostgresMindMapRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.MindMaps)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete mind map: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("mind map %s: %w", id, domain.ErrNotFound)
	}

	return nil
}
