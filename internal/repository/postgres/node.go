package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"notaminda/internal/domain"
	"notaminda/internal/domain/models"
	"notaminda/internal/domain/repositories"
)

// PostgresNodeRepository implements the NodeRepository interface
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewNodeRepository creates a new node repository
func NewNodeRepository(config *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// GetByID retrieves a node by ID
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, mind_map_id, title, note, parent_id, flow_data, created_at
		FROM %s
		WHERE id = $1
	`, r.tables.Nodes)

	var node models.Node
	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query, id).Scan(
		&node.ID,
		&node.MindMapID,
		&node.Title,
		&node.Note,
		&node.ParentID,
		&node.FlowData,
		&node.CreatedAt,
	)

	if err != nil {
		if IsPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}

	return &node, nil
}

// ListByMindMap returns every node of a mind map, oldest first
func (r *PostgresNodeRepository) ListByMindMap(ctx context.Context, mindMapID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT id, mind_map_id, title, note, parent_id, flow_data, created_at
		FROM %s
		WHERE mind_map_id = $1
		ORDER BY created_at ASC
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, mindMapID)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		var node models.Node
		err := rows.Scan(
			&node.ID,
			&node.MindMapID,
			&node.Title,
			&node.Note,
			&node.ParentID,
			&node.FlowData,
			&node.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	if nodes == nil {
		nodes = []models.Node{}
	}

	return nodes, nil
}

// Create inserts a single node
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, mind_map_id, title, note, parent_id, flow_data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	err := executor.QueryRow(ctx, query,
		node.ID,
		node.MindMapID,
		node.Title,
		node.Note,
		node.ParentID,
		node.FlowData,
		node.CreatedAt,
	).Scan(&node.CreatedAt)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("node parent or mind map missing: %w", domain.ErrValidation)
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// Update persists title, note, parent and flow data of a single node
func (r *PostgresNodeRepository) Update(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, note = $2, parent_id = $3, flow_data = $4
		WHERE id = $5
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query,
		node.Title,
		node.Note,
		node.ParentID,
		node.FlowData,
		node.ID,
	)

	if err != nil {
		if IsPgForeignKeyError(err) {
			return fmt.Errorf("node parent missing: %w", domain.ErrValidation)
		}
		return fmt.Errorf("update node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a node; children cascade via the parent FK
func (r *PostgresNodeRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	result, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}

	return nil
}

// BulkCreate inserts nodes in one statement
func (r *PostgresNodeRepository) BulkCreate(ctx context.Context, nodes []*models.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, mind_map_id, title, note, parent_id, flow_data, created_at)
		VALUES
	`, r.tables.Nodes)

	// Build VALUES clause dynamically (7 parameters per node)
	args := make([]interface{}, 0, len(nodes)*7)
	for i, node := range nodes {
		if node.CreatedAt.IsZero() {
			node.CreatedAt = time.Now()
		}

		if i > 0 {
			query += ","
		}
		query += fmt.Sprintf(`
			($%d, $%d, $%d, $%d, $%d, $%d, $%d)
		`, i*7+1, i*7+2, i*7+3, i*7+4, i*7+5, i*7+6, i*7+7)

		args = append(args,
			node.ID,
			node.MindMapID,
			node.Title,
			node.Note,
			node.ParentID,
			node.FlowData,
			node.CreatedAt,
		)
	}

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("bulk create nodes: %w", err)
	}

	return nil
}

// BulkUpdateAttrs persists title and flow data for each node
func (r *PostgresNodeRepository) BulkUpdateAttrs(ctx context.Context, nodes []*models.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET title = $1, flow_data = $2
		WHERE id = $3
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	for _, node := range nodes {
		if _, err := executor.Exec(ctx, query, node.Title, node.FlowData, node.ID); err != nil {
			return fmt.Errorf("bulk update node %s: %w", node.ID, err)
		}
	}

	return nil
}

// BulkUpdateParents persists the parent reference for each node
func (r *PostgresNodeRepository) BulkUpdateParents(ctx context.Context, nodes []*models.Node) error {
	if len(nodes) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1
		WHERE id = $2
	`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	for _, node := range nodes {
		if _, err := executor.Exec(ctx, query, node.ParentID, node.ID); err != nil {
			return fmt.Errorf("bulk update parent of node %s: %w", node.ID, err)
		}
	}

	return nil
}

// DeleteByIDs removes the given nodes
func (r *PostgresNodeRepository) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Nodes)

	executor := GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}

	return nil
}
