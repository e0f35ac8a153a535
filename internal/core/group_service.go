package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupService manages the company-scoped classification tree assignable to
// aisles and products.
type GroupService interface {
	CreateGroup(ctx context.Context, companyID int, name string, parentID *int) (*Group, error)
	GetGroups(ctx context.Context, companyID int) ([]Group, error)

	// UpdateGroup renames and/or reparents a group. Reparenting a group under
	// one of its own descendants fails with ErrValidation.
	UpdateGroup(ctx context.Context, companyID, groupID int, name *string, parentID *int) (*Group, error)

	DeleteGroup(ctx context.Context, companyID, groupID int) error
}

type groupService struct {
	pool *pgxpool.Pool
}

func NewGroupService(pool *pgxpool.Pool) GroupService {
	return &groupService{pool: pool}
}

// wouldCycle reports whether setting newParent as groupID's parent would
// close a cycle, by walking the ancestor chain of newParent through the
// parents map (id -> parent id, nil for roots). The depth guard caps the
// walk in case the stored tree is already corrupt.
func wouldCycle(parents map[int]*int, groupID, newParent int) bool {
	cur := &newParent
	for depth := 0; cur != nil && depth <= len(parents); depth++ {
		if *cur == groupID {
			return true
		}
		cur = parents[*cur]
	}
	return false
}

// loadParents builds the id -> parent-id map for every group of the company.
func loadParents(ctx context.Context, q interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}, companyID int) (map[int]*int, error) {
	rows, err := q.Query(ctx, "SELECT id, parent_id FROM groups WHERE company_id = $1", companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	parents := make(map[int]*int)
	for rows.Next() {
		var id int
		var parent *int
		if err := rows.Scan(&id, &parent); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		parents[id] = parent
	}
	return parents, rows.Err()
}

func (s *groupService) CreateGroup(ctx context.Context, companyID int, name string, parentID *int) (*Group, error) {
	if name == "" {
		return nil, validationf("group name required")
	}
	if parentID != nil {
		if err := s.checkGroup(ctx, companyID, *parentID); err != nil {
			return nil, err
		}
	}

	var g Group
	err := s.pool.QueryRow(ctx, `
		INSERT INTO groups (company_id, parent_id, name)
		VALUES ($1, $2, $3)
		RETURNING id, company_id, parent_id, name
	`, companyID, parentID, name).Scan(&g.ID, &g.CompanyID, &g.ParentID, &g.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	return &g, nil
}

func (s *groupService) GetGroups(ctx context.Context, companyID int) ([]Group, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, company_id, parent_id, name FROM groups
		WHERE company_id = $1
		ORDER BY name
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query groups: %w", err)
	}
	defer rows.Close()

	var groups []Group
	for rows.Next() {
		var g Group
		if err := rows.Scan(&g.ID, &g.CompanyID, &g.ParentID, &g.Name); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// checkGroup verifies the group exists and belongs to the company.
func (s *groupService) checkGroup(ctx context.Context, companyID, groupID int) error {
	var ownerID int
	err := s.pool.QueryRow(ctx, "SELECT company_id FROM groups WHERE id = $1", groupID).Scan(&ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return notFoundf("group %d", groupID)
		}
		return fmt.Errorf("failed to resolve group: %w", err)
	}
	if ownerID != companyID {
		return forbiddenf("group %d belongs to another company", groupID)
	}
	return nil
}

func (s *groupService) UpdateGroup(ctx context.Context, companyID, groupID int, name *string, parentID *int) (*Group, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var g Group
	err = tx.QueryRow(ctx, `
		SELECT id, company_id, parent_id, name FROM groups
		WHERE id = $1
		FOR UPDATE
	`, groupID).Scan(&g.ID, &g.CompanyID, &g.ParentID, &g.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("group %d", groupID)
		}
		return nil, fmt.Errorf("failed to resolve group: %w", err)
	}
	if g.CompanyID != companyID {
		return nil, forbiddenf("group %d belongs to another company", groupID)
	}

	if parentID != nil {
		parents, err := loadParents(ctx, tx, companyID)
		if err != nil {
			return nil, err
		}
		if _, ok := parents[*parentID]; !ok {
			return nil, notFoundf("parent group %d", *parentID)
		}
		if *parentID == groupID || wouldCycle(parents, groupID, *parentID) {
			return nil, validationf("group %d cannot be moved under its own descendant %d", groupID, *parentID)
		}
		g.ParentID = parentID
	}
	if name != nil {
		if *name == "" {
			return nil, validationf("group name required")
		}
		g.Name = *name
	}

	if _, err := tx.Exec(ctx,
		"UPDATE groups SET parent_id = $1, name = $2 WHERE id = $3",
		g.ParentID, g.Name, groupID,
	); err != nil {
		return nil, fmt.Errorf("failed to update group: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit group update: %w", err)
	}
	return &g, nil
}

func (s *groupService) DeleteGroup(ctx context.Context, companyID, groupID int) error {
	if err := s.checkGroup(ctx, companyID, groupID); err != nil {
		return err
	}
	// Children are reparented to root by the ON DELETE SET NULL constraint.
	if _, err := s.pool.Exec(ctx, "DELETE FROM groups WHERE id = $1", groupID); err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return nil
}
