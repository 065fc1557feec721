package repository

import (
	"context"
	"fmt"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/elparchetipk/sicora-app-sub000/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GroupRepository чтение справочника учебных групп
type GroupRepository struct {
	*base.Repository
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{Repository: base.NewRepository(pool)}
}

// GetByID получает группу по ID
func (r *GroupRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AcademicGroup, error) {
	query := `
		SELECT id, name, is_active
		FROM academic_groups
		WHERE id = $1
	`

	var group model.AcademicGroup
	err := r.QueryRow(ctx, query, id).Scan(&group.ID, &group.Name, &group.IsActive)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get academic group by id: %w", err)
	}

	return &group, nil
}
