package repository

import (
	"context"
	"fmt"

	"github.com/elparchetipk/sicora-app-sub000/internal/model"
	"github.com/elparchetipk/sicora-app-sub000/internal/repository/base"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type VenueRepository struct {
	*base.Repository
}

func NewVenueRepository(pool *pgxpool.Pool) *VenueRepository {
	return &VenueRepository{Repository: base.NewRepository(pool)}
}

// GetByID получает аудиторию по ID
func (r *VenueRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Venue, error) {
	query := `
		SELECT id, name, capacity, is_active
		FROM venues
		WHERE id = $1
	`

	var venue model.Venue
	err := r.QueryRow(ctx, query, id).Scan(&venue.ID, &venue.Name, &venue.Capacity, &venue.IsActive)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get venue by id: %w", err)
	}

	return &venue, nil
}
