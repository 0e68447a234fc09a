package database

import (
	"database/sql"
	"fmt"

	"github.com/elitetransport/booking-backend/internal/models"
)

// RouteRepository handles route_groups and routes database operations
type RouteRepository struct {
	db DB
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// ListGroups retrieves all route groups ordered by key
func (r *RouteRepository) ListGroups() ([]models.RouteGroup, error) {
	var groups []models.RouteGroup

	query := `
		SELECT id, key, name, description
		FROM route_groups
		ORDER BY key
	`

	if err := r.db.Select(&groups, query); err != nil {
		return nil, fmt.Errorf("failed to list route groups: %w", err)
	}

	return groups, nil
}

// ListRoutes retrieves all routes ordered by group and name
func (r *RouteRepository) ListRoutes() ([]models.Route, error) {
	var routes []models.Route

	query := `
		SELECT id, group_id, name, description
		FROM routes
		ORDER BY group_id, name
	`

	if err := r.db.Select(&routes, query); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}

	return routes, nil
}

// GetRouteByID retrieves a route by ID, returning nil when not found
func (r *RouteRepository) GetRouteByID(id int64) (*models.Route, error) {
	var route models.Route

	query := `
		SELECT id, group_id, name, description
		FROM routes
		WHERE id = $1
	`

	err := r.db.Get(&route, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get route by ID: %w", err)
	}

	return &route, nil
}

// GetRouteName returns the route name for a bus, preferring the routes
// table and falling back to the bus's own route_text
func (r *RouteRepository) GetRouteName(busID int64) (string, error) {
	var name string

	query := `
		SELECT COALESCE(rt.name, b.route_text, '')
		FROM buses b
		LEFT JOIN routes rt ON rt.id = b.route_id
		WHERE b.id = $1
	`

	err := r.db.QueryRow(query, busID).Scan(&name)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", fmt.Errorf("failed to get route name: %w", err)
	}

	return name, nil
}

// CountRoutes returns the total number of routes
func (r *RouteRepository) CountRoutes() (int, error) {
	var count int

	query := `SELECT COUNT(*) FROM routes`

	if err := r.db.QueryRow(query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count routes: %w", err)
	}

	return count, nil
}
