package storage

import (
	"context"

	"github.com/bunchhieng/uuidspace/internal/model"
)

// Storage defines the interface for favorite storage operations.
// Favorites are keyed by identifier.
type Storage interface {
	// Add stars an identifier. Returns model.ErrDuplicate if it is already starred.
	Add(ctx context.Context, fav *model.Favorite) (*model.Favorite, error)

	// Get retrieves a favorite by identifier.
	Get(ctx context.Context, identifier string) (*model.Favorite, error)

	// Has reports whether identifier is starred.
	Has(ctx context.Context, identifier string) (bool, error)

	// List retrieves favorites with optional filters, newest first.
	List(ctx context.Context, opts ListOptions) ([]*model.Favorite, error)

	// Remove unstars an identifier.
	Remove(ctx context.Context, identifier string) error

	// Export returns all favorites for export.
	Export(ctx context.Context) ([]*model.Favorite, error)

	// Import adds favorites from a slice, keeping existing entries.
	Import(ctx context.Context, favs []*model.Favorite) (int, error)

	// Close closes the storage connection.
	Close() error
}

// ListOptions specifies filtering options for List.
type ListOptions struct {
	Format string
	Limit  int
}
