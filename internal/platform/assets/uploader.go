package assets

import (
	"context"

	"github.com/stayvista/stayvista-api/internal/domain"
)

// Uploader is the boundary over the remote asset host: store bytes, get back
// a durable URL. The rest of the system depends on nothing else about it.
type Uploader interface {
	Upload(ctx context.Context, img domain.ImageFile) (string, error)
}
