package blob

import (
	"proteomecore/internal/infra/blob/fs"
)

// NewFilesystem constructs a Store rooted at dir.
func NewFilesystem(dir string) (Store, error) {
	return fs.New(dir)
}
