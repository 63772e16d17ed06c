package config

import "context"

// Loader turns chain documents on disk into the format-agnostic model.
// Implementations own file discovery and syntax; the model they return is
// everything the chain builder sees.
type Loader interface {
	Load(ctx context.Context, paths ...string) (*Model, error)
}
