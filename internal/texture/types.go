package texture

import (
	"context"
	"errors"
	"time"
)

// DefaultSearchLimit caps query result sets when the caller does not
// specify a limit.
const DefaultSearchLimit = 1000

// ErrNotFound is returned by Repository.GetByPath when no record exists
// for the requested path.
var ErrNotFound = errors.New("texture record not found")

// Record is one indexed texture file.
type Record struct {
	ID          int64     `json:"id,omitempty"`
	Path        string    `json:"path"`
	Filename    string    `json:"filename"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory"`
	FileSize    int64     `json:"fileSize"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Format      string    `json:"format"`
	ContentHash string    `json:"contentHash"`
	CreatedAt   time.Time `json:"createdAt"`
	ModifiedAt  time.Time `json:"modifiedAt"`
}

// SearchOptions is a conjunction of optional predicates. Zero values mean
// "no constraint": empty strings skip the string predicates, zero bounds
// skip the dimension predicates, and a zero Limit falls back to
// DefaultSearchLimit.
type SearchOptions struct {
	Filename    string `json:"filename,omitempty"`
	Category    string `json:"category,omitempty"`
	Subcategory string `json:"subcategory,omitempty"`
	Format      string `json:"format,omitempty"`
	MinWidth    int    `json:"minWidth,omitempty"`
	MaxWidth    int    `json:"maxWidth,omitempty"`
	MinHeight   int    `json:"minHeight,omitempty"`
	MaxHeight   int    `json:"maxHeight,omitempty"`
	Limit       int    `json:"limit,omitempty"`
}

// Stats summarizes the index contents.
type Stats struct {
	TotalTextures int            `json:"totalTextures"`
	ByCategory    map[string]int `json:"byCategory"`
	ByFormat      map[string]int `json:"byFormat"`
	AvgWidth      float64        `json:"avgWidth"`
	AvgHeight     float64        `json:"avgHeight"`
	AvgFileSize   float64        `json:"avgFileSize"`
}

// Repository is the capability set the rest of the application depends on:
// upsert by path, lookup by path, conjunction-filter query, full dump for
// export, and aggregate statistics. Flush commits any writes the
// implementation has buffered; implementations without write batching may
// make it a no-op.
//
// The scanner and indexer only ever see this interface, so they can be
// tested against an in-memory implementation.
type Repository interface {
	Upsert(ctx context.Context, rec *Record) error
	GetByPath(ctx context.Context, path string) (*Record, error)
	Search(ctx context.Context, opts SearchOptions) ([]Record, error)
	All(ctx context.Context) ([]Record, error)
	Stats(ctx context.Context) (*Stats, error)
	Flush(ctx context.Context) error
}
