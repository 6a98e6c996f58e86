package handlers

import (
	"texture-index/internal/indexer"
	"texture-index/internal/media"
	"texture-index/internal/startup"
	"texture-index/internal/texture"
)

type Handlers struct {
	repo       texture.Repository
	indexer    *indexer.Indexer
	thumbGen   *media.ThumbnailGenerator
	textureDir string
}

func New(repo texture.Repository, idx *indexer.Indexer, thumbGen *media.ThumbnailGenerator, config *startup.Config) *Handlers {
	return &Handlers{
		repo:       repo,
		indexer:    idx,
		thumbGen:   thumbGen,
		textureDir: config.TextureDir,
	}
}
