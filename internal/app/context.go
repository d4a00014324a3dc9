package app

import (
	"github.com/lanshare/lanshare/internal/config"
	"github.com/lanshare/lanshare/internal/domain"
	"github.com/lanshare/lanshare/internal/index"
	"github.com/lanshare/lanshare/internal/logger"
)

// IndexCache is what the server needs from the directory indexer. Keeping it
// an interface lets handler tests substitute a canned listing.
type IndexCache interface {
	Get(root string) ([]domain.DirectoryEntry, string, error)
	Invalidate(root string)
}

// Context holds the shared environment for the serving side. The index cache
// lives here, constructed once and injected, rather than as package state.
type Context struct {
	Config *config.Config
	Logger *logger.Logger
	Index  IndexCache

	// ShareDir is the root being exposed. Kept separate from Config so the
	// CLI can override it per invocation.
	ShareDir string
}

// NewContext initializes the base serving environment.
func NewContext(cfg *config.Config, log *logger.Logger, shareDir string) *Context {
	return &Context{
		Config:   cfg,
		Logger:   log,
		Index:    index.NewCache(cfg.Share.CacheTTLDuration()),
		ShareDir: shareDir,
	}
}
