package search

import (
	"github.com/UBH-Fall-2024/FileSeekr/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
// Space hooks may be called concurrently.
type SearchMonitor interface {
	Start(query string)
	AfterEmbedding(space core.SpaceID)
	AfterSpaceQuery(space core.SpaceID, hits []core.Hit)
	Failed(err error)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                               {}
func (n *noopMonitor) AfterEmbedding(_ core.SpaceID)                {}
func (n *noopMonitor) AfterSpaceQuery(_ core.SpaceID, _ []core.Hit) {}
func (n *noopMonitor) Failed(_ error)                               {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                {}
