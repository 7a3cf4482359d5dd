package segment

import (
	"sort"
	"sync"
)

// Index is the bidirectional mapping between files and the segments whose
// closures currently contain them. The two maps are exact inverses at all
// times; membership is replaced wholesale by the closure builder's commit.
type Index struct {
	mu           sync.RWMutex
	fileSegments map[string]map[string]bool
	segmentFiles map[string]map[string]bool
}

func NewIndex() *Index {
	return &Index{
		fileSegments: make(map[string]map[string]bool),
		segmentFiles: make(map[string]map[string]bool),
	}
}

// ReplaceMembership clears the segment's prior membership from both sides and
// installs the new member set, so removed dependencies promptly stop
// contributing to fan-out calculations.
func (ix *Index) ReplaceMembership(id string, files []string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	ix.removeLocked(id)

	members := make(map[string]bool, len(files))
	for _, f := range files {
		members[f] = true
		segs := ix.fileSegments[f]
		if segs == nil {
			segs = make(map[string]bool)
			ix.fileSegments[f] = segs
		}
		segs[id] = true
	}
	ix.segmentFiles[id] = members
}

// Remove drops the segment and all of its membership facts.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.removeLocked(id)
}

func (ix *Index) removeLocked(id string) {
	for f := range ix.segmentFiles[id] {
		delete(ix.fileSegments[f], id)
		if len(ix.fileSegments[f]) == 0 {
			delete(ix.fileSegments, f)
		}
	}
	delete(ix.segmentFiles, id)
}

// SegmentsOf returns the sorted ids of segments containing the file.
func (ix *Index) SegmentsOf(path string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedKeys(ix.fileSegments[path])
}

// Members returns the sorted member files of a segment.
func (ix *Index) Members(id string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return sortedKeys(ix.segmentFiles[id])
}

// SegmentsForFiles returns the sorted union of segments containing any of the
// given files; this is the impacted set for a content-only change batch.
func (ix *Index) SegmentsForFiles(paths []string) []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	union := make(map[string]bool)
	for _, p := range paths {
		for id := range ix.fileSegments[p] {
			union[id] = true
		}
	}
	return sortedKeys(union)
}

func sortedKeys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
