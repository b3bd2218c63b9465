// raft/util.go
package raft

import (
	"crypto/rand"
	"encoding/binary"
)

// min returns the minimum of two uint64 values
func min(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

// max returns the maximum of two uint64 values
func max(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// randomInt returns a random integer in [lo, hi)
func randomInt(lo, hi int) int {
	if lo >= hi {
		return lo
	}

	var n uint32
	binary.Read(rand.Reader, binary.BigEndian, &n)
	return lo + int(n)%(hi-lo)
}

// chunkEntries splits entries into runs whose cumulative Size() does not
// exceed maxBytes, used by catchUpSender.SendLogRange to respect
// Config.ThriftMaxFrameSize when replaying a log range. A single entry
// larger than maxBytes forms a chunk of its own.
func chunkEntries(entries []*Entry, maxBytes int) [][]*Entry {
	if len(entries) == 0 {
		return nil
	}
	if maxBytes <= 0 {
		return [][]*Entry{entries}
	}

	var chunks [][]*Entry
	start := 0
	size := 0
	for i, e := range entries {
		entrySize := e.Size()
		if size > 0 && size+entrySize > maxBytes {
			chunks = append(chunks, entries[start:i])
			start = i
			size = 0
		}
		size += entrySize
	}
	chunks = append(chunks, entries[start:])
	return chunks
}
