package client

// Chunk size floors and ceilings for adaptive streaming.
const (
	minChunk        = 32 << 10
	maxChunk        = 8 << 20
	minArchiveChunk = 1 << 20
)

// InitialChunkSize picks the starting read size by total transfer size:
// 64KB under 1MB, 1MB under 100MB, 4MB beyond.
func InitialChunkSize(totalSize int64) int {
	switch {
	case totalSize < 1<<20:
		return 64 << 10
	case totalSize < 100<<20:
		return 1 << 20
	default:
		return 4 << 20
	}
}

// NextChunkSize recomputes the chunk from observed throughput: halve on a
// slow link (<100KB/s), double on a fast one (>10MB/s), otherwise keep it.
// Pure function; the engine calls it periodically during streaming.
func NextChunkSize(current int, bytesPerSec float64) int {
	if bytesPerSec < 100<<10 {
		if half := current / 2; half > minChunk {
			return half
		}
		return minChunk
	}
	if bytesPerSec > 10<<20 {
		if doubled := current * 2; doubled < maxChunk {
			return doubled
		}
		return maxChunk
	}
	return current
}

// NextArchiveChunkSize is the archive-stream variant with larger bounds:
// double above 20MB/s up to 8MB, halve below 1MB/s down to 1MB.
func NextArchiveChunkSize(current int, bytesPerSec float64) int {
	if bytesPerSec > 20<<20 {
		if doubled := current * 2; doubled < maxChunk {
			return doubled
		}
		return maxChunk
	}
	if bytesPerSec < 1<<20 {
		if half := current / 2; half > minArchiveChunk {
			return half
		}
		return minArchiveChunk
	}
	return current
}
