package glideterm

// ChunkBufferLines is the number of buffer lines materialized into one
// render chunk.
const ChunkBufferLines = 100

// maxChunks bounds cache residency; beyond it the least-recently-touched
// chunk is evicted.
const maxChunks = 30

// RenderChunk is a pre-computed span of renderable cells covering a
// contiguous range of buffer lines, cached to absorb animation-frame-rate
// re-reads during smooth scrolling.
type RenderChunk struct {
	// StartLine is the first buffer line (1-based) the chunk covers.
	StartLine int
	// Lines is how many buffer lines the chunk covers.
	Lines int
	// Cells holds the chunk's renderable content, line-relative to StartLine.
	Cells []RenderableCell

	lastAccess int64
}

// Contains reports whether the chunk covers the given buffer line.
func (c *RenderChunk) Contains(line int) bool {
	return line >= c.StartLine && line < c.StartLine+c.Lines
}

// ChunkCache is a fixed-capacity cache of render chunks with
// least-recently-used eviction. There is no partial invalidation: a stale
// chunk must be dropped by the caller (or the whole cache cleared on major
// content changes such as a buffer switch).
//
// The cache is presentation-tick-owned and not safe for concurrent use.
type ChunkCache struct {
	chunks   []*RenderChunk
	capacity int
	clock    int64 // logical access counter, monotonic
}

// NewChunkCache returns an empty cache with the default capacity.
func NewChunkCache() *ChunkCache {
	return NewChunkCacheSize(maxChunks)
}

// NewChunkCacheSize returns an empty cache holding at most capacity chunks.
// A capacity below one is treated as one.
func NewChunkCacheSize(capacity int) *ChunkCache {
	if capacity < 1 {
		capacity = 1
	}
	return &ChunkCache{capacity: capacity}
}

// Get returns the resident chunk covering the given buffer line and
// refreshes its recency. A miss returns nil; the caller materializes the
// span and Inserts it.
func (cc *ChunkCache) Get(line int) *RenderChunk {
	for _, c := range cc.chunks {
		if c.Contains(line) {
			cc.clock++
			c.lastAccess = cc.clock
			return c
		}
	}
	return nil
}

// Insert adds a chunk, evicting the least-recently-touched resident chunk
// first if the cache is full. The new chunk starts as most recent.
func (cc *ChunkCache) Insert(chunk *RenderChunk) {
	for len(cc.chunks) >= cc.capacity {
		cc.evictOldest()
	}
	cc.clock++
	chunk.lastAccess = cc.clock
	cc.chunks = append(cc.chunks, chunk)
}

// Drop removes any resident chunk covering the given buffer line. Used when
// the caller knows a span went stale.
func (cc *ChunkCache) Drop(line int) {
	for i, c := range cc.chunks {
		if c.Contains(line) {
			cc.chunks = append(cc.chunks[:i], cc.chunks[i+1:]...)
			return
		}
	}
}

// Clear drops every resident chunk.
func (cc *ChunkCache) Clear() {
	cc.chunks = nil
}

// Len returns the number of resident chunks.
func (cc *ChunkCache) Len() int {
	return len(cc.chunks)
}

func (cc *ChunkCache) evictOldest() {
	if len(cc.chunks) == 0 {
		return
	}
	oldest := 0
	for i, c := range cc.chunks {
		if c.lastAccess < cc.chunks[oldest].lastAccess {
			oldest = i
		}
	}
	cc.chunks = append(cc.chunks[:oldest], cc.chunks[oldest+1:]...)
}
