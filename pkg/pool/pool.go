// Package pool provides object pooling for the line converter to reduce
// allocations.
//
// Converting a large batch of recipes builds many short-lived strings and
// line slices. Pooling reuses them instead of allocating new ones for every
// line.
//
// Pooled objects:
// - String builders (abbreviation normalisation)
// - Line slices (recipe assembly)
//
// Usage:
//
//	b := pool.GetBuilder()
//	defer pool.PutBuilder(b)
//	b.WriteString("1 cup flour")
package pool

import (
	"sync"
)

// PoolConfig configures object pooling behavior.
type PoolConfig struct {
	// Enabled controls whether pooling is active
	Enabled bool

	// MaxCapacity is the largest object, in bytes or elements, that is
	// returned to a pool. Larger ones are left to the GC.
	MaxCapacity int
}

var globalConfig = PoolConfig{
	Enabled:     true,
	MaxCapacity: 64 * 1024,
}

// Configure sets global pool configuration.
// Should be called early during initialization.
func Configure(config PoolConfig) {
	globalConfig = config
}

// IsEnabled returns whether pooling is enabled.
func IsEnabled() bool {
	return globalConfig.Enabled
}

// =============================================================================
// String Builder Pool
// =============================================================================

var builderPool = sync.Pool{
	New: func() any {
		return &Builder{buf: make([]byte, 0, 256)}
	},
}

// Builder is a poolable string builder. Unlike strings.Builder it keeps its
// buffer across Reset, and String copies.
type Builder struct {
	buf []byte
}

// WriteString appends a string to the builder.
func (b *Builder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteByte appends a byte to the builder.
func (b *Builder) WriteByte(c byte) {
	b.buf = append(b.buf, c)
}

// String returns the built string.
func (b *Builder) String() string {
	return string(b.buf)
}

// Len returns current length.
func (b *Builder) Len() int {
	return len(b.buf)
}

// Reset clears the builder for reuse.
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

// GetBuilder returns an empty string builder. Call PutBuilder when done.
func GetBuilder() *Builder {
	if !globalConfig.Enabled {
		return &Builder{buf: make([]byte, 0, 256)}
	}
	b := builderPool.Get().(*Builder)
	b.Reset()
	return b
}

// PutBuilder returns a string builder to the pool.
func PutBuilder(b *Builder) {
	if !globalConfig.Enabled || b == nil {
		return
	}
	if cap(b.buf) > globalConfig.MaxCapacity { // Don't pool huge buffers
		return
	}
	b.Reset()
	builderPool.Put(b)
}

// =============================================================================
// Line Slice Pool
// =============================================================================

var linePool = sync.Pool{
	New: func() any {
		s := make([]string, 0, 32)
		return &s
	},
}

// GetLines returns an empty line slice. Call PutLines when done.
func GetLines() *[]string {
	if !globalConfig.Enabled {
		s := make([]string, 0, 32)
		return &s
	}
	s := linePool.Get().(*[]string)
	*s = (*s)[:0]
	return s
}

// PutLines returns a line slice to the pool.
func PutLines(s *[]string) {
	if !globalConfig.Enabled || s == nil {
		return
	}
	if cap(*s) > globalConfig.MaxCapacity {
		return
	}
	clear(*s)
	*s = (*s)[:0]
	linePool.Put(s)
}
