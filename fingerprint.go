package smelt

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Fingerprinter produces deterministic hex fingerprints of raw schema
// trees. Structurally equal trees fingerprint identically regardless
// of map iteration order, which makes the fingerprint usable as a
// cache key.
type Fingerprinter struct {
	maxDepth int // guardrail for pathological trees
}

// NewFingerprinter creates a fingerprinter.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{maxDepth: 1000}
}

// Fingerprint returns the hex fingerprint of a raw schema tree.
func (fp *Fingerprinter) Fingerprint(raw any) string {
	ctx := &canonCtx{
		inProgress: make(map[inputID]int, 16),
		nextID:     1,
		maxDepth:   fp.maxDepth,
	}
	var b strings.Builder
	encodeRaw(raw, ctx, &b)
	sum := sha256.Sum256([]byte(b.String()))
	return fmt.Sprintf("%x", sum[:])
}

// canonCtx holds state for a single canonicalization traversal.
type canonCtx struct {
	inProgress map[inputID]int // cycle detection: value identity → cycle ID
	nextID     int
	depth      int
	maxDepth   int
}

// encodeRaw writes a canonical representation of one raw tree node.
// Mapping keys are sorted so the encoding is iteration-order free, and
// shared or cyclic nodes encode as stable cycle markers.
func encodeRaw(v any, ctx *canonCtx, b *strings.Builder) {
	ctx.depth++
	defer func() { ctx.depth-- }()
	if ctx.depth > ctx.maxDepth {
		b.WriteString(`{"$max_depth":true}`)
		return
	}

	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case string:
		b.WriteString(strconv.Quote(t))
	case bool:
		b.WriteString(strconv.FormatBool(t))
	case map[string]any:
		id, hasID := identify(t)
		if hasID {
			if cid, busy := ctx.inProgress[id]; busy {
				fmt.Fprintf(b, `{"$cycle":%d}`, cid)
				return
			}
			ctx.inProgress[id] = ctx.nextID
			ctx.nextID++
			defer delete(ctx.inProgress, id)
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Quote(k))
			b.WriteByte(':')
			encodeRaw(t[k], ctx, b)
		}
		b.WriteByte('}')
	case []any:
		id, hasID := identify(t)
		if hasID {
			if cid, busy := ctx.inProgress[id]; busy {
				fmt.Fprintf(b, `{"$cycle":%d}`, cid)
				return
			}
			ctx.inProgress[id] = ctx.nextID
			ctx.nextID++
			defer delete(ctx.inProgress, id)
		}
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			encodeRaw(e, ctx, b)
		}
		b.WriteByte(']')
	default:
		// numeric and other scalar leaves
		fmt.Fprintf(b, "%v", t)
	}
}

// ValidatorCache builds validators on demand and reuses them by schema
// fingerprint. Safe for concurrent use.
type ValidatorCache struct {
	mu    sync.RWMutex
	fp    *Fingerprinter
	opts  Options
	cache map[string]*Validator
}

// NewValidatorCache creates a cache whose validators are built with the
// given options.
func NewValidatorCache(opts Options) *ValidatorCache {
	return &ValidatorCache{
		fp:    NewFingerprinter(),
		opts:  opts,
		cache: make(map[string]*Validator, 16),
	}
}

// GetOrBuild returns the cached validator for the raw tree's
// fingerprint, building and caching one on a miss. Build failures are
// not cached; a corrected tree fingerprints differently anyway.
func (c *ValidatorCache) GetOrBuild(raw any) (*Validator, error) {
	key := c.fp.Fingerprint(raw)

	c.mu.RLock()
	v, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return v, nil
	}

	v, err := NewWithOptions(raw, c.opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// another goroutine may have built it in the interim; keep the
	// first stored validator so callers share one instance
	if prev, ok := c.cache[key]; ok {
		v = prev
	} else {
		c.cache[key] = v
	}
	c.mu.Unlock()
	return v, nil
}

// Len reports the number of cached validators.
func (c *ValidatorCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cache)
}

// Reset clears the cache.
func (c *ValidatorCache) Reset() {
	c.mu.Lock()
	c.cache = make(map[string]*Validator, 16)
	c.mu.Unlock()
}
