package session

import "strings"

// signatureCache is a bounded insertion-ordered set of formula-error
// signatures (cell|formula|kind). It exists so the same broken formula
// is not re-analyzed on every recalculation; entries for a cell are
// dropped when that cell's content changes.
type signatureCache struct {
	max   int
	order []string
	seen  map[string]struct{}
}

func newSignatureCache(max int) *signatureCache {
	if max <= 0 {
		max = 256
	}
	return &signatureCache{max: max, seen: make(map[string]struct{})}
}

// add inserts the key and reports true when it was not present. At
// capacity the oldest entry is evicted first.
func (c *signatureCache) add(key string) bool {
	if _, ok := c.seen[key]; ok {
		return false
	}
	for len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.seen, oldest)
	}
	c.order = append(c.order, key)
	c.seen[key] = struct{}{}
	return true
}

// forgetCell removes every signature recorded for the given cell ref.
func (c *signatureCache) forgetCell(cellRef string) {
	prefix := cellRef + "|"
	kept := c.order[:0]
	for _, k := range c.order {
		if strings.HasPrefix(k, prefix) {
			delete(c.seen, k)
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
}

// len reports the number of cached signatures.
func (c *signatureCache) len() int { return len(c.order) }
