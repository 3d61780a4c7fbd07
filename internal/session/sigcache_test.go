package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignatureCacheAdd(t *testing.T) {
	c := newSignatureCache(4)
	assert.True(t, c.add("A2|=SUM(1)|parse"))
	assert.False(t, c.add("A2|=SUM(1)|parse"))
	assert.Equal(t, 1, c.len())
}

func TestSignatureCacheEviction(t *testing.T) {
	c := newSignatureCache(3)
	for i := 0; i < 3; i++ {
		c.add(fmt.Sprintf("A%d|=f|kind", i+2))
	}
	assert.Equal(t, 3, c.len())

	// inserting past capacity evicts the oldest entry
	assert.True(t, c.add("B2|=f|kind"))
	assert.Equal(t, 3, c.len())
	assert.True(t, c.add("A2|=f|kind"), "the evicted signature reads as new again")
}

func TestSignatureCacheForgetCell(t *testing.T) {
	c := newSignatureCache(8)
	c.add("A2|=f|parse")
	c.add("A2|=g|parse")
	c.add("B2|=f|parse")

	c.forgetCell("A2")
	assert.Equal(t, 1, c.len())
	assert.True(t, c.add("A2|=f|parse"))
	assert.False(t, c.add("B2|=f|parse"), "other cells keep their signatures")
}

func TestSignatureCacheZeroCapacityDefaults(t *testing.T) {
	c := newSignatureCache(0)
	assert.True(t, c.add("A2|=f|parse"))
	assert.False(t, c.add("A2|=f|parse"))
}
