package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKey(t *testing.T) {
	assert.Equal(t, "orgcal:avail:busy:org:1", Key("avail", "busy", "org:1"))
	assert.Equal(t, "orgcal:", Key())
}
