package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyDeterministic(t *testing.T) {
	a := Key("analytics:filter", map[string]string{"start": "2025-06-01", "end": "2025-06-07", "group_by": "day"})
	b := Key("analytics:filter", map[string]string{"group_by": "day", "end": "2025-06-07", "start": "2025-06-01"})
	assert.Equal(t, a, b, "key must not depend on map iteration order")
}

func TestKeyDistinguishesParams(t *testing.T) {
	base := Key("analytics:filter", map[string]string{"start": "2025-06-01"})
	changed := Key("analytics:filter", map[string]string{"start": "2025-06-02"})
	extra := Key("analytics:filter", map[string]string{"start": "2025-06-01", "end": "2025-06-02"})

	assert.NotEqual(t, base, changed)
	assert.NotEqual(t, base, extra)
}

func TestKeyDistinguishesOps(t *testing.T) {
	params := map[string]string{"start": "2025-06-01"}
	assert.NotEqual(t, Key("analytics:filter", params), Key("analytics:top", params))
}

func TestKeyWithoutParams(t *testing.T) {
	assert.Equal(t, "restaurants:locations", Key("restaurants:locations", nil))
}
