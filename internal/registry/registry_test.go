package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookup_KnownModelReturnsEndpoint(t *testing.T) {
	e, ok := Lookup("ecmwf")
	assert.True(t, ok)
	assert.Equal(t, "ecmwf_ifs04", e.ModelID)
	assert.True(t, e.NeedsModelsParam)
}

func TestLookup_UnknownModelReturnsFalse(t *testing.T) {
	_, ok := Lookup("not-a-model")
	assert.False(t, ok)
}

func TestAll_ReturnsEveryRegisteredModel(t *testing.T) {
	all := All()
	assert.Contains(t, all, "ecmwf")
	assert.Contains(t, all, "gfs")
	assert.Len(t, all, len(registered))
}
