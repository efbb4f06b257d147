package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testRegistry() Registry {
	return Registry{
		"Global": {
			{ID: "EV_0001", Name: "score", Category: "Global"},
			{ID: "EV_0002", Name: "round", Category: "Global"},
		},
		"Player": {
			{ID: "EV_0003", Name: "kills", Category: "Player"},
		},
		"Team": {},
	}
}

func TestRegistryLenAndFind(t *testing.T) {
	reg := testRegistry()
	assert.Equal(t, 3, reg.Len())

	rec, ok := reg.Find("EV_0003")
	assert.True(t, ok)
	assert.Equal(t, "kills", rec.Name)

	_, ok = reg.Find("EV_9999")
	assert.False(t, ok)
}

func TestRegistryCloneIsDeep(t *testing.T) {
	reg := testRegistry()
	clone := reg.Clone()
	clone["Global"][0].Name = "changed"

	assert.Equal(t, "score", reg["Global"][0].Name)
}

func TestRegistryRecordsOrder(t *testing.T) {
	recs := testRegistry().Records()
	ids := make([]VarID, len(recs))
	for i, r := range recs {
		ids[i] = r.ID
	}
	assert.Equal(t, []VarID{"EV_0001", "EV_0002", "EV_0003"}, ids)
}

func TestRegistryIDSetSkipsEmpty(t *testing.T) {
	set := testRegistry().IDSet()
	assert.Len(t, set, 2)
	assert.Equal(t, []VarID{"EV_0001", "EV_0002"}, set["Global"])
}

func TestNameKey(t *testing.T) {
	assert.Equal(t, NameKey("score"), NameKey("SCORE"))
	assert.Equal(t, NameKey("score"), NameKey("  Score "))
	assert.Equal(t, NameKey("café"), NameKey("CAFÉ"))
	assert.NotEqual(t, NameKey("score"), NameKey("scores"))
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "score", CleanName("  score\t"))
	assert.Equal(t, "é", CleanName("é"))
}

func TestVariableRecordString(t *testing.T) {
	rec := VariableRecord{ID: "EV_0007", Name: "speed", Category: "Vehicle"}
	assert.Equal(t, "Vehicle/speed (EV_0007)", rec.String())
}
