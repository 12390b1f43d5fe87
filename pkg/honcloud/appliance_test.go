package honcloud

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplianceGetDottedPath(t *testing.T) {

	a := NewAppliance("id-1", "SER1", "Washer", TYPE_WASHING_MACHINE)
	a.ReplaceAttributes(map[string]any{
		"machMode": "2",
		"lastConnEvent": map[string]any{
			"category": "CONNECTED",
		},
	})

	assert.Equal(t, "2", a.Get("machMode"))
	assert.Equal(t, "CONNECTED", a.Get("lastConnEvent.category"))

	// missing leaf and missing intermediate segment
	assert.Nil(t, a.Get("lastConnEvent.instantTime"))
	assert.Nil(t, a.Get("noSuchEvent.category"))
	assert.Nil(t, a.Get("machMode.nested"), "scalar segments do not nest")

	a.SetAttribute("program.phase.name", "spin")
	assert.Equal(t, "spin", a.Get("program.phase.name"))
}

func TestApplianceGetIntConversions(t *testing.T) {

	a := NewAppliance("id-1", "SER1", "Washer", TYPE_WASHING_MACHINE)
	a.ReplaceAttributes(map[string]any{
		"asString": "3",
		"asFloat":  float64(4),
		"asBool":   true,
		"garbage":  "not-a-number",
	})

	assert.Equal(t, 3, a.GetInt("asString", -1))
	assert.Equal(t, 4, a.GetInt("asFloat", -1))
	assert.Equal(t, 1, a.GetInt("asBool", -1))
	assert.Equal(t, -1, a.GetInt("garbage", -1))
	assert.Equal(t, -1, a.GetInt("missing", -1))
}

func TestSyncCommandToSettings(t *testing.T) {

	a := NewAppliance("id-1", "SER1", "Washer", TYPE_WASHING_MACHINE)
	a.AddCommand(&Command{
		Name: COMMAND_SETTINGS,
		Parameters: map[string]Parameter{
			"delayTime": NewRangeParameter("delayTime", 0, 0, 24, 1),
			"ecoMode":   NewEnumParameter("ecoMode", "0", []string{"0", "1"}),
		},
	})
	a.AddCommand(&Command{
		Name: COMMAND_START_PROGRAM,
		Parameters: map[string]Parameter{
			"delayTime": NewRangeParameter("delayTime", 6, 0, 24, 1),
			"prewash":   NewEnumParameter("prewash", "1", []string{"0", "1"}),
		},
	})

	a.SyncCommandToSettings(COMMAND_START_PROGRAM)

	settings, ok := a.Command(COMMAND_SETTINGS)
	if !ok {
		t.Fatal("settings command missing")
	}
	assert.Equal(t, "6", settings.Parameters["delayTime"].Value(), "shared parameter copied over")
	assert.Equal(t, "0", settings.Parameters["ecoMode"].Value(), "unrelated parameter untouched")
	_, hasPrewash := settings.Parameters["prewash"]
	assert.False(t, hasPrewash, "parameters unknown to settings are not created")

	// unknown source command is a no op
	a.SyncCommandToSettings("noSuchCommand")
	assert.Equal(t, "6", settings.Parameters["delayTime"].Value())
}

func TestRangeParameterSetValue(t *testing.T) {

	p := NewRangeParameter("spinSpeed", 800, 0, 1400, 200)

	assert.NoError(t, p.SetValue("1400"))
	assert.Equal(t, "1400", p.Value())

	assert.Error(t, p.SetValue("1600"), "above max")
	assert.Error(t, p.SetValue("-200"), "below min")
	assert.Error(t, p.SetValue("fast"), "not a number")
	assert.Equal(t, "1400", p.Value(), "rejected writes leave the value alone")

	assert.Equal(t, []float64{0, 200, 400, 600, 800, 1000, 1200, 1400}, p.Values())
}

func TestEnumParameterSetValue(t *testing.T) {

	p := NewEnumParameter("prewash", "0", []string{"0", "1"})

	assert.NoError(t, p.SetValue("1"))
	assert.Equal(t, "1", p.Value())

	assert.Error(t, p.SetValue("2"))
	assert.Equal(t, "1", p.Value())
}

func TestFixedParameterIsReadOnly(t *testing.T) {

	p := NewFixedParameter("program", "cotton")

	err := p.SetValue("wool")
	assert.ErrorIs(t, err, ErrReadOnlyParameter)
	assert.Equal(t, "cotton", p.Value())
}
