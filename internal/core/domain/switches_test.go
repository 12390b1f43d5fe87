package domain

import (
	"context"
	"testing"

	"hon2mqtt/pkg/honcloud"

	"github.com/stretchr/testify/assert"
)

func TestWasherDryerTableUnion(t *testing.T) {

	assert := assert.New(t)

	table := Switches[honcloud.TYPE_WASHER_DRYER]

	keys := map[string]int{}
	for _, desc := range table {
		keys[desc.Key]++
	}

	// own entries come first
	assert.Equal("active", table[0].Id)
	assert.Equal("Washer Dryer", table[0].Name)

	// washer and dryer options are merged in
	assert.Contains(keys, "startProgram.prewash", "washer option")
	assert.Contains(keys, "startProgram.sterilizationStatus", "dryer option")

	// overlapping keys appear only once
	for key, count := range keys {
		assert.Equal(1, count, "duplicate key %s", key)
	}
}

func TestUniqueSwitches(t *testing.T) {

	assert := assert.New(t)

	base := []SwitchDescription{
		{Id: "a", Key: "keyA"},
		{Id: "b", Key: "keyB"},
	}
	extra := []SwitchDescription{
		{Id: "b2", Key: "keyB"},
		{Id: "c", Key: "keyC"},
	}

	merged := UniqueSwitches(base, extra)

	assert.Len(merged, 3)
	assert.Equal("a", merged[0].Id)
	assert.Equal("b", merged[1].Id)
	assert.Equal("c", merged[2].Id)
}

func TestSettingKey(t *testing.T) {

	assert := assert.New(t)

	setting := SwitchDescription{Key: "ecoMode", Kind: SwitchKindSetting}
	config := SwitchDescription{Key: "startProgram.prewash", Kind: SwitchKindConfig}

	assert.Equal("settings.ecoMode", setting.SettingKey())
	assert.Equal("startProgram.prewash", config.SettingKey())
}

func TestEligibleSwitchesWashingMachine(t *testing.T) {

	assert := assert.New(t)

	client := honcloud.CreateTestClient()
	if err := client.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	wm, _ := client.Appliance("11-22-33-44-55-66")

	ids := map[string]bool{}
	for _, desc := range EligibleSwitches(wm) {
		ids[desc.Id] = true
	}

	assert.True(ids["active"], "control switch with start/stop commands")
	assert.True(ids["pause"], "control switch with pause/resume commands")
	assert.True(ids["prewash"], "startProgram option present")
	assert.True(ids["delay_status"], "startProgram option present")
	assert.True(ids["extra_rinse_1"], "startProgram option present")
	assert.True(ids["auto_softener"], "settings parameter present")
	assert.True(ids["auto_detergent"], "settings parameter present")

	assert.False(ids["good_night"], "option not reported by the appliance")
	assert.False(ids["hygiene"], "option not reported by the appliance")
}

func TestEligibleSwitchesAirConditioner(t *testing.T) {

	assert := assert.New(t)

	client := honcloud.CreateTestClient()
	if err := client.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	ac, _ := client.Appliance("aa-bb-cc-dd-ee-ff")

	ids := map[string]bool{}
	for _, desc := range EligibleSwitches(ac) {
		ids[desc.Id] = true
	}

	assert.True(ids["eco_mode"])
	assert.True(ids["silent_mode"])
	assert.True(ids["rapid_mode"])
	assert.True(ids["night_mode"])
	assert.True(ids["health_mode"])

	assert.False(ids["self_clean"], "setting not reported by the appliance")
	assert.False(ids["screen_display"], "setting not reported by the appliance")
}
