package service

import (
	"context"
	"testing"
	"time"

	"hon2mqtt/internal/core/domain"
	"hon2mqtt/pkg/honcloud"

	"github.com/stretchr/testify/assert"
)

func testAppliance(t *testing.T, id string) *honcloud.Appliance {
	t.Helper()
	client := honcloud.CreateTestClient()
	if err := client.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	appliance, ok := client.Appliance(id)
	if !ok {
		t.Fatalf("unknown test appliance %s", id)
	}
	return appliance
}

func findSwitch(t *testing.T, applianceType, id string) domain.SwitchDescription {
	t.Helper()
	for _, desc := range domain.Switches[applianceType] {
		if desc.Id == id {
			return desc
		}
	}
	t.Fatalf("unknown switch %s for type %s", id, applianceType)
	return domain.SwitchDescription{}
}

func TestIsOnControlSwitch(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")
	control := NewSwitchControl()
	active := findSwitch(t, honcloud.TYPE_WASHING_MACHINE, "active")

	assert.False(control.IsOn(wm, active), "program not running")

	wm.SetAttribute("active", "1")
	assert.True(control.IsOn(wm, active), "program running")
}

func TestIsOnSettingSwitch(t *testing.T) {

	assert := assert.New(t)

	ac := testAppliance(t, "aa-bb-cc-dd-ee-ff")
	control := NewSwitchControl()

	eco := findSwitch(t, honcloud.TYPE_AIR_CONDITIONER, "eco_mode")
	silent := findSwitch(t, honcloud.TYPE_AIR_CONDITIONER, "silent_mode")

	assert.True(control.IsOn(ac, eco), "ecoMode attribute is 1")
	assert.False(control.IsOn(ac, silent), "muteStatus attribute is 0")
}

func TestIsOnConfigSwitch(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")
	control := NewSwitchControl()
	prewash := findSwitch(t, honcloud.TYPE_WASHING_MACHINE, "prewash")

	assert.False(control.IsOn(wm, prewash), "prewash defaults off")

	command, err := control.ApplyToggle(wm, prewash, true)
	assert.NoError(err)
	assert.Equal("", command, "config switches do not send a command")
	assert.True(control.IsOn(wm, prewash), "prewash staged on")

	command, err = control.ApplyToggle(wm, prewash, false)
	assert.NoError(err)
	assert.Equal("", command)
	assert.False(control.IsOn(wm, prewash), "prewash staged off")
}

func TestApplyToggleControlSwitch(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")
	control := NewSwitchControl()
	active := findSwitch(t, honcloud.TYPE_WASHING_MACHINE, "active")

	command, err := control.ApplyToggle(wm, active, true)
	assert.NoError(err)
	assert.Equal(honcloud.COMMAND_START_PROGRAM, command, "on starts the program")

	command, err = control.ApplyToggle(wm, active, false)
	assert.NoError(err)
	assert.Equal(honcloud.COMMAND_STOP_PROGRAM, command, "off stops the program")
}

func TestApplyToggleSettingSwitch(t *testing.T) {

	assert := assert.New(t)

	ac := testAppliance(t, "aa-bb-cc-dd-ee-ff")
	control := NewSwitchControl()
	eco := findSwitch(t, honcloud.TYPE_AIR_CONDITIONER, "eco_mode")

	command, err := control.ApplyToggle(ac, eco, true)
	assert.NoError(err)
	assert.Equal(honcloud.COMMAND_SETTINGS, command, "setting switches ship the settings command")

	param, ok := ac.Setting("settings.ecoMode")
	assert.True(ok)
	assert.Equal("1", param.Value(), "parameter staged on")
}

func TestApplyToggleRangeSetting(t *testing.T) {

	assert := assert.New(t)

	ac := testAppliance(t, "aa-bb-cc-dd-ee-ff")
	control := NewSwitchControl()
	night := findSwitch(t, honcloud.TYPE_AIR_CONDITIONER, "night_mode")

	command, err := control.ApplyToggle(ac, night, true)
	assert.NoError(err)
	assert.Equal(honcloud.COMMAND_SETTINGS, command)

	param, ok := ac.Setting("settings.silentSleepStatus")
	assert.True(ok)
	assert.Equal("3", param.Value(), "range toggles to max")

	_, err = control.ApplyToggle(ac, night, false)
	assert.NoError(err)
	assert.Equal("0", param.Value(), "range toggles to min")
}

func TestApplyToggleReadOnlyParameter(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")
	control := NewSwitchControl()
	program := domain.SwitchDescription{
		Id:   "program",
		Key:  "startProgram.program",
		Kind: domain.SwitchKindConfig,
	}

	_, err := control.ApplyToggle(wm, program, true)
	assert.ErrorIs(err, honcloud.ErrReadOnlyParameter, "fixed parameters refuse writes")
}

func TestAvailableRemoteControl(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")
	control := NewSwitchControl()
	active := findSwitch(t, honcloud.TYPE_WASHING_MACHINE, "active")
	prewash := findSwitch(t, honcloud.TYPE_WASHING_MACHINE, "prewash")

	assert.True(control.Available(wm, active), "connected and remote control enabled")
	assert.True(control.Available(wm, prewash))

	wm.SetAttribute(ATTR_REMOTE_CTRL_VALID, "0")
	assert.False(control.Available(wm, active), "remote control disabled")
	assert.False(control.Available(wm, prewash), "program options follow the remote control gate")

	wm.SetAttribute(ATTR_REMOTE_CTRL_VALID, "1")
	wm.SetAttribute(ATTR_LAST_CONN_EVENT, honcloud.CONN_EVENT_DISCONNECTED)
	assert.False(control.Available(wm, active), "appliance disconnected")
	assert.False(control.Available(wm, prewash))
}

func TestAvailableControlNeedsConnection(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")
	control := NewSwitchControl()
	active := findSwitch(t, honcloud.TYPE_WASHING_MACHINE, "active")
	prewash := findSwitch(t, honcloud.TYPE_WASHING_MACHINE, "prewash")

	wm.SetConnection(false)
	assert.False(control.Available(wm, active), "control switches need a live connection")
	assert.True(control.Available(wm, prewash), "config switches stage offline")
}

func TestAvailableDegenerateRange(t *testing.T) {

	assert := assert.New(t)

	appliance := honcloud.NewAppliance("de-ad-be-ef-00-01", "AC0002", "Bedroom AC", honcloud.TYPE_AIR_CONDITIONER)
	appliance.AddCommand(&honcloud.Command{
		Name: honcloud.COMMAND_SETTINGS,
		Parameters: map[string]honcloud.Parameter{
			"silentSleepStatus": honcloud.NewRangeParameter("silentSleepStatus", 0, 0, 0, 1),
		},
	})
	appliance.ReplaceAttributes(map[string]any{
		"remoteCtrValid": "1",
	})
	appliance.SetConnection(true)

	control := NewSwitchControl()
	night := findSwitch(t, honcloud.TYPE_AIR_CONDITIONER, "night_mode")

	assert.False(control.Available(appliance, night), "a range that cannot move has nothing to switch")
}

func TestProgramTimes(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")
	control := NewSwitchControl()

	_, _, ok := control.ProgramTimes(wm)
	assert.False(ok, "no running program")

	wm.SetAttribute(ATTR_DELAY_TIME, "30")
	wm.SetAttribute(ATTR_REMAINING_TIME, "60")

	start, end, ok := control.ProgramTimes(wm)
	assert.True(ok)
	assert.WithinDuration(time.Now().Add(30*time.Minute), start, 5*time.Second, "start after delay")
	assert.WithinDuration(time.Now().Add(90*time.Minute), end, 5*time.Second, "end after delay plus remaining")
}
