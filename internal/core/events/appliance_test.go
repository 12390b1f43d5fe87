package events

import (
	"context"
	"strings"
	"testing"

	"hon2mqtt/internal/core/domain"
	"hon2mqtt/internal/core/service"
	"hon2mqtt/pkg/honcloud"

	"github.com/stretchr/testify/assert"
)

func testAppliance(t *testing.T, applianceID string) *honcloud.Appliance {
	t.Helper()
	client := honcloud.CreateTestClient()
	if err := client.Open(context.Background()); err != nil {
		t.Fatal(err)
	}
	appliance, ok := client.Appliance(applianceID)
	if !ok {
		t.Fatalf("appliance %s not found", applianceID)
	}
	return appliance
}

func TestBridgeDevice(t *testing.T) {

	assert := assert.New(t)

	device := BridgeDevice("hon2mqtt")

	assert.True(strings.HasPrefix(device.Id, "hon2mqtt_bridge_"))
	assert.Equal("hon2mqtt", device.Manufacturer)

	other := BridgeDevice("hon2mqtt_other")
	assert.NotEqual(device.Id, other.Id, "device id depends on the base topic")
}

func TestApplianceDevice(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")

	device := ApplianceDevice(wm)

	assert.True(strings.HasPrefix(device.Id, "hon_wm_"), "device id %s", device.Id)
	assert.Equal("Washer", device.Name)
	assert.Equal("Haier", device.Manufacturer)
	assert.Equal("HW80", device.Model)
	assert.Equal("2.1.0", device.Version)
}

func TestApplianceSensors(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")
	wmDevice := ApplianceDevice(wm)

	wmSensors := ApplianceSensors(wmDevice, wm)
	assert.Len(wmSensors, 3, "connectivity, remaining time and machine mode")
	assert.Equal(SENSOR_TYPE_BINARY, wmSensors[0].SensorType)
	assert.Equal(ApplianceSensorId(wmDevice, SENSOR_SUFFIX_REMAINING_TIME), wmSensors[1].Id)
	assert.Equal(ApplianceSensorId(wmDevice, SENSOR_SUFFIX_MACHINE_MODE), wmSensors[2].Id)

	ac := testAppliance(t, "aa-bb-cc-dd-ee-ff")
	acDevice := ApplianceDevice(ac)

	acSensors := ApplianceSensors(acDevice, ac)
	assert.Len(acSensors, 1, "connectivity only")
	assert.Equal(ApplianceSensorId(acDevice, SENSOR_SUFFIX_CONNECTIVITY), acSensors[0].Id)
}

func TestApplianceSwitches(t *testing.T) {

	assert := assert.New(t)

	wm := testAppliance(t, "11-22-33-44-55-66")
	device := ApplianceDevice(wm)

	switches := ApplianceSwitches(device, wm)

	byId := map[string]domain.GenericSwitch{}
	for _, sw := range switches {
		byId[sw.Id] = sw
	}

	control := byId[device.Id+"_active"]
	assert.Equal("", control.EntityCategory, "control switches are primary entities")

	option := byId[device.Id+"_prewash"]
	assert.Equal(ENTITY_CLASS_CONFIG, option.EntityCategory, "program options are config entities")
}

func TestApplianceStateToUpdateEvents(t *testing.T) {

	assert := assert.New(t)

	control := service.NewSwitchControl()

	wm := testAppliance(t, "11-22-33-44-55-66")
	device := ApplianceDevice(wm)

	events := eventsById(ApplianceStateToUpdateEvents(wm, control))

	connectivity := events[ApplianceSensorId(device, SENSOR_SUFFIX_CONNECTIVITY)]
	assert.Equal(true, connectivity.(domain.BinarySensorUpdateEvent).Value)

	active := events[ApplianceSwitchId(device, domain.Switches[honcloud.TYPE_WASHING_MACHINE][0])]
	assert.Equal(false, active.(domain.SwitchSensorUpdateEvent).Value)
	assert.Equal(true, active.(domain.SwitchSensorUpdateEvent).Available)

	// no running or delayed program, so no start/end attributes
	for _, event := range events {
		_, isAttrs := event.(domain.SwitchAttributesUpdateEvent)
		assert.False(isAttrs)
	}
}

func TestApplianceStateToUpdateEventsProgramTimes(t *testing.T) {

	assert := assert.New(t)

	control := service.NewSwitchControl()

	wm := testAppliance(t, "11-22-33-44-55-66")
	wm.SetAttribute(service.ATTR_REMAINING_TIME, "60")
	wm.SetAttribute(service.ATTR_DELAY_TIME, "30")
	device := ApplianceDevice(wm)

	var attrEvents []domain.SwitchAttributesUpdateEvent
	for _, event := range ApplianceStateToUpdateEvents(wm, control) {
		if attrs, ok := event.(domain.SwitchAttributesUpdateEvent); ok {
			attrEvents = append(attrEvents, attrs)
		}
	}

	if assert.NotEmpty(attrEvents, "running program publishes time attributes") {
		attrs := attrEvents[0]
		assert.Equal(ApplianceSwitchId(device, domain.Switches[honcloud.TYPE_WASHING_MACHINE][0]), attrs.Id)
		assert.Contains(attrs.Attributes, "start_time")
		assert.Contains(attrs.Attributes, "end_time")
	}
}

func eventsById(events []any) map[string]any {
	out := map[string]any{}
	for _, event := range events {
		if withId, ok := event.(domain.SensorUpdateEvent); ok {
			out[withId.SensorId()] = event
		}
	}
	return out
}
