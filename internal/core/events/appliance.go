package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"hon2mqtt/internal/core/domain"
	"hon2mqtt/internal/core/port"
	"hon2mqtt/internal/core/service"
	"hon2mqtt/pkg/honcloud"

	"github.com/carlmjohnson/versioninfo"
)

const (
	SENSOR_ID_BRIDGE_STATE = "bridge"

	SENSOR_SUFFIX_CONNECTIVITY   = "connectivity"
	SENSOR_SUFFIX_REMAINING_TIME = "remaining_time"
	SENSOR_SUFFIX_MACHINE_MODE   = "machine_mode"

	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_DURATION     = "duration"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	ENTITY_CLASS_CONFIG       = "config"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"

	ATTR_MACHINE_MODE = "machMode"
)

func BridgeDevice(baseTopic string) domain.Device {
	return domain.Device{
		Id:           fmt.Sprintf("hon2mqtt_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "hon2mqtt",
		Model:        "hon2mqtt",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("hon2mqtt %s", md5HashShort(baseTopic)),
	}
}

func ApplianceDevice(appliance *honcloud.Appliance) domain.Device {
	name := appliance.Nickname
	if name == "" {
		name = fmt.Sprintf("%s %s", appliance.Brand, appliance.Model)
	}
	return domain.Device{
		Id: fmt.Sprintf("hon_%s_%s", strings.ToLower(appliance.ApplianceType),
			md5HashShort(appliance.Serial)),
		Manufacturer: appliance.Brand,
		Model:        appliance.Model,
		Version:      appliance.Firmware,
		Name:         name,
	}
}

func IdDevice(device domain.Device) domain.Device {
	return domain.Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func BridgeSensors(bridgeDevice domain.Device) []domain.GenericSensor {
	return []domain.GenericSensor{
		{
			Device:         bridgeDevice,
			Id:             SENSOR_ID_BRIDGE_STATE,
			SensorType:     SENSOR_TYPE_BINARY,
			Name:           "Connection state",
			DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
		},
	}
}

// ApplianceSwitchId is the MQTT entity id of one switch of one appliance.
func ApplianceSwitchId(device domain.Device, desc domain.SwitchDescription) string {
	return fmt.Sprintf("%s_%s", device.Id, desc.Id)
}

func ApplianceSensorId(device domain.Device, suffix string) string {
	return fmt.Sprintf("%s_%s", device.Id, suffix)
}

// ApplianceSwitches materializes the eligible switch descriptions of an
// appliance as discovery components.
func ApplianceSwitches(device domain.Device, appliance *honcloud.Appliance) []domain.GenericSwitch {
	var switches []domain.GenericSwitch
	for _, desc := range domain.EligibleSwitches(appliance) {
		entityCategory := ""
		if desc.Kind == domain.SwitchKindConfig {
			entityCategory = ENTITY_CLASS_CONFIG
		}
		switches = append(switches, domain.GenericSwitch{
			Device:         device,
			Id:             ApplianceSwitchId(device, desc),
			Name:           desc.Name,
			UniqueId:       uniqueId(device.Id, desc.Id),
			Icon:           desc.Icon,
			EntityCategory: entityCategory,
		})
	}
	return switches
}

func ApplianceSensors(device domain.Device, appliance *honcloud.Appliance) []domain.GenericSensor {
	sensors := []domain.GenericSensor{
		{
			Device:         device,
			Id:             ApplianceSensorId(device, SENSOR_SUFFIX_CONNECTIVITY),
			SensorType:     SENSOR_TYPE_BINARY,
			Name:           "Connectivity",
			DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
			EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
			UniqueId:       uniqueId(device.Id, SENSOR_SUFFIX_CONNECTIVITY),
		},
	}
	if hasProgramControl(appliance) {
		sensors = append(sensors, domain.GenericSensor{
			Device:            device,
			Id:                ApplianceSensorId(device, SENSOR_SUFFIX_REMAINING_TIME),
			SensorType:        SENSOR_TYPE_SENSOR,
			Name:              "Remaining time",
			StateClass:        STATE_CLASS_MEASUREMENT,
			DeviceClass:       DEVICE_CLASS_DURATION,
			UnitOfMeasurement: "min",
			Icon:              "mdi:progress-clock",
			UniqueId:          uniqueId(device.Id, SENSOR_SUFFIX_REMAINING_TIME),
		})
	}
	if appliance.Get(ATTR_MACHINE_MODE) != nil {
		sensors = append(sensors, domain.GenericSensor{
			Device:     device,
			Id:         ApplianceSensorId(device, SENSOR_SUFFIX_MACHINE_MODE),
			SensorType: SENSOR_TYPE_SENSOR,
			Name:       "Machine mode",
			UniqueId:   uniqueId(device.Id, SENSOR_SUFFIX_MACHINE_MODE),
		})
	}
	return sensors
}

// ApplianceStateToUpdateEvents converts an appliance snapshot to the sensor
// and switch updates the MQTT side publishes.
func ApplianceStateToUpdateEvents(appliance *honcloud.Appliance, control port.SwitchController) []any {
	device := ApplianceDevice(appliance)
	var events []any

	events = append(events, domain.BinarySensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
			Id: ApplianceSensorId(device, SENSOR_SUFFIX_CONNECTIVITY),
		},
		Value: appliance.Connection(),
	})

	if hasProgramControl(appliance) {
		events = append(events, domain.FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: ApplianceSensorId(device, SENSOR_SUFFIX_REMAINING_TIME),
			},
			Value:    float64(appliance.GetInt(service.ATTR_REMAINING_TIME, 0)),
			Decimals: 0,
		})
	}

	if mode, ok := appliance.Get(ATTR_MACHINE_MODE).(string); ok {
		events = append(events, domain.TextSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: ApplianceSensorId(device, SENSOR_SUFFIX_MACHINE_MODE),
			},
			Value: mode,
		})
	}

	for _, desc := range domain.EligibleSwitches(appliance) {
		events = append(events, domain.SwitchSensorUpdateEvent{
			SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
				Id: ApplianceSwitchId(device, desc),
			},
			Value:     control.IsOn(appliance, desc),
			Available: control.Available(appliance, desc),
		})
		if desc.Kind == domain.SwitchKindControl {
			if start, end, ok := control.ProgramTimes(appliance); ok {
				events = append(events, domain.SwitchAttributesUpdateEvent{
					SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{
						Id: ApplianceSwitchId(device, desc),
					},
					Attributes: map[string]any{
						"start_time": start.Format("2006-01-02T15:04:05Z07:00"),
						"end_time":   end.Format("2006-01-02T15:04:05Z07:00"),
					},
				})
			}
		}
	}

	return events
}

func hasProgramControl(appliance *honcloud.Appliance) bool {
	return appliance.HasCommand(honcloud.COMMAND_START_PROGRAM) ||
		appliance.Get(service.ATTR_REMAINING_TIME) != nil
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	return md5Hash(text)[0:8]
}
