package mqtt

import (
	"fmt"

	"hon2mqtt/internal/core/domain"
)

type HADiscoveryConfig struct {
	Device              HADiscoveryDevice         `json:"device"`
	StateTopic          string                    `json:"state_topic"`
	CommandTopic        string                    `json:"command_topic,omitempty"`
	StateClass          string                    `json:"state_class,omitempty"`
	DeviceClass         string                    `json:"device_class,omitempty"`
	UnitOfMeasurement   string                    `json:"unit_of_measurement,omitempty"`
	AvTopic             string                    `json:"availability_topic,omitempty"`
	Availability        []HADiscoveryAvailability `json:"availability,omitempty"`
	AvailabilityMode    string                    `json:"availability_mode,omitempty"`
	JsonAttributesTopic string                    `json:"json_attributes_topic,omitempty"`
	EntityCategory      string                    `json:"entity_category,omitempty"`
	Name                string                    `json:"name"`
	UniqueId            string                    `json:"unique_id"`
	Platform            string                    `json:"platform"`
	EnabledByDefault    *bool                     `json:"enabled_by_default,omitempty"`
	PayloadOn           string                    `json:"payload_on,omitempty"`
	PayloadOff          string                    `json:"payload_off,omitempty"`
	PayloadAvailable    string                    `json:"payload_available,omitempty"`
	PayloadNotAvailable string                    `json:"payload_not_available,omitempty"`
	Icon                string                    `json:"icon,omitempty"`
}

type HADiscoveryAvailability struct {
	Topic string `json:"topic"`
}

type HADiscoveryDevice struct {
	Id           []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Version      string   `json:"sw_version,omitempty"`
	Model        string   `json:"model,omitempty"`
	Name         string   `json:"name,omitempty"`
	ViaDevice    string   `json:"via_device,omitempty"`
}

func HADiscoverySensorTopic(discoveryTopic string, sensor domain.GenericSensor) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryTopic, sensor.SensorType, sensor.Device.Id, sensor.Id)
}

func HADiscoverySwitchTopic(discoveryTopic string, _switch domain.GenericSwitch) string {
	return fmt.Sprintf("%s/switch/%s/%s/config", discoveryTopic, _switch.Device.Id, _switch.Id)
}

func GenericSensorToHADiscoveryMessage(client *MQTTClient, sensor domain.GenericSensor) HADiscoveryConfig {
	dev := device(sensor.Device)
	var topic string
	switch {
	case sensor.Id == "bridge":
		topic = client.BridgeStateTopic()
	case sensor.SensorType == "binary_sensor":
		topic = client.BinarySensorStateTopic(sensor.Id)
	default:
		topic = client.SensorStateTopic(sensor.Id)
	}
	disConfig := HADiscoveryConfig{
		Device:            dev,
		StateTopic:        topic,
		StateClass:        sensor.StateClass,
		DeviceClass:       sensor.DeviceClass,
		UnitOfMeasurement: sensor.UnitOfMeasurement,
		AvTopic:           client.BridgeStateTopic(),
		EntityCategory:    sensor.EntityCategory,
		Name:              sensor.Name,
		UniqueId:          sensor.UniqueId,
		Icon:              sensor.Icon,
		EnabledByDefault:  sensor.EnabledByDefault,
		Platform:          "mqtt",
	}
	if sensor.Id == "bridge" {
		disConfig.AvTopic = ""
		disConfig.PayloadOn = MQTT_PAYLOAD_ONLINE
		disConfig.PayloadOff = MQTT_PAYLOAD_OFFLINE
	} else if sensor.SensorType == "binary_sensor" {
		disConfig.PayloadOn = MQTT_PAYLOAD_ON
		disConfig.PayloadOff = MQTT_PAYLOAD_OFF
	}
	return disConfig
}

// GenericSwitchToHADiscoveryMessage builds a switch discovery config.
// Switches listen on both the bridge and their own availability topic, so
// a single entity can go unavailable while the bridge stays online.
func GenericSwitchToHADiscoveryMessage(client *MQTTClient, _switch domain.GenericSwitch) HADiscoveryConfig {
	dev := device(_switch.Device)
	disConfig := HADiscoveryConfig{
		Device:       dev,
		StateTopic:   client.SwitchStateTopic(_switch.Id),
		CommandTopic: client.SwitchCommandTopic(_switch.Id),
		Availability: []HADiscoveryAvailability{
			{Topic: client.BridgeStateTopic()},
			{Topic: client.SwitchAvailabilityTopic(_switch.Id)},
		},
		AvailabilityMode:    "all",
		JsonAttributesTopic: client.SwitchAttributesTopic(_switch.Id),
		EntityCategory:      _switch.EntityCategory,
		Name:                _switch.Name,
		UniqueId:            _switch.UniqueId,
		Icon:                _switch.Icon,
		Platform:            "mqtt",
		PayloadOn:           MQTT_PAYLOAD_ON,
		PayloadOff:          MQTT_PAYLOAD_OFF,
		PayloadAvailable:    MQTT_PAYLOAD_ONLINE,
		PayloadNotAvailable: MQTT_PAYLOAD_OFFLINE,
	}
	return disConfig
}

func device(d domain.Device) HADiscoveryDevice {
	return HADiscoveryDevice{
		Id:           []string{d.Id},
		Manufacturer: d.Manufacturer,
		Version:      d.Version,
		Model:        d.Model,
		Name:         d.Name,
		ViaDevice:    d.ViaDevice,
	}
}
