package domain

import "hon2mqtt/pkg/honcloud"

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_HON          = "hon"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_POLLER       = "poller"
	ACTOR_ID_CONTROL      = "appliance_control"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type GetAppliancesRequest struct {
	ActorRequestMixIn
}

type GetAppliancesResponse struct {
	ActorResponseMixIn
	Appliances []*honcloud.Appliance
}

type RefreshApplianceRequest struct {
	ActorRequestMixIn
	ApplianceID string
}

type RefreshApplianceResponse struct {
	ActorResponseMixIn
	Appliance *honcloud.Appliance
}

type SendCommandRequest struct {
	ActorRequestMixIn
	ApplianceID string
	Command     string
}

type SendCommandResponse struct {
	ActorResponseMixIn
}

// ApplianceUpdatePush is emitted when the cloud push stream reports a
// state change for an appliance.
type ApplianceUpdatePush struct {
	ApplianceID string
}

// CloudSessionOpened is announced every time the cloud session comes up.
// Appliance objects from a previous session are orphaned at that point,
// so holders of appliance references must reload them.
type CloudSessionOpened struct {
}

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors  []GenericSensor
	Switches []GenericSwitch
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
