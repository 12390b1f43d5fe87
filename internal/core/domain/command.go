package domain

import "fmt"

// ApplianceControlRequest

type ApplianceControlRequest interface {
	ActorRequest
	ApplianceControlCommand() string
}

type ApplianceControlRequestMixIn struct {
	ActorRequestMixIn
}

func (r ApplianceControlRequestMixIn) ApplianceControlCommand() string {
	return fmt.Sprintf("%T", r)
}

// ApplianceControlResponse

type ApplianceControlResponse interface {
	ActorResponse
	ApplianceControlResponse() string
}

type ApplianceControlResponseMixIn struct {
	ActorResponse
}

func (r ApplianceControlResponseMixIn) ApplianceControlResponse() string {
	return fmt.Sprintf("%T", r)
}

// ApplianceControl commands

type SwitchToggleRequest struct {
	ApplianceControlRequestMixIn
	SwitchID string
	Enable   bool
}

type SwitchToggleResponse struct {
	ApplianceControlResponseMixIn
	Changed bool
}

// ensure interface compliance
var _ ApplianceControlRequest = (*SwitchToggleRequest)(nil)
