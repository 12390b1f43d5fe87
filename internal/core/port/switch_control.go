package port

import (
	"time"

	"hon2mqtt/internal/core/domain"
	"hon2mqtt/pkg/honcloud"
)

// SwitchController decides switch state and performs the local parameter
// side of a toggle. The returned command name, if any, still has to be
// shipped to the cloud by the caller.
type SwitchController interface {
	IsOn(appliance *honcloud.Appliance, desc domain.SwitchDescription) bool
	Available(appliance *honcloud.Appliance, desc domain.SwitchDescription) bool
	ApplyToggle(appliance *honcloud.Appliance, desc domain.SwitchDescription, enable bool) (command string, err error)
	ProgramTimes(appliance *honcloud.Appliance) (start time.Time, end time.Time, ok bool)
}
