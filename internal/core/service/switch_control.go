package service

import (
	"fmt"
	"strconv"
	"time"

	"hon2mqtt/internal/core/domain"
	"hon2mqtt/internal/core/port"
	"hon2mqtt/pkg/honcloud"
)

const (
	ATTR_REMOTE_CTRL_VALID = "remoteCtrValid"
	ATTR_LAST_CONN_EVENT   = "lastConnEvent.category"
	ATTR_REMAINING_TIME    = "remainingTimeMM"
	ATTR_DELAY_TIME        = "delayTime"
)

// SwitchControl implements the thin on/off semantics over appliance
// parameters: range parameters toggle between max and min, everything
// else between 1 and 0, fixed parameters refuse writes.
type SwitchControl struct {
}

var _ port.SwitchController = (*SwitchControl)(nil)

func NewSwitchControl() *SwitchControl {
	return &SwitchControl{}
}

func (s *SwitchControl) IsOn(appliance *honcloud.Appliance, desc domain.SwitchDescription) bool {
	switch desc.Kind {
	case domain.SwitchKindControl:
		return appliance.GetBool(desc.Key, false)
	case domain.SwitchKindSetting:
		return appliance.GetInt(desc.Key, 0) == 1
	default:
		param, ok := appliance.Setting(desc.SettingKey())
		if !ok {
			return false
		}
		if ranged, isRange := param.(*honcloud.RangeParameter); isRange {
			return param.Value() != strconv.FormatFloat(ranged.Min(), 'f', -1, 64)
		}
		return param.Value() == "1"
	}
}

func (s *SwitchControl) Available(appliance *honcloud.Appliance, desc domain.SwitchDescription) bool {
	if appliance.GetInt(ATTR_REMOTE_CTRL_VALID, 1) != 1 {
		return false
	}
	if category, _ := appliance.Get(ATTR_LAST_CONN_EVENT).(string); category == honcloud.CONN_EVENT_DISCONNECTED {
		return false
	}
	if desc.Kind == domain.SwitchKindControl {
		return appliance.Connection()
	}
	// a range that cannot move has nothing to switch
	if param, ok := appliance.Setting(desc.SettingKey()); ok {
		if ranged, isRange := param.(*honcloud.RangeParameter); isRange && len(ranged.Values()) < 2 {
			return false
		}
	}
	return true
}

// ApplyToggle mutates the local parameter view and names the cloud command
// to send. Config switches only stage the option for the next program
// start, so they return an empty command.
func (s *SwitchControl) ApplyToggle(appliance *honcloud.Appliance, desc domain.SwitchDescription, enable bool) (string, error) {
	if desc.Kind == domain.SwitchKindControl {
		command := desc.OnCommand
		if !enable {
			command = desc.OffCommand
		}
		if !appliance.HasCommand(command) {
			return "", fmt.Errorf("appliance %s has no command %s", appliance.ID, command)
		}
		appliance.SyncCommandToSettings(command)
		return command, nil
	}

	param, ok := appliance.Setting(desc.SettingKey())
	if !ok {
		return "", fmt.Errorf("appliance %s has no setting %s", appliance.ID, desc.SettingKey())
	}
	value := toggleValue(param, enable)
	if err := param.SetValue(value); err != nil {
		return "", err
	}
	if desc.Kind == domain.SwitchKindConfig {
		return "", nil
	}
	return honcloud.COMMAND_SETTINGS, nil
}

// ProgramTimes derives start/end timestamps for a running or delayed
// program from the delay and remaining time counters.
func (s *SwitchControl) ProgramTimes(appliance *honcloud.Appliance) (time.Time, time.Time, bool) {
	remaining := appliance.GetInt(ATTR_REMAINING_TIME, 0)
	if remaining == 0 {
		return time.Time{}, time.Time{}, false
	}
	delay := appliance.GetInt(ATTR_DELAY_TIME, 0)
	now := time.Now()
	start := now.Add(time.Duration(delay) * time.Minute)
	end := now.Add(time.Duration(delay+remaining) * time.Minute)
	return start, end, true
}

func toggleValue(param honcloud.Parameter, enable bool) string {
	if ranged, isRange := param.(*honcloud.RangeParameter); isRange {
		if enable {
			return strconv.FormatFloat(ranged.Max(), 'f', -1, 64)
		}
		return strconv.FormatFloat(ranged.Min(), 'f', -1, 64)
	}
	if enable {
		return "1"
	}
	return "0"
}
