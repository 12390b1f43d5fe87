package honcloud

import (
	"sort"
	"strconv"
	"strings"
	"sync"
)

// Appliance type codes as reported by the cloud.
const (
	TYPE_WASHING_MACHINE = "WM"
	TYPE_TUMBLE_DRYER    = "TD"
	TYPE_WASHER_DRYER    = "WD"
	TYPE_OVEN            = "OV"
	TYPE_DISH_WASHER     = "DW"
	TYPE_AIR_CONDITIONER = "AC"
	TYPE_FRIDGE          = "REF"
	TYPE_WINE_CELLAR     = "WC"
	TYPE_HOOD            = "HO"
	TYPE_AIR_PURIFIER    = "AP"
	TYPE_FREEZER         = "FRE"
)

const (
	COMMAND_SETTINGS       = "settings"
	COMMAND_START_PROGRAM  = "startProgram"
	COMMAND_STOP_PROGRAM   = "stopProgram"
	COMMAND_PAUSE_PROGRAM  = "pauseProgram"
	COMMAND_RESUME_PROGRAM = "resumeProgram"
)

const CONN_EVENT_DISCONNECTED = "DISCONNECTED"

type Command struct {
	Name       string
	Parameters map[string]Parameter
}

// Appliance is the local view of a single cloud appliance: static info,
// the last attribute snapshot and the writable parameter set.
type Appliance struct {
	ID            string
	Serial        string
	Nickname      string
	ApplianceType string
	Brand         string
	Model         string
	Firmware      string

	mu         sync.RWMutex
	connection bool
	attributes map[string]any
	commands   map[string]*Command
	settings   map[string]Parameter
}

func NewAppliance(id, serial, nickname, applianceType string) *Appliance {
	return &Appliance{
		ID:            id,
		Serial:        serial,
		Nickname:      nickname,
		ApplianceType: applianceType,
		attributes:    map[string]any{},
		commands:      map[string]*Command{},
		settings:      map[string]Parameter{},
	}
}

func (a *Appliance) Connection() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connection
}

func (a *Appliance) SetConnection(connected bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connection = connected
}

// Get resolves a dotted path ("lastConnEvent.category") against the last
// attribute snapshot. Returns nil if any path segment is missing.
func (a *Appliance) Get(path string) any {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var current any = a.attributes
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = m[segment]
		if !ok {
			return nil
		}
	}
	return current
}

// GetInt reads an attribute as an integer, tolerating the string and float
// encodings the cloud mixes freely.
func (a *Appliance) GetInt(path string, def int) int {
	switch v := a.Get(path).(type) {
	case nil:
		return def
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		return def
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return def
	}
}

func (a *Appliance) GetBool(path string, def bool) bool {
	switch v := a.Get(path).(type) {
	case nil:
		return def
	case bool:
		return v
	default:
		return a.GetInt(path, 0) == 1
	}
}

func (a *Appliance) SetAttribute(path string, value any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	segments := strings.Split(path, ".")
	current := a.attributes
	for _, segment := range segments[:len(segments)-1] {
		next, ok := current[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[segment] = next
		}
		current = next
	}
	current[segments[len(segments)-1]] = value
}

func (a *Appliance) ReplaceAttributes(attributes map[string]any) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.attributes = attributes
}

func (a *Appliance) AddCommand(cmd *Command) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.commands[cmd.Name] = cmd
	for key, param := range cmd.Parameters {
		a.settings[cmd.Name+"."+key] = param
	}
}

func (a *Appliance) Command(name string) (*Command, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	cmd, ok := a.commands[name]
	return cmd, ok
}

func (a *Appliance) HasCommand(name string) bool {
	_, ok := a.Command(name)
	return ok
}

// Setting looks up a writable parameter by its full key, e.g.
// "settings.ecoMode" or "startProgram.prewash".
func (a *Appliance) Setting(key string) (Parameter, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	param, ok := a.settings[key]
	return param, ok
}

func (a *Appliance) AvailableSettings() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	keys := make([]string, 0, len(a.settings))
	for key := range a.settings {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// SyncCommandToSettings copies the parameter values of a command into the
// settings command, so a subsequent settings send carries them along.
func (a *Appliance) SyncCommandToSettings(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	source, ok := a.commands[name]
	if !ok {
		return
	}
	target, ok := a.commands[COMMAND_SETTINGS]
	if !ok {
		return
	}
	for key, param := range source.Parameters {
		if targetParam, ok := target.Parameters[key]; ok {
			_ = targetParam.SetValue(param.Value())
		}
	}
}
