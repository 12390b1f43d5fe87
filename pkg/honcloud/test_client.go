package honcloud

import (
	"context"
	"fmt"
	"sync"
)

func CreateTestClient() *TestClient {
	return &TestClient{
		byID: map[string]*Appliance{},
	}
}

// TestClient is an in-memory session with canned appliances.
type TestClient struct {
	mu         sync.Mutex
	appliances []*Appliance
	byID       map[string]*Appliance
	sent       []string
	updateFn   func(string)
	errorFn    func(error)
}

var _ Client = (*TestClient)(nil)

func (c *TestClient) Open(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.appliances) == 0 {
		c.appliances = []*Appliance{testWashingMachine(), testAirConditioner()}
		for _, appliance := range c.appliances {
			c.byID[appliance.ID] = appliance
		}
	}
	return nil
}

func (c *TestClient) Close() error {
	return nil
}

func (c *TestClient) Appliances() []*Appliance {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Appliance, len(c.appliances))
	copy(out, c.appliances)
	return out
}

func (c *TestClient) Appliance(id string) (*Appliance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	appliance, ok := c.byID[id]
	return appliance, ok
}

func (c *TestClient) RefreshAppliance(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byID[id]; !ok {
		return fmt.Errorf("unknown appliance %s", id)
	}
	return nil
}

func (c *TestClient) SendCommand(ctx context.Context, applianceID string, command string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	appliance, ok := c.byID[applianceID]
	if !ok {
		return fmt.Errorf("unknown appliance %s", applianceID)
	}
	if !appliance.HasCommand(command) {
		return fmt.Errorf("appliance %s has no command %s", applianceID, command)
	}
	c.sent = append(c.sent, applianceID+":"+command)
	return nil
}

func (c *TestClient) SubscribeUpdates(fn func(applianceID string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateFn = fn
}

func (c *TestClient) OnPushError(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errorFn = fn
}

// SentCommands returns every "<applianceID>:<command>" accepted so far.
func (c *TestClient) SentCommands() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.sent))
	copy(out, c.sent)
	return out
}

// PushUpdate simulates a cloud push notification.
func (c *TestClient) PushUpdate(applianceID string) {
	c.mu.Lock()
	fn := c.updateFn
	c.mu.Unlock()
	if fn != nil {
		fn(applianceID)
	}
}

func testWashingMachine() *Appliance {
	appliance := NewAppliance("11-22-33-44-55-66", "WM0001", "Washer", TYPE_WASHING_MACHINE)
	appliance.Brand = "Haier"
	appliance.Model = "HW80"
	appliance.Firmware = "2.1.0"
	appliance.AddCommand(&Command{
		Name: COMMAND_SETTINGS,
		Parameters: map[string]Parameter{
			"autoSoftenerStatus":  NewEnumParameter("autoSoftenerStatus", "0", []string{"0", "1"}),
			"autoDetergentStatus": NewEnumParameter("autoDetergentStatus", "0", []string{"0", "1"}),
		},
	})
	appliance.AddCommand(&Command{
		Name: COMMAND_START_PROGRAM,
		Parameters: map[string]Parameter{
			"prewash":     NewEnumParameter("prewash", "0", []string{"0", "1"}),
			"delayStatus": NewEnumParameter("delayStatus", "0", []string{"0", "1"}),
			"extraRinse1": NewEnumParameter("extraRinse1", "0", []string{"0", "1"}),
			"spinSpeed":   NewRangeParameter("spinSpeed", 800, 0, 1400, 200),
			"program":     NewFixedParameter("program", "cotton"),
		},
	})
	appliance.AddCommand(&Command{Name: COMMAND_STOP_PROGRAM, Parameters: map[string]Parameter{}})
	appliance.AddCommand(&Command{Name: COMMAND_PAUSE_PROGRAM, Parameters: map[string]Parameter{}})
	appliance.AddCommand(&Command{Name: COMMAND_RESUME_PROGRAM, Parameters: map[string]Parameter{}})
	appliance.ReplaceAttributes(map[string]any{
		"active":              "0",
		"pause":               "0",
		"remoteCtrValid":      "1",
		"remainingTimeMM":     "0",
		"delayTime":           "0",
		"machMode":            "1",
		"autoSoftenerStatus":  "0",
		"autoDetergentStatus": "1",
		"lastConnEvent":       map[string]any{"category": "CONNECTED"},
	})
	appliance.SetConnection(true)
	return appliance
}

func testAirConditioner() *Appliance {
	appliance := NewAppliance("aa-bb-cc-dd-ee-ff", "AC0001", "Living Room AC", TYPE_AIR_CONDITIONER)
	appliance.Brand = "Haier"
	appliance.Model = "Flexis"
	appliance.Firmware = "1.0.4"
	appliance.AddCommand(&Command{
		Name: COMMAND_SETTINGS,
		Parameters: map[string]Parameter{
			"ecoMode":           NewEnumParameter("ecoMode", "0", []string{"0", "1"}),
			"muteStatus":        NewEnumParameter("muteStatus", "0", []string{"0", "1"}),
			"rapidMode":         NewEnumParameter("rapidMode", "0", []string{"0", "1"}),
			"silentSleepStatus": NewRangeParameter("silentSleepStatus", 0, 0, 3, 1),
			"healthMode":        NewEnumParameter("healthMode", "0", []string{"0", "1"}),
		},
	})
	appliance.ReplaceAttributes(map[string]any{
		"ecoMode":           "1",
		"muteStatus":        "0",
		"rapidMode":         "0",
		"silentSleepStatus": "0",
		"healthMode":        "0",
		"remoteCtrValid":    "1",
		"lastConnEvent":     map[string]any{"category": "CONNECTED"},
	})
	appliance.SetConnection(true)
	return appliance
}
