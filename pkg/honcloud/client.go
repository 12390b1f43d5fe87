package honcloud

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/reugn/go-quartz/job"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
	"resty.dev/v3"
)

const (
	DEFAULT_API_BASE = "https://api-iot.he.services"

	tokenRefreshCheckInterval = 5 * time.Minute
)

type Config struct {
	Email     string
	Password  string
	MobileID  string
	APIBase   string
	PushURL   string
	TokenFile string
}

// Client is the appliance session surface the rest of the bridge talks to.
type Client interface {
	Open(ctx context.Context) error
	Close() error
	Appliances() []*Appliance
	Appliance(id string) (*Appliance, bool)
	RefreshAppliance(ctx context.Context, id string) error
	SendCommand(ctx context.Context, applianceID string, command string) error
	SubscribeUpdates(fn func(applianceID string))
	OnPushError(fn func(error))
}

// Session is the live cloud session: REST for appliance data and commands,
// a websocket push stream for update notifications, and a quartz job that
// keeps the access token fresh.
type Session struct {
	cfg    Config
	auth   *Auth
	rest   *resty.Client
	logger *zap.Logger

	scheduler   quartz.Scheduler
	schedCancel context.CancelFunc
	push        *pushStream

	mu          sync.RWMutex
	appliances  []*Appliance
	byID        map[string]*Appliance
	updateFn    func(applianceID string)
	pushErrorFn func(error)
}

var _ Client = (*Session)(nil)

func NewSession(cfg Config, logger *zap.Logger) *Session {
	if cfg.APIBase == "" {
		cfg.APIBase = DEFAULT_API_BASE
	}
	rest := resty.New().
		SetBaseURL(cfg.APIBase).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)
	return &Session{
		cfg:    cfg,
		auth:   NewAuth(cfg, logger),
		rest:   rest,
		logger: logger,
		byID:   map[string]*Appliance{},
	}
}

func (s *Session) SubscribeUpdates(fn func(applianceID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateFn = fn
}

func (s *Session) OnPushError(fn func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushErrorFn = fn
}

// Open logs in, loads the appliance list with an initial state snapshot,
// starts the token refresh job and connects the push stream.
func (s *Session) Open(ctx context.Context) error {
	if err := s.auth.Login(ctx); err != nil {
		return err
	}
	if err := s.loadAppliances(ctx); err != nil {
		return err
	}
	for _, appliance := range s.Appliances() {
		if err := s.RefreshAppliance(ctx, appliance.ID); err != nil {
			s.logger.Warn("honcloud: initial refresh failed",
				zap.String("appliance", appliance.ID), zap.Error(err))
		}
	}

	if err := s.startTokenRefresh(); err != nil {
		return err
	}

	return s.connectPush(ctx)
}

// startTokenRefresh runs the refresh job on a session-lifetime context.
// The quartz scheduler stops when its start context is cancelled, so the
// caller's Open context must not reach it.
func (s *Session) startTokenRefresh() error {
	schedCtx, cancel := context.WithCancel(context.Background())
	s.schedCancel = cancel
	s.scheduler = quartz.NewStdScheduler()
	s.scheduler.Start(schedCtx)
	refreshJob := job.NewFunctionJob(func(ctx context.Context) (bool, error) {
		return true, s.auth.RefreshIfNeeded(ctx)
	})
	err := s.scheduler.ScheduleJob(
		quartz.NewJobDetail(refreshJob, quartz.NewJobKey("token_refresh")),
		quartz.NewSimpleTrigger(tokenRefreshCheckInterval))
	if err != nil {
		return fmt.Errorf("honcloud: could not schedule token refresh: %w", err)
	}
	return nil
}

func (s *Session) Close() error {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
	if s.schedCancel != nil {
		s.schedCancel()
		s.schedCancel = nil
	}
	if s.push != nil {
		s.push.close()
		s.push = nil
	}
	return nil
}

func (s *Session) Appliances() []*Appliance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Appliance, len(s.appliances))
	copy(out, s.appliances)
	return out
}

func (s *Session) Appliance(id string) (*Appliance, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appliance, ok := s.byID[id]
	return appliance, ok
}

type applianceListResponse struct {
	Payload struct {
		Appliances []applianceData `json:"appliances"`
	} `json:"payload"`
}

type applianceData struct {
	MacAddress        string                                `json:"macAddress"`
	SerialNumber      string                                `json:"serialNumber"`
	NickName          string                                `json:"nickName"`
	ApplianceTypeName string                                `json:"applianceTypeName"`
	Brand             string                                `json:"brand"`
	ModelName         string                                `json:"modelName"`
	FwVersion         string                                `json:"fwVersion"`
	Connectivity      string                                `json:"connectivity"`
	Commands          map[string]map[string]parameterData   `json:"commands"`
}

type parameterData struct {
	Category     string   `json:"category"`
	DefaultValue string   `json:"defaultValue"`
	EnumValues   []string `json:"enumValues"`
	Minimum      float64  `json:"minimumValue"`
	Maximum      float64  `json:"maximumValue"`
	Increment    float64  `json:"incrementValue"`
}

func (s *Session) loadAppliances(ctx context.Context) error {
	var list applianceListResponse
	resp, err := s.request(ctx).
		SetResult(&list).
		Get("/commands/v1/appliances")
	if err != nil {
		return fmt.Errorf("honcloud appliances: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("honcloud appliances: %s", resp.Status())
	}

	appliances := make([]*Appliance, 0, len(list.Payload.Appliances))
	byID := make(map[string]*Appliance, len(list.Payload.Appliances))
	for _, data := range list.Payload.Appliances {
		appliance := NewAppliance(data.MacAddress, data.SerialNumber, data.NickName, data.ApplianceTypeName)
		appliance.Brand = data.Brand
		appliance.Model = data.ModelName
		appliance.Firmware = data.FwVersion
		for name, params := range data.Commands {
			cmd := &Command{Name: name, Parameters: map[string]Parameter{}}
			for key, def := range params {
				cmd.Parameters[key] = buildParameter(key, def)
			}
			appliance.AddCommand(cmd)
		}
		appliances = append(appliances, appliance)
		byID[appliance.ID] = appliance
	}

	s.mu.Lock()
	s.appliances = appliances
	s.byID = byID
	s.mu.Unlock()
	s.logger.Info("honcloud: appliances loaded", zap.Int("count", len(appliances)))
	return nil
}

func buildParameter(key string, data parameterData) Parameter {
	switch data.Category {
	case "range":
		value := data.Minimum
		if data.DefaultValue != "" {
			p := NewRangeParameter(key, data.Minimum, data.Minimum, data.Maximum, data.Increment)
			if err := p.SetValue(data.DefaultValue); err == nil {
				return p
			}
		}
		return NewRangeParameter(key, value, data.Minimum, data.Maximum, data.Increment)
	case "enum":
		return NewEnumParameter(key, data.DefaultValue, data.EnumValues)
	default:
		return NewFixedParameter(key, data.DefaultValue)
	}
}

type contextResponse struct {
	Payload struct {
		Shadow struct {
			Parameters map[string]struct {
				ParNewVal string `json:"parNewVal"`
			} `json:"parameters"`
		} `json:"shadow"`
		LastConnEvent struct {
			Category string `json:"category"`
		} `json:"lastConnEvent"`
	} `json:"payload"`
}

// RefreshAppliance pulls a fresh attribute snapshot for one appliance.
func (s *Session) RefreshAppliance(ctx context.Context, id string) error {
	appliance, ok := s.Appliance(id)
	if !ok {
		return fmt.Errorf("honcloud: unknown appliance %s", id)
	}
	var state contextResponse
	resp, err := s.request(ctx).
		SetQueryParam("macAddress", appliance.ID).
		SetQueryParam("applianceType", appliance.ApplianceType).
		SetResult(&state).
		Get("/commands/v1/context")
	if err != nil {
		return fmt.Errorf("honcloud context: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("honcloud context: %s", resp.Status())
	}

	attributes := map[string]any{}
	for key, param := range state.Payload.Shadow.Parameters {
		attributes[key] = param.ParNewVal
	}
	attributes["lastConnEvent"] = map[string]any{
		"category": state.Payload.LastConnEvent.Category,
	}
	appliance.ReplaceAttributes(attributes)
	appliance.SetConnection(state.Payload.LastConnEvent.Category != CONN_EVENT_DISCONNECTED)
	return nil
}

// SendCommand ships a command with its current parameter values.
func (s *Session) SendCommand(ctx context.Context, applianceID string, command string) error {
	appliance, ok := s.Appliance(applianceID)
	if !ok {
		return fmt.Errorf("honcloud: unknown appliance %s", applianceID)
	}
	cmd, ok := appliance.Command(command)
	if !ok {
		return fmt.Errorf("honcloud: appliance %s has no command %s", applianceID, command)
	}
	parameters := map[string]string{}
	for key, param := range cmd.Parameters {
		parameters[key] = param.Value()
	}
	resp, err := s.request(ctx).
		SetContentType("application/json").
		SetBody(map[string]any{
			"macAddress":    appliance.ID,
			"applianceType": appliance.ApplianceType,
			"commandName":   command,
			"parameters":    parameters,
		}).
		Post("/commands/v1/send")
	if err != nil {
		return fmt.Errorf("honcloud send: %w", err)
	}
	if resp.StatusCode() >= 400 {
		return fmt.Errorf("honcloud send: %s", resp.Status())
	}
	return nil
}

func (s *Session) request(ctx context.Context) *resty.Request {
	return s.rest.R().
		SetContext(ctx).
		SetAuthToken(s.auth.AccessToken()).
		SetHeader("Accept", "application/json")
}
