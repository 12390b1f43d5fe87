package actor

import (
	"errors"
	"fmt"
	"time"

	"hon2mqtt/internal/config"
	"hon2mqtt/internal/core/domain"
	"hon2mqtt/internal/core/events"
	"hon2mqtt/internal/core/port"
	"hon2mqtt/internal/core/service"
	. "hon2mqtt/internal/util/actorutil"
	"hon2mqtt/pkg/honcloud"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"
)

// ApplianceControlActor executes switch toggles. It keeps a registry of
// switch entity ids to appliances, applies the local parameter change,
// ships the resulting command to the cloud and resyncs the appliance
// afterwards.
type ApplianceControlActor struct {
	ActorWithStates
	stash       *Stash
	honActor    *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	control     port.SwitchController
	registry    map[string]switchEntry

	logger *zap.Logger
}

type switchEntry struct {
	appliance *honcloud.Appliance
	desc      domain.SwitchDescription
}

func NewApplianceControlActor(config *config.Config, honActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *ApplianceControlActor {
	act := &ApplianceControlActor{
		config:      config,
		honActor:    honActor,
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_CONTROL, logger),
		eventStream: eventStream,
		control:     service.NewSwitchControl(),
		registry:    map[string]switchEntry{},
		ActorWithStates: ActorWithStates{
			Behavior: actor.NewBehavior(),
		},
	}
	act.Become(ACStartingState{
		actor: act,
	})
	return act
}

func (state *ApplianceControlActor) Receive(context actor.Context) {
	state.Behavior.Receive(context)
}

// Starting state

type ACStartingState struct {
	ActorState
	actor *ApplianceControlActor
}

func (state ACStartingState) Name() string {
	return "starting"
}

func (state ACStartingState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.actor.logger.Debug("control@starting started")

		state.actor.requestAppliances(ctx)
		state.actor.Become(ACWaitingInfoState{
			actor: state.actor,
		})
	case *actor.Restarting:
	default:
		state.actor.logger.Debug("control@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Waiting info state

type ACWaitingInfoState struct {
	ActorState
	actor *ApplianceControlActor
}

func (state ACWaitingInfoState) Name() string {
	return "waitingInfo"
}

func (state ACWaitingInfoState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetAppliancesResponse:
		if msg.HasResponseError() {
			state.actor.logger.Error("control@waitingInfo GetAppliancesResponse error", zap.Error(msg.GetResponseError()))
			panic(msg.GetResponseError())
		}
		state.actor.logger.Debug("control@waitingInfo GetAppliancesResponse")
		state.actor.buildRegistry(msg.Appliances)
		state.actor.Become(ACIdleState{
			actor: state.actor,
		})
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control@waitingInfo: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

// Idle state

type ACIdleState struct {
	ActorState
	actor *ApplianceControlActor
}

func (state ACIdleState) Name() string {
	return "idle"
}

func (state ACIdleState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.actor.logger.Debug("control@idle: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_CONTROL,
			Healthy: true,
			State:   state.Name(),
		})
	case domain.ApplianceControlRequest:
		switch cmd := msg.(type) {
		case domain.SwitchToggleRequest:
			state.actor.logger.Sugar().Debugf("control@idle: cmd toggle %s %t", cmd.SwitchID, cmd.Enable)
			state.actor.handleToggle(ctx, cmd)
		}
	case domain.CloudSessionOpened:
		// drop the registry entries pointing into the dead session
		state.actor.logger.Debug("control@idle: CloudSessionOpened, reloading registry")
		state.actor.requestAppliances(ctx)
	case domain.GetAppliancesResponse:
		// registry refresh after an appliance list reload
		if !msg.HasResponseError() {
			state.actor.buildRegistry(msg.Appliances)
		}
	case domain.RefreshApplianceResponse:
		// resync after a command round trip
		if msg.HasResponseError() {
			state.actor.logger.Error("control@idle: RefreshApplianceResponse error", zap.Error(msg.GetResponseError()))
			return
		}
		if msg.Appliance != nil {
			state.actor.publishApplianceState(msg.Appliance)
		}
	default:
		state.actor.logger.Debug("control@idle: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

// Await command response state

type ACAwaitCommandResponseState struct {
	ActorState
	actor       *ApplianceControlActor
	applianceID string
}

func (state ACAwaitCommandResponseState) Name() string {
	return "awaitCommandResponse"
}

func (state ACAwaitCommandResponseState) Receive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.SendCommandResponse:
		ctx.SetReceiveTimeout(0)
		if msg.HasResponseError() {
			state.actor.logger.Error("control@awaitCommandResponse: SendCommandResponse error", zap.Error(msg.GetResponseError()))
		} else {
			state.actor.logger.Debug("control@awaitCommandResponse: SendCommandResponse")
		}
		// success or not, resync the appliance to converge on cloud truth
		state.actor.requestRefresh(ctx, state.applianceID)
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	case *actor.ReceiveTimeout:
		ctx.SetReceiveTimeout(0)
		state.actor.logger.Debug("control@awaitCommandResponse: ReceiveTimeout")
		state.actor.requestRefresh(ctx, state.applianceID)
		state.actor.UnbecomeStacked()
		state.actor.stash.UnstashAll(ctx)
	default:
		state.actor.logger.Debug("control@awaitCommandResponse: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.actor.stash.Stash(ctx, msg)
	}
}

func (state ACAwaitCommandResponseState) OnEnterAction(ctx actor.Context, applianceID, command string) ACAwaitCommandResponseState {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.actor.honActor,
		domain.SendCommandRequest{ApplianceID: applianceID, Command: command}, 25*time.Second),
		func(err error) any {
			return domain.SendCommandResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})
	ctx.SetReceiveTimeout(30 * time.Second)
	return state
}

// Other actor function helpers

func (state *ApplianceControlActor) requestAppliances(ctx actor.Context) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.honActor, domain.GetAppliancesRequest{}, 5*time.Second), func(err error) any {
		return domain.GetAppliancesResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}

func (state *ApplianceControlActor) buildRegistry(appliances []*honcloud.Appliance) {
	registry := make(map[string]switchEntry)
	for _, appliance := range appliances {
		device := events.ApplianceDevice(appliance)
		for _, desc := range domain.EligibleSwitches(appliance) {
			registry[events.ApplianceSwitchId(device, desc)] = switchEntry{
				appliance: appliance,
				desc:      desc,
			}
		}
	}
	state.registry = registry
	state.logger.Info("control: switch registry built", zap.Int("switches", len(registry)))
}

func (state *ApplianceControlActor) handleToggle(ctx actor.Context, cmd domain.SwitchToggleRequest) {
	entry, ok := state.registry[cmd.SwitchID]
	if !ok {
		state.logger.Warn("control: unknown switch", zap.String("switch", cmd.SwitchID))
		return
	}
	if !state.control.Available(entry.appliance, entry.desc) {
		state.logger.Warn("control: switch not available", zap.String("switch", cmd.SwitchID))
		state.publishSwitchState(entry, cmd.SwitchID)
		return
	}
	command, err := state.control.ApplyToggle(entry.appliance, entry.desc, cmd.Enable)
	if err != nil {
		if errors.Is(err, honcloud.ErrReadOnlyParameter) {
			state.logger.Warn("control: switch is read only", zap.String("switch", cmd.SwitchID))
		} else {
			state.logger.Error("control: toggle failed", zap.String("switch", cmd.SwitchID), zap.Error(err))
		}
		// snap the entity back to its actual state
		state.publishSwitchState(entry, cmd.SwitchID)
		return
	}
	// optimistic update, the next refresh corrects it if the cloud disagrees
	state.eventStream.Publish(domain.SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: cmd.SwitchID},
		Value:                  cmd.Enable,
		Available:              true,
	})
	if command == "" {
		// config switches only stage the option locally
		return
	}
	state.BecomeStacked(ACAwaitCommandResponseState{
		actor:       state,
		applianceID: entry.appliance.ID,
	}.OnEnterAction(ctx, entry.appliance.ID, command))
}

func (state *ApplianceControlActor) publishSwitchState(entry switchEntry, switchID string) {
	state.eventStream.Publish(domain.SwitchSensorUpdateEvent{
		SensorUpdateEventMixIn: domain.SensorUpdateEventMixIn{Id: switchID},
		Value:                  state.control.IsOn(entry.appliance, entry.desc),
		Available:              state.control.Available(entry.appliance, entry.desc),
	})
}

func (state *ApplianceControlActor) publishApplianceState(appliance *honcloud.Appliance) {
	evs := events.ApplianceStateToUpdateEvents(appliance, state.control)
	for _, ev := range evs {
		state.eventStream.Publish(ev)
	}
}

func (state *ApplianceControlActor) requestRefresh(ctx actor.Context, applianceID string) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.honActor, domain.RefreshApplianceRequest{
		ApplianceID: applianceID,
	}, 25*time.Second), func(err error) any {
		return domain.RefreshApplianceResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}
