package actor

import (
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
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"
)

// PollerActor polls every appliance on a fixed interval and turns the
// refreshed snapshots into sensor and switch update events. Push
// notifications trigger an out of band refresh of a single appliance.
type PollerActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	honActor     *actor.PID
	config       *config.Config
	eventStream  *eventstream.EventStream
	control      port.SwitchController
	applianceIDs []string

	logger *zap.Logger
}

type pollerTick struct {
}

func NewPollerActor(config *config.Config, honActor *actor.PID, eventStream *eventstream.EventStream, logger *zap.Logger) *PollerActor {
	act := &PollerActor{
		config:      config,
		honActor:    honActor,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger(domain.ACTOR_ID_POLLER, logger),
		eventStream: eventStream,
		control:     service.NewSwitchControl(),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *PollerActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *PollerActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("poller@starting started")

		if state.config.MonitorConfig.PollIntervalMillis > 0 {
			state.scheduler = scheduler.NewTimerScheduler(ctx)
			state.scheduler.RequestOnce(time.Duration(state.config.MonitorConfig.PollIntervalMillis)*time.Millisecond, ctx.Self(), pollerTick{})
		}

		state.requestAppliances(ctx)
		state.behavior.Become(state.WaitingInfoReceive)
	case *actor.Restarting:
	default:
		state.logger.Debug("poller@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *PollerActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("poller@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_POLLER,
			Healthy: true,
			State:   "idle",
		})
	case pollerTick:
		state.logger.Debug("poller@default tick")
		for _, id := range state.applianceIDs {
			state.requestRefresh(ctx, id)
		}
		// schedule next tick
		state.scheduler.RequestOnce(time.Duration(state.config.MonitorConfig.PollIntervalMillis)*time.Millisecond, ctx.Self(), pollerTick{})
	case domain.ApplianceUpdatePush:
		state.logger.Debug("poller@default ApplianceUpdatePush", zap.String("appliance", msg.ApplianceID))
		state.requestRefresh(ctx, msg.ApplianceID)
	case domain.CloudSessionOpened:
		// the session was rebuilt, reload the appliance list
		state.logger.Debug("poller@default CloudSessionOpened")
		state.requestAppliances(ctx)
	case domain.GetAppliancesResponse:
		if msg.HasResponseError() {
			state.logger.Error("poller@default GetAppliancesResponse error", zap.Error(msg.GetResponseError()))
			return
		}
		state.applyApplianceList(msg.Appliances)
	case domain.RefreshApplianceResponse:
		if msg.HasResponseError() {
			state.logger.Error("poller@default RefreshApplianceResponse error", zap.Error(msg.GetResponseError()))
			return
		}
		state.logger.Debug("poller@default RefreshApplianceResponse")
		if msg.Appliance != nil {
			evs := events.ApplianceStateToUpdateEvents(msg.Appliance, state.control)
			for _, ev := range evs {
				state.eventStream.Publish(ev)
			}
		}
	default:
		state.logger.Debug("poller@default: recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *PollerActor) WaitingInfoReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetAppliancesResponse:
		if msg.HasResponseError() {
			state.logger.Error("poller@waitingInfo GetAppliancesResponse error", zap.Error(msg.GetResponseError()))
			state.behavior.Become(state.DefaultReceive)
			state.stash.UnstashAll(ctx)
			return
		}
		state.logger.Debug("poller@waitingInfo GetAppliancesResponse",
			zap.Int("count", len(msg.Appliances)))
		state.applyApplianceList(msg.Appliances)
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("poller@waitingInfo: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// applyApplianceList replaces the polled id set and publishes a snapshot
// for every appliance so entities have a state right away.
func (state *PollerActor) applyApplianceList(appliances []*honcloud.Appliance) {
	state.applianceIDs = state.applianceIDs[:0]
	for _, appliance := range appliances {
		state.applianceIDs = append(state.applianceIDs, appliance.ID)
		evs := events.ApplianceStateToUpdateEvents(appliance, state.control)
		for _, ev := range evs {
			state.eventStream.Publish(ev)
		}
	}
}

func (state *PollerActor) requestAppliances(ctx actor.Context) {
	PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.honActor, domain.GetAppliancesRequest{}, 5*time.Second), func(err error) any {
		return domain.GetAppliancesResponse{
			ActorResponseMixIn: domain.ActorResponseMixIn{
				ResponseError: err,
			},
		}
	})
}

func (state *PollerActor) requestRefresh(ctx actor.Context, applianceID string) {
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
