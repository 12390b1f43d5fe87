package actor

import (
	"context"
	"fmt"
	"time"

	"hon2mqtt/internal/core/domain"
	"hon2mqtt/internal/util/actorutil"
	"hon2mqtt/pkg/honcloud"

	"github.com/asynkron/protoactor-go/actor"
	"go.uber.org/zap"
)

const (
	honOpenTimeout    = 60 * time.Second
	honRequestTimeout = 20 * time.Second
)

// HonActor owns the cloud session. All cloud I/O runs as background tasks
// while the actor parks in a waiting state, so a slow cloud call never
// blocks the mailbox forever.
type HonActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	client   honcloud.Client
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

type honPushError struct {
	err error
}

func NewHonActor(client honcloud.Client, logger *zap.Logger) *HonActor {
	act := &HonActor{
		client:   client,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger("hon", logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *HonActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *HonActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("hon@starting started")
		openCtx, cancel := context.WithTimeout(context.Background(), honOpenTimeout)
		defer cancel()
		if err := state.client.Open(openCtx); err != nil {
			panic(err)
		}
		state.subscribePush(ctx)
		if ctx.Parent() != nil {
			ctx.Send(ctx.Parent(), domain.CloudSessionOpened{})
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		_ = state.client.Close()
	default:
		state.logger.Debug("hon@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *HonActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("hon@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_HON,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetAppliancesRequest:
		state.logger.Debug("hon@default: GetAppliancesRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getAppliances),
			mapTaskResult[domain.GetAppliancesResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetAppliancesResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(honRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	case domain.RefreshApplianceRequest:
		state.logger.Debug("hon@default: RefreshApplianceRequest",
			zap.String("appliance", msg.ApplianceID))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		applianceID := msg.ApplianceID
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.RefreshApplianceResponse, error) {
			return state.refreshAppliance(applianceID)
		}),
			mapTaskResult[domain.RefreshApplianceResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.RefreshApplianceResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(honRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	case domain.SendCommandRequest:
		state.logger.Debug("hon@default: SendCommandRequest",
			zap.String("appliance", msg.ApplianceID), zap.String("command", msg.Command))
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)
		applianceID, command := msg.ApplianceID, msg.Command
		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, func() (*domain.SendCommandResponse, error) {
			return state.sendCommand(applianceID, command)
		}),
			mapTaskResult[domain.SendCommandResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.SendCommandResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(honRequestTimeout).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingCloud)
	case honPushError:
		// losing the push stream invalidates the session, restart to reconnect
		state.logger.Warn("hon@default: push stream error", zap.Error(msg.err))
		panic(msg.err)
	case *actor.Stopping:
		_ = state.client.Close()
	case *actor.Restarting:
		_ = state.client.Close()
	default:
		state.logger.Debug("hon@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *HonActor) WaitingCloud(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("hon@waitingCloud backgroundTaskResult",
			zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		_ = state.client.Close()
	case *actor.Restarting:
		_ = state.client.Close()
	default:
		state.logger.Debug("hon@waitingCloud stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// subscribePush forwards push notifications to the parent actor. The
// callbacks run on the websocket goroutine, so they go through the root
// context instead of touching actor state.
func (state *HonActor) subscribePush(ctx actor.Context) {
	parent := ctx.Parent()
	self := ctx.Self()
	system := ctx.ActorSystem()
	state.client.SubscribeUpdates(func(applianceID string) {
		if parent != nil {
			system.Root.Send(parent, domain.ApplianceUpdatePush{ApplianceID: applianceID})
		}
	})
	state.client.OnPushError(func(err error) {
		system.Root.Send(self, honPushError{err: err})
	})
}

func (a *HonActor) getAppliances() (*domain.GetAppliancesResponse, error) {
	return &domain.GetAppliancesResponse{
		Appliances: a.client.Appliances(),
	}, nil
}

func (a *HonActor) refreshAppliance(applianceID string) (*domain.RefreshApplianceResponse, error) {
	reqCtx, cancel := context.WithTimeout(context.Background(), honRequestTimeout)
	defer cancel()
	if err := a.client.RefreshAppliance(reqCtx, applianceID); err != nil {
		a.logger.Error("hon: refresh failed", zap.String("appliance", applianceID), zap.Error(err))
		return nil, err
	}
	appliance, ok := a.client.Appliance(applianceID)
	if !ok {
		return nil, fmt.Errorf("unknown appliance %s", applianceID)
	}
	return &domain.RefreshApplianceResponse{
		Appliance: appliance,
	}, nil
}

func (a *HonActor) sendCommand(applianceID, command string) (*domain.SendCommandResponse, error) {
	reqCtx, cancel := context.WithTimeout(context.Background(), honRequestTimeout)
	defer cancel()
	if err := a.client.SendCommand(reqCtx, applianceID, command); err != nil {
		a.logger.Error("hon: send command failed", zap.String("appliance", applianceID),
			zap.String("command", command), zap.Error(err))
		return nil, err
	}
	return &domain.SendCommandResponse{}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
