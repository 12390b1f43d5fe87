package actor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	adactor "hon2mqtt/internal/adapter/actor"
	"hon2mqtt/internal/core/domain"
	"hon2mqtt/internal/core/events"
	"hon2mqtt/internal/util"
	"hon2mqtt/internal/util/actorutil"
	"hon2mqtt/pkg/honcloud"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []any
}

func (r *eventRecorder) record(event any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) switchEvents(switchID string) []domain.SwitchSensorUpdateEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SwitchSensorUpdateEvent
	for _, event := range r.events {
		if sw, ok := event.(domain.SwitchSensorUpdateEvent); ok && sw.Id == switchID {
			out = append(out, sw)
		}
	}
	return out
}

func TestApplianceControlToggleFlow(t *testing.T) {

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	cfg := util.LoadTestConfig()

	client := honcloud.CreateTestClient()

	// hon actor
	honProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewHonActor(client, logger)
	})
	honActorPID := context.Spawn(honProps)

	// applianceControl actor
	stream := &eventstream.EventStream{}
	recorder := &eventRecorder{}
	sub := stream.Subscribe(recorder.record)
	defer stream.Unsubscribe(sub)

	controlProps := actor.PropsFromProducer(func() actor.Actor {
		return NewApplianceControlActor(&cfg, honActorPID, stream, logger)
	})
	controlActorPID := context.Spawn(controlProps)

	time.Sleep(2 * time.Second)

	hcr, err := healthCheck(context, controlActorPID)
	if err != nil {
		t.Error(err)
		return
	}
	assert.True(t, hcr.Healthy, "actor should be healthy")
	assert.Equal(t, "idle", hcr.State, "actor state should be idle")

	wm, ok := client.Appliance("11-22-33-44-55-66")
	if !ok {
		t.Error("appliance not found")
		return
	}
	device := events.ApplianceDevice(wm)

	// control switch: toggling on starts the program
	activeID := device.Id + "_active"
	context.Send(controlActorPID, domain.SwitchToggleRequest{SwitchID: activeID, Enable: true})

	time.Sleep(1 * time.Second)

	assert.Contains(t, client.SentCommands(), "11-22-33-44-55-66:startProgram", "start command sent")

	updates := recorder.switchEvents(activeID)
	if assert.NotEmpty(t, updates, "optimistic switch update published") {
		assert.True(t, updates[0].Value)
		assert.True(t, updates[0].Available)
	}

	hcr, err = healthCheck(context, controlActorPID)
	if err != nil {
		t.Error(err)
		return
	}
	assert.True(t, hcr.Healthy, "actor should be healthy")
	assert.Equal(t, "idle", hcr.State, "actor back to idle after the command round trip")

	// config switch: toggling stages the option locally, no cloud command
	sentBefore := len(client.SentCommands())

	prewashID := device.Id + "_prewash"
	context.Send(controlActorPID, domain.SwitchToggleRequest{SwitchID: prewashID, Enable: true})

	time.Sleep(200 * time.Millisecond)

	assert.Len(t, client.SentCommands(), sentBefore, "program options do not reach the cloud")

	param, ok := wm.Setting("startProgram.prewash")
	if assert.True(t, ok) {
		assert.Equal(t, "1", param.Value(), "option staged for the next start")
	}

	prewashUpdates := recorder.switchEvents(prewashID)
	if assert.NotEmpty(t, prewashUpdates, "option update published") {
		assert.True(t, prewashUpdates[len(prewashUpdates)-1].Value)
	}

	context.Stop(controlActorPID)
	context.Stop(honActorPID)

	as.Shutdown()
}

func TestApplianceControlRegistryReload(t *testing.T) {

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	root := as.Root

	cfg := util.LoadTestConfig()

	client := honcloud.CreateTestClient()

	honProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewHonActor(client, logger)
	})
	honActorPID := root.Spawn(honProps)

	stream := &eventstream.EventStream{}
	controlProps := actor.PropsFromProducer(func() actor.Actor {
		return NewApplianceControlActor(&cfg, honActorPID, stream, logger)
	})
	controlActorPID := root.Spawn(controlProps)

	time.Sleep(2 * time.Second)

	// a reopened session hands out fresh appliance objects, toggles must
	// mutate those and not the ones from the first load
	reopened := honcloud.CreateTestClient()
	if err := reopened.Open(context.Background()); err != nil {
		t.Error(err)
		return
	}
	root.Send(controlActorPID, domain.GetAppliancesResponse{Appliances: reopened.Appliances()})

	time.Sleep(500 * time.Millisecond)

	oldWM, ok := client.Appliance("11-22-33-44-55-66")
	if !ok {
		t.Error("appliance not found")
		return
	}
	newWM, ok := reopened.Appliance("11-22-33-44-55-66")
	if !ok {
		t.Error("appliance not found")
		return
	}
	device := events.ApplianceDevice(newWM)

	prewashID := device.Id + "_prewash"
	root.Send(controlActorPID, domain.SwitchToggleRequest{SwitchID: prewashID, Enable: true})

	time.Sleep(500 * time.Millisecond)

	param, ok := newWM.Setting("startProgram.prewash")
	if assert.True(t, ok) {
		assert.Equal(t, "1", param.Value(), "toggle lands on the reloaded appliance")
	}
	oldParam, ok := oldWM.Setting("startProgram.prewash")
	if assert.True(t, ok) {
		assert.Equal(t, "0", oldParam.Value(), "stale appliance object untouched")
	}

	// the session reopen notification itself triggers a reload round trip
	root.Send(controlActorPID, domain.CloudSessionOpened{})

	time.Sleep(500 * time.Millisecond)

	hcr, err := healthCheck(root, controlActorPID)
	if err != nil {
		t.Error(err)
		return
	}
	assert.True(t, hcr.Healthy, "actor should be healthy")
	assert.Equal(t, "idle", hcr.State, "actor idle after the registry reload")

	root.Stop(controlActorPID)
	root.Stop(honActorPID)

	as.Shutdown()
}

func TestApplianceControlUnknownSwitch(t *testing.T) {

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	cfg := util.LoadTestConfig()

	client := honcloud.CreateTestClient()

	honProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewHonActor(client, logger)
	})
	honActorPID := context.Spawn(honProps)

	stream := &eventstream.EventStream{}
	controlProps := actor.PropsFromProducer(func() actor.Actor {
		return NewApplianceControlActor(&cfg, honActorPID, stream, logger)
	})
	controlActorPID := context.Spawn(controlProps)

	time.Sleep(2 * time.Second)

	context.Send(controlActorPID, domain.SwitchToggleRequest{SwitchID: "no_such_switch", Enable: true})

	time.Sleep(200 * time.Millisecond)

	assert.Empty(t, client.SentCommands(), "unknown switches are ignored")

	hcr, err := healthCheck(context, controlActorPID)
	if err != nil {
		t.Error(err)
		return
	}
	assert.True(t, hcr.Healthy, "actor should be healthy")
	assert.Equal(t, "idle", hcr.State)

	context.Stop(controlActorPID)
	context.Stop(honActorPID)

	as.Shutdown()
}

func healthCheck(ctx *actor.RootContext, pid *actor.PID) (*domain.ActorHealthResponse, error) {
	resp, err := ctx.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	if err != nil {
		return nil, err
	}
	hcr, ok := resp.(domain.ActorHealthResponse)
	if !ok {
		return nil, errors.New("unexpected response type")
	}
	return &hcr, nil
}
