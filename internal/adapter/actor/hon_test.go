package actor

import (
	"testing"
	"time"

	"hon2mqtt/internal/core/domain"
	"hon2mqtt/internal/util/actorutil"
	"hon2mqtt/pkg/honcloud"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestGetAppliancesHonActor(t *testing.T) {

	assert := assert.New(t)

	client := honcloud.CreateTestClient()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewHonActor(client, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetAppliancesRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetAppliancesResponse)

	assert.Len(resp.Appliances, 2, "appliance count")

	byID := map[string]*honcloud.Appliance{}
	for _, appliance := range resp.Appliances {
		byID[appliance.ID] = appliance
	}

	wm := byID["11-22-33-44-55-66"]
	if assert.NotNil(wm, "washing machine present") {
		assert.Equal(honcloud.TYPE_WASHING_MACHINE, wm.ApplianceType)
		assert.Equal("Washer", wm.Nickname)
	}

	ac := byID["aa-bb-cc-dd-ee-ff"]
	if assert.NotNil(ac, "air conditioner present") {
		assert.Equal(honcloud.TYPE_AIR_CONDITIONER, ac.ApplianceType)
	}

	context.Stop(pid)

	as.Shutdown()
}

func TestRefreshApplianceHonActor(t *testing.T) {

	assert := assert.New(t)

	client := honcloud.CreateTestClient()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewHonActor(client, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.RefreshApplianceRequest{ApplianceID: "11-22-33-44-55-66"}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.RefreshApplianceResponse)

	if assert.NotNil(resp.Appliance, "refreshed appliance") {
		assert.Equal("11-22-33-44-55-66", resp.Appliance.ID)
		assert.Equal("1", resp.Appliance.Get("remoteCtrValid"))
	}

	context.Stop(pid)

	as.Shutdown()
}

func TestSendCommandHonActor(t *testing.T) {

	assert := assert.New(t)

	client := honcloud.CreateTestClient()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewHonActor(client, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.SendCommandRequest{ApplianceID: "11-22-33-44-55-66", Command: honcloud.COMMAND_START_PROGRAM}
	_, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}

	assert.Contains(client.SentCommands(), "11-22-33-44-55-66:startProgram", "command reached the cloud client")

	context.Stop(pid)

	as.Shutdown()
}
