package actorutil

import (
	"testing"

	"hon2mqtt/internal/core/domain"
	"hon2mqtt/internal/mqtt"

	"github.com/stretchr/testify/assert"
)

func TestParsedMQTTCommandToCommand(t *testing.T) {

	assert := assert.New(t)

	on, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "hon_wm_12345678_active",
		Command:  "switch",
		Payload:  "on",
	})
	if assert.NoError(err) {
		toggle := on.(domain.SwitchToggleRequest)
		assert.Equal("hon_wm_12345678_active", toggle.SwitchID)
		assert.True(toggle.Enable)
	}

	off, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "hon_wm_12345678_active",
		Command:  "switch",
		Payload:  "off",
	})
	if assert.NoError(err) {
		toggle := off.(domain.SwitchToggleRequest)
		assert.False(toggle.Enable)
	}
}

func TestParsedMQTTCommandToCommandUnknown(t *testing.T) {

	assert := assert.New(t)

	cmd, err := ParsedMQTTCommandToCommand(mqtt.ParsedMQTTCommand{
		DeviceId: "hon_wm_12345678_active",
		Command:  "light",
		Payload:  "on",
	})
	assert.NoError(err)
	assert.Nil(cmd, "unrecognized commands are dropped")
}
