package util

import (
	"hon2mqtt/internal/config"

	"go.uber.org/zap"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		Cloud: config.CloudConfig{
			Email:    "test@example.org",
			Password: "secret",
		},
		MQTT: config.MQTTConfig{
			Host:      "localhost",
			Port:      1883,
			BaseTopic: "hon2mqtt",
		},
		MonitorConfig: config.MonitorConfig{
			PollIntervalMillis: 10000,
		},
		Port: 8080,
	}
}
