package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/carsim/infra/mqtt"
)

// InputConfig selects pedal sources besides the local ones.
type InputConfig struct {
	// MQTT enables remote pedals read from <topic_prefix>/vehicle/<id>/pedals.
	MQTT    *mqtt.Config `json:"mqtt"`
	StaleMS int          `json:"stale_ms"`
}

func (c *InputConfig) SetDefaults() {
	if c.StaleMS == 0 {
		c.StaleMS = int(mqtt.DefaultPedalStale / time.Millisecond)
	}
}

func (c InputConfig) Validate() error {
	if c.StaleMS < 0 {
		return fmt.Errorf("stale_ms must not be negative")
	}
	if c.MQTT != nil {
		if err := c.MQTT.Validate(); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	return nil
}

// Stale returns how long a remote pedal position stays valid.
func (c InputConfig) Stale() time.Duration {
	return time.Duration(c.StaleMS) * time.Millisecond
}
