// Package testdata generates realistic device registrations, telemetry, and
// user profiles for exercising the mock API and MQTT scenarios.
package testdata

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

// DeviceTypes are the device categories the factory can synthesise.
var DeviceTypes = []string{"light", "thermostat", "sensor", "camera", "lock", "switch"}

var (
	sensorTypes   = []string{"temperature", "humidity", "motion", "door", "smoke", "co2"}
	locations     = []string{"living_room", "bedroom", "kitchen", "bathroom", "garage", "office", "hallway", "basement"}
	manufacturers = []string{"SmartHome Inc.", "IoT Solutions", "ConnectedDevices"}
	roles         = []string{"admin", "user", "viewer"}
)

// Factory produces synthetic test data. A zero seed gives time-based
// randomness; a fixed seed gives reproducible data.
type Factory struct {
	rng *rand.Rand
}

// New creates a factory. seed 0 derives one from the clock.
func New(seed int64) *Factory {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Factory{rng: rand.New(rand.NewSource(seed))}
}

// Device generates device registration data. Empty deviceType, deviceID, or
// location are filled in randomly.
func (f *Factory) Device(deviceType, deviceID, location string) map[string]any {
	if deviceType == "" {
		deviceType = f.pick(DeviceTypes)
	}
	if deviceID == "" {
		deviceID = fmt.Sprintf("%s_%s", deviceType, uuid.NewString()[:8])
	}
	if location == "" {
		location = f.pick(locations)
	}

	return map[string]any{
		"device_id":        deviceID,
		"type":             deviceType,
		"name":             fmt.Sprintf("%s - %s", deviceType, location),
		"location":         location,
		"manufacturer":     f.pick(manufacturers),
		"model":            fmt.Sprintf("%s-%d", deviceType, 100+f.rng.Intn(900)),
		"firmware_version": fmt.Sprintf("%d.%d.%d", 1+f.rng.Intn(3), f.rng.Intn(10), f.rng.Intn(21)),
		"mac_address":      f.macAddress(),
		"ip_address":       fmt.Sprintf("192.168.%d.%d", f.rng.Intn(256), 1+f.rng.Intn(254)),
		"registered_at":    time.Now().UTC().Format(time.RFC3339),
	}
}

// Telemetry generates a device-type-specific telemetry reading.
func (f *Factory) Telemetry(deviceType, deviceID string) map[string]any {
	t := map[string]any{
		"device_id":       deviceID,
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"battery_level":   20 + f.rng.Intn(81),
		"signal_strength": -80 + f.rng.Intn(51),
		"uptime_seconds":  f.rng.Intn(86400 * 30),
	}

	switch deviceType {
	case "thermostat":
		t["temperature"] = round1(18 + f.rng.Float64()*10)
		t["target_temperature"] = float64(20 + f.rng.Intn(4))
		t["humidity"] = 30 + f.rng.Intn(41)
		t["mode"] = f.pick([]string{"heat", "cool", "auto", "off"})
	case "light":
		t["status"] = f.pick([]string{"on", "off"})
		t["brightness"] = f.rng.Intn(101)
		t["color_temp"] = 2700 + f.rng.Intn(3801)
		t["power_consumption_watts"] = round1(5 + f.rng.Float64()*55)
	case "sensor":
		sensorType := f.pick(sensorTypes)
		t["sensor_type"] = sensorType
		switch sensorType {
		case "temperature":
			t["value"] = round1(15 + f.rng.Float64()*15)
			t["unit"] = "celsius"
		case "humidity":
			t["value"] = 20 + f.rng.Intn(61)
			t["unit"] = "percent"
		case "motion":
			t["detected"] = f.rng.Intn(2) == 1
		case "door":
			t["open"] = f.rng.Intn(2) == 1
		default: // smoke, co2
			t["alarm"] = f.rng.Intn(2) == 1
			t["level"] = f.rng.Intn(101)
		}
	case "camera":
		t["recording"] = f.rng.Intn(2) == 1
		t["motion_detected"] = f.rng.Intn(2) == 1
		t["resolution"] = f.pick([]string{"720p", "1080p", "4K"})
		t["fps"] = f.pick([]string{"15", "24", "30", "60"})
	case "lock":
		t["locked"] = f.rng.Intn(2) == 1
		t["last_user"] = fmt.Sprintf("user_%s", uuid.NewString()[:8])
	case "switch":
		t["state"] = f.pick([]string{"on", "off"})
		t["toggle_count"] = f.rng.Intn(10000)
	}
	return t
}

// User generates a user profile for API authentication tests.
func (f *Factory) User(role string) map[string]any {
	if role == "" {
		role = f.pick(roles)
	}
	id := uuid.NewString()
	return map[string]any{
		"user_id":  id,
		"username": fmt.Sprintf("%s_%s", role, id[:8]),
		"role":     role,
		"email":    fmt.Sprintf("%s@example.test", id[:8]),
	}
}

// AutomationRule generates an automation rule linking a trigger device to an
// action device.
func (f *Factory) AutomationRule(triggerDevice, actionDevice string) map[string]any {
	return map[string]any{
		"rule_id": uuid.NewString(),
		"name":    fmt.Sprintf("rule-%s", uuid.NewString()[:8]),
		"enabled": true,
		"trigger": map[string]any{
			"device_id": triggerDevice,
			"condition": f.pick([]string{"motion_detected", "temperature_above", "door_opened"}),
		},
		"action": map[string]any{
			"device_id": actionDevice,
			"command":   f.pick([]string{"turn_on", "turn_off", "set_temperature"}),
		},
	}
}

func (f *Factory) pick(options []string) string {
	return options[f.rng.Intn(len(options))]
}

func (f *Factory) macAddress() string {
	b := make([]byte, 6)
	f.rng.Read(b)
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", b[0], b[1], b[2], b[3], b[4], b[5])
}

func round1(v float64) float64 {
	return float64(int(v*10+0.5)) / 10
}
