package config

import (
	"go.uber.org/zap"

	southbound "github.com/nanoncore/cpe-southbound"
)

// ClientOptions translates the device options into client options
func (o *Options) ClientOptions(logger *zap.Logger) []southbound.ClientOption {
	opts := []southbound.ClientOption{southbound.WithLogger(logger)}
	if o == nil {
		return opts
	}
	opts = append(opts,
		southbound.WithConnectTimeout(o.ConnectTimeout),
		southbound.WithCommandTimeout(o.CommandTimeout),
		southbound.WithMaxConsecutiveTimeouts(o.MaxConsecutiveTimeouts),
	)
	if !o.Commands.IsZero() {
		opts = append(opts, southbound.WithCommands(o.Commands))
	}
	return opts
}

// Target is one configured device ready to be probed
type Target struct {
	Name       string
	Descriptor *southbound.ConnectionDescriptor
	Options    *Options
}

// Targets returns every device as a probe target, sorted by name
func (c *Config) Targets() ([]Target, error) {
	targets := make([]Target, 0, len(c.Devices))
	for _, name := range c.DeviceNames() {
		t, err := c.Target(name)
		if err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, nil
}

// Target returns the named device as a probe target
func (c *Config) Target(name string) (Target, error) {
	device, ok := c.Devices[name]
	if !ok || device == nil {
		return Target{}, &UnknownDeviceError{Name: name}
	}
	desc, err := device.Descriptor(name)
	if err != nil {
		return Target{}, err
	}
	return Target{Name: name, Descriptor: desc, Options: device.Options}, nil
}

// UnknownDeviceError is returned for a name missing from the device list
type UnknownDeviceError struct {
	Name string
}

func (e *UnknownDeviceError) Error() string {
	return "unknown device " + e.Name
}
