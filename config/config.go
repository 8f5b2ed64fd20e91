// Package config loads the exporter's YAML configuration: the device list,
// global credentials and the per-device session and probe options.
package config

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/nanoncore/cpe-southbound/types"
)

type Config struct {
	Listen      string             `yaml:"listen"`
	ProbePath   string             `yaml:"probe_path"`
	ScanPath    string             `yaml:"scan_path"`
	MetricsPath string             `yaml:"metrics_path"`
	Timeout     time.Duration      `yaml:"timeout"`
	Scan        Scan               `yaml:"scan"`
	Devices     map[string]*Device `yaml:"devices"`
	Global      Global             `yaml:"global"`
}

func DefaultConfig() Config {
	return Config{
		Listen:      ":9778",
		ProbePath:   "/probe",
		ScanPath:    "/scan",
		MetricsPath: "/metrics",
		Timeout:     60 * time.Second,
		Scan:        DefaultScan(),
		Global: Global{
			Options: DefaultOptions(),
		},
	}
}

func DefaultScan() Scan {
	return Scan{
		Concurrency:    16,
		DialsPerSecond: 10,
		Burst:          4,
	}
}

func DefaultOptions() Options {
	return Options{
		ConnectTimeout: 10 * time.Second,
		CommandTimeout: 15 * time.Second,
	}
}

func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	*c = DefaultConfig()

	type plain Config
	if err := unmarshal((*plain)(c)); err != nil {
		return err
	}

	for _, device := range c.Devices {
		if device == nil {
			continue
		}
		if device.Username == nil {
			device.Username = &c.Global.Username
		}
		if device.Password == nil {
			device.Password = &c.Global.Password
		}
		if device.Options == nil {
			options := c.Global.Options
			device.Options = &options
		} else {
			merged := device.Options.inherit(c.Global.Options)
			device.Options = &merged
		}
	}

	return c.Validate()
}

// Validate checks every device can be turned into a descriptor
func (c *Config) Validate() error {
	for _, name := range c.DeviceNames() {
		device := c.Devices[name]
		if device == nil {
			return fmt.Errorf("device %q: empty definition", name)
		}
		if _, err := device.Descriptor(name); err != nil {
			return fmt.Errorf("device %q: %w", name, err)
		}
		if err := device.Options.validatePrompts(); err != nil {
			return fmt.Errorf("device %q: %w", name, err)
		}
	}
	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("scan.concurrency must be at least 1")
	}
	return nil
}

// DeviceNames returns the configured device names, sorted
func (c *Config) DeviceNames() []string {
	names := make([]string, 0, len(c.Devices))
	for name := range c.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Scan struct {
	Concurrency    int     `yaml:"concurrency"`
	DialsPerSecond float64 `yaml:"dials_per_second"`
	Burst          int     `yaml:"burst"`
}

type Global struct {
	Username string  `yaml:"username"`
	Password string  `yaml:"password"`
	Options  Options `yaml:"options"`
}

type Options struct {
	ConnectTimeout         time.Duration      `yaml:"connect_timeout"`
	CommandTimeout         time.Duration      `yaml:"command_timeout"`
	MaxConsecutiveTimeouts int                `yaml:"max_consecutive_timeouts"`
	Prompt                 string             `yaml:"prompt"`
	LoginPrompt            string             `yaml:"login_prompt"`
	PasswordPrompt         string             `yaml:"password_prompt"`
	Commands               types.CommandTable `yaml:"commands"`
}

// inherit fills unset fields from g. Command lists replace the global
// ones per capability.
func (o Options) inherit(g Options) Options {
	if o.ConnectTimeout == 0 {
		o.ConnectTimeout = g.ConnectTimeout
	}
	if o.CommandTimeout == 0 {
		o.CommandTimeout = g.CommandTimeout
	}
	if o.MaxConsecutiveTimeouts == 0 {
		o.MaxConsecutiveTimeouts = g.MaxConsecutiveTimeouts
	}
	if o.Prompt == "" {
		o.Prompt = g.Prompt
	}
	if o.LoginPrompt == "" {
		o.LoginPrompt = g.LoginPrompt
	}
	if o.PasswordPrompt == "" {
		o.PasswordPrompt = g.PasswordPrompt
	}
	o.Commands = g.Commands.Override(o.Commands)
	return o
}

func (o *Options) validatePrompts() error {
	for key, pattern := range map[string]string{
		"prompt":          o.Prompt,
		"login_prompt":    o.LoginPrompt,
		"password_prompt": o.PasswordPrompt,
	} {
		if pattern == "" {
			continue
		}
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

type Device struct {
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	Family    string            `yaml:"family"`
	Transport string            `yaml:"transport"`
	Username  *string           `yaml:"username"`
	Password  *string           `yaml:"password"`
	Options   *Options          `yaml:"options"`
	Metadata  map[string]string `yaml:"metadata"`
}

// Descriptor builds the connection descriptor of the device. Prompt
// overrides travel in the descriptor metadata.
func (d *Device) Descriptor(name string) (*types.ConnectionDescriptor, error) {
	family, ok := types.ParseFamily(d.Family)
	if !ok {
		return nil, fmt.Errorf("%w: unknown device family %q", types.ErrInvalidDescriptor, d.Family)
	}

	desc := &types.ConnectionDescriptor{
		Name:      name,
		Host:      d.Host,
		Port:      d.Port,
		Family:    family,
		Transport: types.Transport(d.Transport),
		Metadata:  make(map[string]string, len(d.Metadata)+3),
	}
	if d.Username != nil {
		desc.Username = *d.Username
	}
	if d.Password != nil {
		desc.Password = *d.Password
	}
	for k, v := range d.Metadata {
		desc.Metadata[k] = v
	}
	if d.Options != nil {
		setIfEmpty(desc.Metadata, "prompt", d.Options.Prompt)
		setIfEmpty(desc.Metadata, "login_prompt", d.Options.LoginPrompt)
		setIfEmpty(desc.Metadata, "password_prompt", d.Options.PasswordPrompt)
	}

	if err := desc.Validate(); err != nil {
		return nil, err
	}
	return desc, nil
}

func setIfEmpty(m map[string]string, key, value string) {
	if value == "" {
		return
	}
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}
