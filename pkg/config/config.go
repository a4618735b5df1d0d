package config

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xplshn/vslc/pkg/cli"
	"modernc.org/libqbe"
)

type Feature int

const (
	FeatAsmComments Feature = iota
	FeatCount
)

type Warning int

const (
	WarnUnreachableCode Warning = iota
	WarnMissingReturn
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

// Target describes how the assembly text is laid out for one platform ABI.
type Target struct {
	Name           string
	StringSection  string
	ZeroSection    string
	Declarations   []string
	StackAlignment int
}

var targets = map[string]Target{
	"amd64_sysv": {
		Name:          "amd64_sysv",
		StringSection: ".rodata",
		ZeroSection:   ".bss",
		Declarations: []string{
			".global main",
			`.section .note.GNU-stack,"",@progbits`,
		},
		StackAlignment: 16,
	},
	"amd64_apple": {
		Name:          "amd64_apple",
		StringSection: "__TEXT,__cstring",
		ZeroSection:   "__DATA,__data",
		Declarations: []string{
			".set printf, _printf",
			".set putchar, _putchar",
			".set puts, _puts",
			".set strtol, _strtol",
			".set exit, _exit",
			".set _main, main",
			".global _main",
		},
		StackAlignment: 16,
	},
}

const defaultTarget = "amd64_sysv"

type Config struct {
	Features   map[Feature]Info
	Warnings   map[Warning]Info
	FeatureMap map[string]Feature
	WarningMap map[string]Warning
	Target     Target
	GOOS       string
	GOARCH     string
	LinkerArgs []string
}

func NewConfig() *Config {
	cfg := &Config{
		Features:   make(map[Feature]Info),
		Warnings:   make(map[Warning]Info),
		FeatureMap: make(map[string]Feature),
		WarningMap: make(map[string]Warning),
		Target:     targets[defaultTarget],
	}

	features := map[Feature]Info{
		FeatAsmComments: {"asm-comments", false, "Annotate the emitted assembly with the construct being lowered."},
	}

	warnings := map[Warning]Info{
		WarnUnreachableCode: {"unreachable-code", true, "Warn about statements following a return or break."},
		WarnMissingReturn:   {"missing-return", true, "Warn about functions that never execute a return statement."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

// TargetNames lists the supported target flavors.
func TargetNames() []string {
	names := make([]string, 0, len(targets))
	for name := range targets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetTarget selects the target flavor. An empty name picks the host default.
func (c *Config) SetTarget(goos, goarch, name string) error {
	c.GOOS, c.GOARCH = goos, goarch
	if name != "" {
		t, ok := targets[name]
		if !ok {
			return fmt.Errorf("unsupported target '%s'. Supported: %s", name, strings.Join(TargetNames(), ", "))
		}
		c.Target = t
		return nil
	}

	host := libqbe.DefaultTarget(goos, goarch)
	if t, ok := targets[host]; ok {
		c.Target = t
		return nil
	}
	fmt.Fprintf(os.Stderr, "vslc: warning: host target '%s' is not an x86-64 ABI.\n", host)
	fmt.Fprintf(os.Stderr, "vslc: warning: defaulting to '%s'. The output will need a cross toolchain.\n", defaultTarget)
	c.Target = targets[defaultTarget]
	return nil
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// SetAllWarnings implements -Wall and -Wno-all.
func (c *Config) SetAllWarnings(enabled bool) {
	for i := Warning(0); i < WarnCount; i++ {
		c.SetWarning(i, enabled)
	}
}

// ApplyFlag applies one -W<name>, -Wno-<name>, -F<name> or -Fno-<name> flag.
func (c *Config) ApplyFlag(flag string) error {
	trimmed := strings.TrimPrefix(flag, "-")
	var isWarning bool
	switch {
	case strings.HasPrefix(trimmed, "W"):
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
	default:
		return fmt.Errorf("unknown flag '%s'", flag)
	}
	name := trimmed[1:]
	enable := !strings.HasPrefix(name, "no-")
	name = strings.TrimPrefix(name, "no-")

	if isWarning {
		if name == "all" {
			c.SetAllWarnings(enable)
			return nil
		}
		w, ok := c.WarningMap[name]
		if !ok {
			return fmt.Errorf("unknown warning '%s'", name)
		}
		c.SetWarning(w, enable)
		return nil
	}
	f, ok := c.FeatureMap[name]
	if !ok {
		return fmt.Errorf("unknown feature '%s'", name)
	}
	c.SetFeature(f, enable)
	return nil
}

// SetupFlagGroups registers the -W and -F flag groups and returns their entries,
// indexed by Warning and Feature respectively.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) ([]cli.FlagGroupEntry, []cli.FlagGroupEntry) {
	warningFlags := make([]cli.FlagGroupEntry, WarnCount)
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warningFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
	}
	featureFlags := make([]cli.FlagGroupEntry, FeatCount)
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		featureFlags[i] = cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description,
			Enabled: new(bool), Disabled: new(bool),
		}
	}
	fs.AddFlagGroup("Warning Flags", "Enable or disable specific warnings", "warning", "Available Warnings:", warningFlags)
	fs.AddFlagGroup("Feature Flags", "Enable or disable code generation features", "feature", "Available Features:", featureFlags)
	return warningFlags, featureFlags
}

// ApplyFlagGroups copies the parsed group entries back into the configuration.
func (c *Config) ApplyFlagGroups(warningFlags, featureFlags []cli.FlagGroupEntry) {
	for i, entry := range warningFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetWarning(Warning(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetWarning(Warning(i), false)
		}
	}
	for i, entry := range featureFlags {
		if entry.Enabled != nil && *entry.Enabled {
			c.SetFeature(Feature(i), true)
		}
		if entry.Disabled != nil && *entry.Disabled {
			c.SetFeature(Feature(i), false)
		}
	}
}
