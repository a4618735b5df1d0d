package config

import (
	"testing"

	"github.com/nalgeon/be"
	"github.com/xplshn/vslc/pkg/cli"
)

func TestDefaults(t *testing.T) {
	cfg := NewConfig()
	be.Equal(t, cfg.Target.Name, "amd64_sysv")
	be.True(t, cfg.IsWarningEnabled(WarnUnreachableCode))
	be.True(t, cfg.IsWarningEnabled(WarnMissingReturn))
	be.True(t, !cfg.IsFeatureEnabled(FeatAsmComments))
}

func TestSetTarget(t *testing.T) {
	cfg := NewConfig()
	be.Err(t, cfg.SetTarget("linux", "amd64", "amd64_apple"), nil)
	be.Equal(t, cfg.Target.ZeroSection, "__DATA,__data")
	be.Equal(t, cfg.GOOS, "linux")

	be.Err(t, cfg.SetTarget("linux", "amd64", ""), nil)
	be.Equal(t, cfg.Target.Name, "amd64_sysv")
	be.Equal(t, cfg.Target.StringSection, ".rodata")

	be.Err(t, cfg.SetTarget("darwin", "amd64", ""), nil)
	be.Equal(t, cfg.Target.Name, "amd64_apple")

	be.Err(t, cfg.SetTarget("linux", "amd64", "rv64"), "unsupported target 'rv64'")
	be.Equal(t, TargetNames(), []string{"amd64_apple", "amd64_sysv"})
}

func TestApplyFlag(t *testing.T) {
	tests := []struct {
		flag string
		err  string
		want func(*Config) bool
	}{
		{"-Fasm-comments", "", func(c *Config) bool { return c.IsFeatureEnabled(FeatAsmComments) }},
		{"-Wno-missing-return", "", func(c *Config) bool { return !c.IsWarningEnabled(WarnMissingReturn) }},
		{"-Wno-all", "", func(c *Config) bool {
			return !c.IsWarningEnabled(WarnMissingReturn) && !c.IsWarningEnabled(WarnUnreachableCode)
		}},
		{"-Wbogus", "unknown warning 'bogus'", nil},
		{"-Fbogus", "unknown feature 'bogus'", nil},
		{"-Xfoo", "unknown flag '-Xfoo'", nil},
	}
	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			cfg := NewConfig()
			err := cfg.ApplyFlag(tt.flag)
			if tt.err != "" {
				be.Err(t, err, tt.err)
				return
			}
			be.Err(t, err, nil)
			be.True(t, tt.want(cfg))
		})
	}
}

func TestFlagGroups(t *testing.T) {
	cfg := NewConfig()
	fs := cli.NewFlagSet("vslc")
	warnings, features := cfg.SetupFlagGroups(fs)
	be.Equal(t, len(warnings), int(WarnCount))
	be.Equal(t, len(features), int(FeatCount))

	be.Err(t, fs.Parse([]string{"-Wno-unreachable-code", "-Fasm-comments", "in.vast"}), nil)
	cfg.ApplyFlagGroups(warnings, features)

	be.True(t, !cfg.IsWarningEnabled(WarnUnreachableCode))
	be.True(t, cfg.IsWarningEnabled(WarnMissingReturn))
	be.True(t, cfg.IsFeatureEnabled(FeatAsmComments))
	be.Equal(t, fs.Args(), []string{"in.vast"})
}
