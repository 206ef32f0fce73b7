// Package config gathers the settings of the gmpatch tools from
// environment variables and command line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/xyproto/env/v2"

	"gitlab.com/stephen-fox/gmpatch/conv"
	"gitlab.com/stephen-fox/gmpatch/memory"
	"gitlab.com/stephen-fox/gmpatch/process"
	"gitlab.com/stephen-fox/gmpatch/resource"
)

const (
	EnvPID         = "GMPATCH_PID"
	EnvProcess     = "GMPATCH_PROCESS"
	EnvBuild       = "GMPATCH_BUILD"
	EnvArena       = "GMPATCH_ARENA"
	EnvVerbose     = "GMPATCH_VERBOSE"
	EnvNoSecondary = "GMPATCH_NO_SECONDARY"
	EnvNoExternal  = "GMPATCH_NO_EXTERNAL"

	// DefaultProcess is the executable name looked up when neither
	// a PID nor a process name is configured.
	DefaultProcess = "DFC.exe"
)

// Config holds the settings shared by every gmpatch command.
type Config struct {
	PID     int
	Process string
	Build   string

	// Arena is an optional "<start>:<size>" range of target memory
	// that swap buffers are reserved from.
	Arena string

	Verbose     bool
	NoSecondary bool
	NoExternal  bool
}

// FromEnv returns a Config populated from the environment, with
// defaults for everything that is unset.
func FromEnv() Config {
	return Config{
		PID:         env.Int(EnvPID, 0),
		Process:     env.Str(EnvProcess, DefaultProcess),
		Build:       env.Str(EnvBuild, resource.BuildDFC279c),
		Arena:       env.Str(EnvArena),
		Verbose:     env.Bool(EnvVerbose),
		NoSecondary: env.Bool(EnvNoSecondary),
		NoExternal:  env.Bool(EnvNoExternal),
	}
}

// RegisterFlags binds the fields of o to flags in fs. The current
// values of o become the flags' defaults, which lets flags override
// the environment.
func (o *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&o.PID, "p", o.PID, "target process `pid` ("+EnvPID+")")
	fs.StringVar(&o.Process, "n", o.Process, "target executable `name`, used when no pid is set ("+EnvProcess+")")
	fs.StringVar(&o.Build, "b", o.Build, "target `build` whose anchors are used ("+EnvBuild+")")
	fs.StringVar(&o.Arena, "a", o.Arena, "reserve swap buffers from `start:size` in the target ("+EnvArena+")")
	fs.BoolVar(&o.Verbose, "v", o.Verbose, "log every pointer that is found or written ("+EnvVerbose+")")
	fs.BoolVar(&o.NoSecondary, "no-secondary", o.NoSecondary, "do not search the heap for secondary pointers ("+EnvNoSecondary+")")
	fs.BoolVar(&o.NoExternal, "no-external", o.NoExternal, "do not search for external audio groups ("+EnvNoExternal+")")
}

// Parse builds a Config from the environment and then args, which
// must not include the program name.
func Parse(fs *flag.FlagSet, args []string) (Config, error) {
	cfg := FromEnv()
	cfg.RegisterFlags(fs)

	err := fs.Parse(args)
	if err != nil {
		return Config{}, err
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks for settings that can never work.
func (o Config) Validate() error {
	if o.PID < 0 {
		return fmt.Errorf("pid cannot be negative (%d)", o.PID)
	}

	if o.PID == 0 && o.Process == "" {
		return errors.New("please specify a target pid or executable name")
	}

	if o.Arena != "" {
		_, _, err := conv.ParseRange(o.Arena)
		if err != nil {
			return fmt.Errorf("failed to parse arena - %w", err)
		}
	}

	_, err := resource.KnownAnchors().Select(o.Build)
	if err != nil {
		return err
	}

	return nil
}

// Anchors returns the anchors of the configured build.
func (o Config) Anchors() (memory.Anchors, error) {
	return resource.KnownAnchors().Select(o.Build)
}

// Logger returns a logger writing to stderr when Verbose is set,
// and nil otherwise.
func (o Config) Logger() *log.Logger {
	if !o.Verbose {
		return nil
	}

	return log.New(os.Stderr, "", 0)
}

// Open attaches to the configured target.
func (o Config) Open() (*process.Process, error) {
	var proc *process.Process
	var err error

	if o.PID > 0 {
		proc, err = process.Open(o.PID)
	} else {
		proc, err = process.OpenByName(o.Process)
	}
	if err != nil {
		return nil, err
	}

	proc.SetLogger(o.Logger())

	if o.Arena != "" {
		start, size, _ := conv.ParseRange(o.Arena)

		err = proc.SetArena(start, size)
		if err != nil {
			_ = proc.Close()
			return nil, fmt.Errorf("failed to set arena - %w", err)
		}
	}

	return proc, nil
}

// Usage writes the environment variables understood by Config to w.
func Usage(w io.Writer) {
	fmt.Fprintf(w, `environment variables:
  %s           target process pid
  %s       target executable name (default %q)
  %s         target build (default %q)
  %s         start:size range used for swap buffers
  %s       log every pointer that is found or written
  %s  skip the secondary pointer search
  %s   skip the external audio group search
`, EnvPID, EnvProcess, DefaultProcess, EnvBuild, resource.BuildDFC279c,
		EnvArena, EnvVerbose, EnvNoSecondary, EnvNoExternal)
}
