// Package audiosource probes the host audio stack and picks a capture source
// for the encoder. Probe order: PipeWire, PulseAudio, the PulseAudio daemon
// check, raw ALSA enumeration. Every probe is read-only and time-bounded, so
// a broken layer means "try the next one", never a failure.
package audiosource

import (
	"context"
	"fmt"
	"log"
	"os/exec"
	"strings"
	"time"
)

// Driver is the ffmpeg input driver used to open the source.
type Driver string

const (
	DriverPulse Driver = "pulse"
	DriverALSA  Driver = "alsa"
)

// Source identifies one capture source.
type Source struct {
	Driver Driver
	Name   string
}

func (s Source) String() string {
	return fmt.Sprintf("%s:%s", s.Driver, s.Name)
}

// defaultSource is the last-resort answer. pipewire-pulse answers on the
// pulse protocol even when no PulseAudio daemon runs, and if nothing is
// there at all the encoder fails loudly, which surfaces as an encoding
// error rather than a resolver error.
var defaultSource = Source{Driver: DriverPulse, Name: "default"}

// Runner executes one probe command and returns its stdout. Injectable for
// tests.
type Runner func(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)

// Resolver picks the best available audio source.
type Resolver struct {
	run Runner
}

func NewResolver() *Resolver {
	return &Resolver{run: runProbe}
}

// NewResolverWithRunner builds a resolver whose command execution is
// replaced, used by tests to simulate host audio stacks.
func NewResolverWithRunner(run Runner) *Resolver {
	return &Resolver{run: run}
}

// Resolve returns a usable source. It never fails and never caches: hardware
// can change between recording sessions, so each call probes fresh.
func (r *Resolver) Resolve(ctx context.Context) Source {
	probes := []struct {
		name    string
		attempt func(ctx context.Context) (Source, bool)
	}{
		{"pipewire", r.probePipeWire},
		{"pulse", r.probePulse},
		{"pulse-daemon", r.probePulseDaemon},
		{"alsa", r.probeALSA},
	}

	for _, p := range probes {
		if src, ok := p.attempt(ctx); ok {
			log.Printf("audiosource: %s probe selected %s", p.name, src)
			return src
		}
	}

	log.Printf("audiosource: no audio layer confirmed, using %s", defaultSource)
	return defaultSource
}

// probePipeWire checks for a running PipeWire graph, then lists sources
// through its pulse compatibility client.
func (r *Resolver) probePipeWire(ctx context.Context) (Source, bool) {
	out, err := r.run(ctx, 3*time.Second, "pw-cli", "list-objects", "Node")
	if err != nil || strings.TrimSpace(out) == "" {
		return Source{}, false
	}
	if src, ok := r.pactlSources(ctx); ok {
		return src, true
	}
	// PipeWire runs but pactl gave nothing; its pulse shim still accepts
	// "default".
	return defaultSource, true
}

func (r *Resolver) probePulse(ctx context.Context) (Source, bool) {
	return r.pactlSources(ctx)
}

func (r *Resolver) probePulseDaemon(ctx context.Context) (Source, bool) {
	if _, err := r.run(ctx, 2*time.Second, "pulseaudio", "--check"); err != nil {
		return Source{}, false
	}
	return defaultSource, true
}

func (r *Resolver) probeALSA(ctx context.Context) (Source, bool) {
	out, err := r.run(ctx, 3*time.Second, "arecord", "-l")
	if err != nil || !strings.Contains(out, "card") {
		return Source{}, false
	}
	return Source{Driver: DriverALSA, Name: "hw:0,0"}, true
}

// pactlSources lists short sources and prefers one that is not a monitor.
// Monitor sources are loopback taps of outputs, not microphones.
func (r *Resolver) pactlSources(ctx context.Context) (Source, bool) {
	out, err := r.run(ctx, 3*time.Second, "pactl", "list", "short", "sources")
	if err != nil || strings.TrimSpace(out) == "" {
		return Source{}, false
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	var first string
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if first == "" {
			first = fields[1]
		}
		if !strings.Contains(strings.ToLower(line), "monitor") {
			return Source{Driver: DriverPulse, Name: fields[1]}, true
		}
	}
	if first != "" {
		return Source{Driver: DriverPulse, Name: first}, true
	}
	return defaultSource, true
}

func runProbe(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
