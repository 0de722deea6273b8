package machine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Registry resolves machine and toolhead names. Lookups are
// case-insensitive. A fresh registry holds the built-in Snapmaker
// profiles; MergeFile layers user definitions on top.
type Registry struct {
	machines  map[string]Profile
	toolheads map[string]Toolhead
}

func NewRegistry() *Registry {
	return &Registry{
		machines:  builtinMachines(),
		toolheads: builtinToolheads(),
	}
}

type registryFile struct {
	Machines  map[string]Profile  `toml:"machines"`
	Toolheads map[string]Toolhead `toml:"toolheads"`
}

// MergeFile loads a TOML profile file over the current set. Entries
// reusing a known key replace it.
func (r *Registry) MergeFile(path string) error {
	var f registryFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return fmt.Errorf("load machine file: %w", err)
	}
	for key, p := range f.Machines {
		if p.Envelope.X <= 0 || p.Envelope.Y <= 0 || p.Envelope.Z <= 0 {
			return fmt.Errorf("machine %q: envelope must be positive", key)
		}
		if p.Name == "" {
			p.Name = key
		}
		r.machines[strings.ToLower(key)] = p
	}
	for key, th := range f.Toolheads {
		if th.MaxRPM <= 0 || th.MaxRPM < th.MinRPM {
			return fmt.Errorf("toolhead %q: invalid rpm range", key)
		}
		r.toolheads[strings.ToLower(key)] = th
	}
	return nil
}

func (r *Registry) Machine(key string) (Profile, bool) {
	p, ok := r.machines[strings.ToLower(key)]
	return p, ok
}

func (r *Registry) Toolhead(key string) (Toolhead, bool) {
	th, ok := r.toolheads[strings.ToLower(key)]
	return th, ok
}

func (r *Registry) MachineKeys() []string {
	keys := make([]string, 0, len(r.machines))
	for k := range r.machines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Registry) ToolheadKeys() []string {
	keys := make([]string, 0, len(r.toolheads))
	for k := range r.toolheads {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
