package machine

// Envelope is the usable travel of a machine in millimeters.
type Envelope struct {
	X float64 `toml:"x" json:"x"`
	Y float64 `toml:"y" json:"y"`
	Z float64 `toml:"z" json:"z"`
}

// Toolhead is a spindle module's speed range in rpm.
type Toolhead struct {
	MinRPM float64 `toml:"min_rpm" json:"min_rpm"`
	MaxRPM float64 `toml:"max_rpm" json:"max_rpm"`
}

// Profile describes one machine model.
type Profile struct {
	Name     string   `toml:"name" json:"name"`
	Envelope Envelope `toml:"envelope" json:"envelope"`
}

// DefaultToolhead is assumed when no toolhead is configured.
const DefaultToolhead = "50W"

func builtinMachines() map[string]Profile {
	return map[string]Profile{
		"original": {
			Name:     "Snapmaker Original",
			Envelope: Envelope{X: 90, Y: 90, Z: 50},
		},
		"original_z_extension": {
			Name:     "Snapmaker Original with Z extension",
			Envelope: Envelope{X: 90, Y: 90, Z: 146},
		},
		"a150": {
			Name:     "Snapmaker 2 A150",
			Envelope: Envelope{X: 160, Y: 160, Z: 90},
		},
		"a250": {
			Name:     "Snapmaker 2 A250",
			Envelope: Envelope{X: 230, Y: 250, Z: 180},
		},
		"a250t": {
			Name:     "Snapmaker 2 A250T",
			Envelope: Envelope{X: 230, Y: 250, Z: 180},
		},
		"a350": {
			Name:     "Snapmaker 2 A350",
			Envelope: Envelope{X: 320, Y: 350, Z: 275},
		},
		"a350t": {
			Name:     "Snapmaker 2 A350T",
			Envelope: Envelope{X: 320, Y: 350, Z: 275},
		},
		"artisan": {
			Name:     "Snapmaker Artisan",
			Envelope: Envelope{X: 400, Y: 400, Z: 400},
		},
	}
}

func builtinToolheads() map[string]Toolhead {
	return map[string]Toolhead{
		"50w":  {MinRPM: 6000, MaxRPM: 12000},
		"200w": {MinRPM: 8000, MaxRPM: 18000},
	}
}
