package gcode

// Mnemonic set predicates. Both the compact and zero-padded
// spellings count as distinct names on the wire, so each set lists
// them explicitly.

func IsRapid(name string) bool {
	switch name {
	case "G0", "G00":
		return true
	}
	return false
}

// IsFeedMotion reports motion mnemonics that carry a feed rate.
func IsFeedMotion(name string) bool {
	switch name {
	case "G1", "G01", "G2", "G02", "G3", "G03":
		return true
	}
	return false
}

func IsMotion(name string) bool {
	return IsRapid(name) || IsFeedMotion(name)
}

func IsSpindleOn(name string) bool {
	switch name {
	case "M3", "M03", "M4", "M04":
		return true
	}
	return false
}

func IsDwell(name string) bool {
	switch name {
	case "G4", "G04":
		return true
	}
	return false
}

func IsCannedCycle(name string) bool {
	switch name {
	case "G81", "G82", "G83":
		return true
	}
	return false
}

func IsRetractMode(name string) bool {
	switch name {
	case "G98", "G99":
		return true
	}
	return false
}

func IsToolChange(name string) bool {
	switch name {
	case "M6", "M06":
		return true
	}
	return false
}

// FeedMotionNames is IsFeedMotion as a slice, for backward scans.
var FeedMotionNames = []string{"G1", "G01", "G2", "G02", "G3", "G03"}
