// internal/model/profile.go
package model

// Profile carries per-model printing characteristics used to default label
// geometry when a printer record names a known model
type Profile struct {
	Model        string        `json:"model"`
	DPI          int           `json:"dpi"`
	MaxWidthDots int           `json:"max_width_dots"`
	DefaultDrive DriveLocation `json:"default_drive"`
}

// profiles maps known Zebra model names to their characteristics. The "*"
// entry is the fallback for models not listed here.
var profiles = map[string]Profile{
	"ZT230":  {Model: "ZT230", DPI: 203, MaxWidthDots: 832, DefaultDrive: DriveFlash},
	"ZT410":  {Model: "ZT410", DPI: 300, MaxWidthDots: 1248, DefaultDrive: DriveFlash},
	"ZT411":  {Model: "ZT411", DPI: 300, MaxWidthDots: 1248, DefaultDrive: DriveFlash},
	"ZD420":  {Model: "ZD420", DPI: 203, MaxWidthDots: 832, DefaultDrive: DriveFlash},
	"ZD620":  {Model: "ZD620", DPI: 300, MaxWidthDots: 1248, DefaultDrive: DriveFlash},
	"GX420d": {Model: "GX420d", DPI: 203, MaxWidthDots: 832, DefaultDrive: DriveFlash},
	"GK420d": {Model: "GK420d", DPI: 203, MaxWidthDots: 832, DefaultDrive: DriveFlash},
	"ZQ520":  {Model: "ZQ520", DPI: 203, MaxWidthDots: 832, DefaultDrive: DriveRAM},
	"*":      {Model: "*", DPI: 203, MaxWidthDots: 832, DefaultDrive: DriveFlash},
}

// ProfileFor resolves a model name to its profile, falling back to the
// wildcard profile
func ProfileFor(model string) Profile {
	if p, ok := profiles[model]; ok {
		return p
	}
	return profiles["*"]
}

// KnownModels lists the models with an explicit profile
func KnownModels() []string {
	names := make([]string, 0, len(profiles)-1)
	for name := range profiles {
		if name != "*" {
			names = append(names, name)
		}
	}
	return names
}
