package backend

import (
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/nulzo/calx-web/pkg/api"
)

func parseVersion(v string) (*version.Version, error) {
	return version.NewVersion(strings.TrimPrefix(strings.TrimSpace(v), "v"))
}

// LatestFirmware picks the highest semantic version. Entries with an
// unparsable version are skipped; nil is returned when none qualify.
func LatestFirmware(firmware []api.Firmware) *api.Firmware {
	var (
		latest    *api.Firmware
		latestVer *version.Version
	)
	for i := range firmware {
		v, err := parseVersion(firmware[i].Version)
		if err != nil {
			continue
		}
		if latestVer == nil || v.GreaterThan(latestVer) {
			latest, latestVer = &firmware[i], v
		}
	}
	return latest
}

// UpdateAvailable reports whether latest is newer than the device's current version.
// An unknown current version counts as outdated.
func UpdateAvailable(current string, latest *api.Firmware) bool {
	if latest == nil {
		return false
	}
	lv, err := parseVersion(latest.Version)
	if err != nil {
		return false
	}
	cv, err := parseVersion(current)
	if err != nil {
		return true
	}
	return lv.GreaterThan(cv)
}
