package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-msri/pkg/errors"
)

// CheckVersionCompatibility checks whether a scenario file written for
// configVersion can be run by an engine at engineVersion.
//
// Compatibility Rules:
//   - An empty config version means "written for this engine" and is accepted
//   - If either version is "main" (development build), the check is skipped
//   - Major and minor versions must match exactly
//   - Patch versions can differ (e.g., 1.2.0 is compatible with 1.2.5)
func CheckVersionCompatibility(engineVersion, configVersion string) error {
	engineVersion = strings.TrimPrefix(engineVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if configVersion == "" || engineVersion == "main" || configVersion == "main" {
		return nil
	}

	engineSemver, err := semver.NewVersion(engineVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", engineVersion)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid config version '%s'", configVersion)
	}

	if engineSemver.Major() != configSemver.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "major version mismatch: engine is %d.x.x but scenario requires %d.x.x",
			engineSemver.Major(), configSemver.Major())
	}

	if engineSemver.Minor() != configSemver.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch, "minor version mismatch: engine is %d.%d.x but scenario requires %d.%d.x",
			engineSemver.Major(), engineSemver.Minor(),
			configSemver.Major(), configSemver.Minor())
	}

	return nil
}
