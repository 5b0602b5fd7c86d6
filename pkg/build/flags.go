// SPDX-License-Identifier: MIT
package build

import "fmt"

// ldFlags holds build-time information that is injected during compilation,
// for example:
//
//	go build -ldflags "-X beewatch/pkg/build.buildName=beewatch -X beewatch/pkg/build.buildVersion=v0.6.0"
//
// Name, Time, Commit and Version are required for release builds. Development
// builds keep the defaults below and report themselves as "dev".
type ldFlags struct {
	Name        string // Application name
	Description string // One line description used by the CLI
	Time        string // Build timestamp
	Commit      string // Git commit hash
	Version     string // Firmware version, echoed in PONG replies
}

var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "beewatch",
		Description: "BeeWatch hive monitor edge node",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "dev",
	}
)

// Initialize validates and copies the ldflags variables into the build info.
// It returns an error naming the first missing flag; callers running a
// development build may ignore it and keep the defaults.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// Version returns the firmware version string.
func Version() string {
	return buildFlags.Version
}
