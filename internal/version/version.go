package version

// Version is the current version of the cta-engine module.
// This value is set at build time using ldflags:
// -ldflags "-X github.com/toriphy/cta-engine/internal/version.Version=1.2.3"
var Version = "v0.1.0"

// GetVersion returns the current version of the module.
func GetVersion() string {
	return Version
}
