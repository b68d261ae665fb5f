package version

import (
	"fmt"
	"strings"

	"github.com/alangmartini/godly-terminal-sub001/internal/wire"
)

// Version is the current version of godly-terminal.
const Version = "0.1.0"

// GitRef is injected at build time for dev builds (e.g. via -ldflags -X).
var GitRef = "unknown"

// ReleaseBuild is injected at build time. When true, DisplayVersion omits git ref.
var ReleaseBuild = "false"

// DisplayVersion returns the user-facing build version, tagged with
// the wire protocol revision this build speaks so godlyctl/godlyd/
// godly-shim built from different revisions surface a version
// mismatch directly instead of an opaque decode error (§4.1):
// - release: v<semver> (wire N)
// - dev:     v<semver>-<gitref> (wire N)
func DisplayVersion() string {
	base := "v" + Version
	if !isReleaseBuild() {
		base += "-" + normalizeRef(GitRef)
	}
	return fmt.Sprintf("%s (wire %d)", base, wire.ProtocolVersion)
}

func isReleaseBuild() bool {
	switch strings.ToLower(strings.TrimSpace(ReleaseBuild)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func normalizeRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "unknown"
	}
	return ref
}
