// Package doctor checks the host tools tenjin depends on.
package doctor

// CheckStatus represents the status of a dependency check.
type CheckStatus int

const (
	// StatusOK indicates the dependency is installed and recent enough.
	StatusOK CheckStatus = iota
	// StatusMissing indicates the dependency is not installed.
	StatusMissing
	// StatusError indicates an error occurred during the check.
	StatusError
	// StatusWarning indicates the dependency is present but too old, or
	// missing where an alternative covers it.
	StatusWarning
)

// String returns the string representation of the status.
func (s CheckStatus) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusMissing:
		return "missing"
	case StatusError:
		return "error"
	case StatusWarning:
		return "warning"
	default:
		return "unknown"
	}
}

// Check represents a single dependency check result.
type Check struct {
	ID          string      // Unique identifier, e.g., "git", "clang"
	Name        string      // Display name
	Description string      // What tenjin uses it for
	Status      CheckStatus // Current status
	Version     string      // Detected version, empty if unknown
	Message     string      // Status message (version info, error, etc.)
	Note        string      // Set when the version is below the minimum
	FixCommand  *FixCommand // How to fix if missing (nil if not fixable)
}

// FixCommand describes how to fix a missing dependency.
type FixCommand struct {
	Description string // Human-readable description of what the fix does
	Command     string // Shell command to run
	Sudo        bool   // Whether the command requires sudo
	Platform    string // Target platform: "darwin", "linux", or "" for both
}

// CheckGroup represents a group of related dependency checks.
type CheckGroup struct {
	ID          string  // Unique identifier, e.g., "toolchain"
	Name        string  // Display name
	Description string  // What this group is for
	AnyOf       bool    // One passing check satisfies the group
	Checks      []Check // Individual checks in this group
}

// GroupID constants for check groups.
const (
	GroupFetch     = "fetch"
	GroupToolchain = "toolchain"
	GroupOCaml     = "ocaml"
	GroupPython    = "python"
)

// CheckID constants for individual checks.
const (
	IDCurl  = "curl"
	IDWget  = "wget"
	IDGit   = "git"
	IDClang = "clang"
	IDOpam  = "opam"
	IDUV    = "uv"
)
