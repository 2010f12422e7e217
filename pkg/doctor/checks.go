package doctor

import (
	"context"
	"regexp"
	"strings"

	"github.com/hashicorp/go-version"

	"github.com/tenjin-project/tenjin/pkg/runner"
)

// Minimum tool versions.
var (
	MinGit   = version.Must(version.NewVersion("2.36"))
	MinClang = version.Must(version.NewVersion("18"))
)

// toolSpec describes how to probe one tool.
type toolSpec struct {
	id          string
	name        string
	desc        string
	binary      string // Defaults to id
	versionArgs []string
	versionRe   *regexp.Regexp
	minimum     *version.Version
	fix         *FixCommand
}

// checkTool checks if a tool is installed, gets its version and compares it
// against the minimum when one is set.
func checkTool(ctx context.Context, exec runner.Executor, spec toolSpec) Check {
	check := Check{
		ID:          spec.id,
		Name:        spec.name,
		Description: spec.desc,
		FixCommand:  spec.fix,
	}

	binary := spec.binary
	if binary == "" {
		binary = spec.id
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}

	output, err := exec.Run(ctx, path, spec.versionArgs...)
	if err != nil {
		check.Status = StatusOK
		check.Message = "installed (version unknown)"
		if spec.minimum != nil {
			check.Status = StatusWarning
			check.Note = minimumNote(spec.name, spec.minimum)
		}
		return check
	}

	check.Version = extractVersion(output, spec.versionRe)
	if check.Version == "" {
		check.Status = StatusOK
		check.Message = "installed"
		return check
	}

	check.Status = StatusOK
	check.Message = check.Version

	if spec.minimum != nil && !meetsMinimum(check.Version, spec.minimum) {
		check.Status = StatusWarning
		check.Message = check.Version + " (need >= " + spec.minimum.Original() + ")"
		check.Note = minimumNote(spec.name, spec.minimum)
	}

	return check
}

func minimumNote(name string, min *version.Version) string {
	return name + " version " + min.Original() + " or later is required"
}

// meetsMinimum reports whether raw parses and is at least min. Unparseable
// versions are treated as too old.
func meetsMinimum(raw string, min *version.Version) bool {
	v, err := version.NewVersion(raw)
	if err != nil {
		return false
	}
	return v.Core().GreaterThanOrEqual(min)
}

var defaultVersionRe = regexp.MustCompile(`v?(\d+\.\d+(?:\.\d+)?(?:-[a-zA-Z0-9]+)?)`)

// extractVersion extracts version string from command output.
func extractVersion(output string, regex *regexp.Regexp) string {
	if regex == nil {
		regex = defaultVersionRe
	}

	matches := regex.FindStringSubmatch(output)
	if len(matches) >= 2 {
		return strings.TrimSpace(matches[1])
	}
	return ""
}

// CheckGit checks git. Output looks like "git version 2.37.1 (Apple Git-137.1)".
func CheckGit(ctx context.Context, exec runner.Executor, platform string) Check {
	return checkTool(ctx, exec, toolSpec{
		id:          IDGit,
		name:        "git",
		desc:        "Version control, also used to filter ignored files",
		versionArgs: []string{"version"},
		versionRe:   regexp.MustCompile(`git version (\S+)`),
		minimum:     MinGit,
		fix:         GetFixCommand(IDGit, platform),
	})
}

// CheckClang checks clang. Vendor prefixes such as "Ubuntu clang version
// 18.1.3 (1ubuntu1)" and "Apple clang version 14.0.0" are accepted.
func CheckClang(ctx context.Context, exec runner.Executor, platform string) Check {
	return checkTool(ctx, exec, toolSpec{
		id:          IDClang,
		name:        "clang",
		desc:        "Host C compiler",
		versionArgs: []string{"--version"},
		versionRe:   regexp.MustCompile(`clang version ([^ \n]+)`),
		minimum:     MinClang,
		fix:         GetFixCommand(IDClang, platform),
	})
}

// CheckCurl checks curl.
func CheckCurl(ctx context.Context, exec runner.Executor, platform string) Check {
	return checkTool(ctx, exec, toolSpec{
		id:          IDCurl,
		name:        "curl",
		desc:        "Downloads the uv installer",
		versionArgs: []string{"--version"},
		versionRe:   regexp.MustCompile(`curl (\d+\.\d+(?:\.\d+)?)`),
		fix:         GetFixCommand(IDCurl, platform),
	})
}

// CheckWget checks wget.
func CheckWget(ctx context.Context, exec runner.Executor, platform string) Check {
	return checkTool(ctx, exec, toolSpec{
		id:          IDWget,
		name:        "wget",
		desc:        "Downloads the uv installer when curl is absent",
		versionArgs: []string{"--version"},
		versionRe:   regexp.MustCompile(`Wget (\d+\.\d+(?:\.\d+)?)`),
		fix:         GetFixCommand(IDWget, platform),
	})
}

// CheckOpam checks the system opam.
func CheckOpam(ctx context.Context, exec runner.Executor, platform string) Check {
	return checkTool(ctx, exec, toolSpec{
		id:          IDOpam,
		name:        "opam",
		desc:        "OCaml package manager",
		versionArgs: []string{"--version"},
		versionRe:   regexp.MustCompile(`^\s*(\S+)`),
		fix:         GetFixCommand(IDOpam, platform),
	})
}

// CheckUV checks the uv installed into the project-local directory.
func CheckUV(ctx context.Context, exec runner.Executor, uvPath string) Check {
	check := Check{
		ID:          IDUV,
		Name:        "uv",
		Description: "Python tool runner installed by bootstrap",
		FixCommand:  GetFixCommand(IDUV, ""),
	}

	if uvPath == "" || !exec.FileExists(uvPath) {
		check.Status = StatusMissing
		check.Message = "not installed"
		return check
	}

	output, err := exec.Run(ctx, uvPath, "--version")
	if err != nil {
		check.Status = StatusError
		check.Message = "installed but `uv --version` failed"
		return check
	}

	check.Status = StatusOK
	check.Version = extractVersion(output, regexp.MustCompile(`uv (\S+)`))
	check.Message = check.Version
	if check.Message == "" {
		check.Message = "installed"
	}
	return check
}
