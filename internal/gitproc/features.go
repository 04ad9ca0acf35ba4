package gitproc

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/DEVBOX10/microsoft-scalar/pkg/errclass"
)

// Features is an immutable set of capabilities of the installed git.
type Features uint32

const (
	// FeatureMaintenanceBuiltin: `git maintenance run --task=<task>` is available.
	FeatureMaintenanceBuiltin Features = 1 << iota
	// FeatureMultiPackIndex: `git multi-pack-index expire/repack` is available.
	FeatureMultiPackIndex
)

var featureNames = []struct {
	flag Features
	name string
}{
	{FeatureMaintenanceBuiltin, "maintenance-builtin"},
	{FeatureMultiPackIndex, "multi-pack-index"},
}

// Has reports whether every bit in flag is set.
func (f Features) Has(flag Features) bool {
	return f&flag == flag
}

// With returns f with flag set.
func (f Features) With(flag Features) Features {
	return f | flag
}

// Without returns f with flag cleared.
func (f Features) Without(flag Features) Features {
	return f &^ flag
}

func (f Features) String() string {
	var names []string
	for _, fn := range featureNames {
		if f.Has(fn.flag) {
			names = append(names, fn.name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// Version is a parsed `git version` string.
type Version struct {
	Major, Minor, Patch int
	Raw                 string
}

// AtLeast compares major and minor.
func (v Version) AtLeast(major, minor int) bool {
	if v.Major != major {
		return v.Major > major
	}
	return v.Minor >= minor
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

var versionRe = regexp.MustCompile(`(\d+)\.(\d+)(?:\.(\d+))?`)

// ParseVersion parses output such as "git version 2.39.2" or
// "git version 2.30.0.windows.1".
func ParseVersion(output string) (Version, error) {
	line := strings.TrimSpace(output)
	m := versionRe.FindStringSubmatch(line)
	if m == nil {
		return Version{}, fmt.Errorf("unrecognized git version %q", line)
	}
	v := Version{Raw: line}
	v.Major, _ = strconv.Atoi(m[1])
	v.Minor, _ = strconv.Atoi(m[2])
	if m[3] != "" {
		v.Patch, _ = strconv.Atoi(m[3])
	}
	return v, nil
}

// FeaturesForVersion maps a git version onto its capabilities.
func FeaturesForVersion(v Version) Features {
	var f Features
	if v.AtLeast(2, 21) {
		f = f.With(FeatureMultiPackIndex)
	}
	if v.AtLeast(2, 30) {
		f = f.With(FeatureMaintenanceBuiltin)
	}
	return f
}

// Override values for the git.maintenance_builtin config key.
const (
	OverrideAuto  = "auto"
	OverrideTrue  = "true"
	OverrideFalse = "false"
)

// Versioner is the part of Process DetectFeatures needs.
type Versioner interface {
	Version(ctx context.Context) *Result
}

// DetectFeatures runs `git version` once and derives the capability set.
// override forces FeatureMaintenanceBuiltin on or off; "auto" or "" keeps
// the detected value.
func DetectFeatures(ctx context.Context, git Versioner, override string) (Features, Version, error) {
	res := git.Version(ctx)
	if res.ExitCodeIsFailure() {
		return 0, Version{}, errclass.ErrGitUnavailable.WithMessagef(
			"%s exited %d: %s", res.CommandLine(), res.ExitCode, strings.TrimSpace(res.Errors))
	}
	v, err := ParseVersion(res.Output)
	if err != nil {
		return 0, Version{}, errclass.ErrGitUnavailable.WithMessage(err.Error())
	}

	f := FeaturesForVersion(v)
	switch strings.ToLower(strings.TrimSpace(override)) {
	case "", OverrideAuto:
	case OverrideTrue:
		f = f.With(FeatureMaintenanceBuiltin)
	case OverrideFalse:
		f = f.Without(FeatureMaintenanceBuiltin)
	default:
		return 0, v, errclass.ErrConfigInvalid.WithMessagef(
			"git.maintenance_builtin must be auto, true or false, got %q", override)
	}
	return f, v, nil
}
