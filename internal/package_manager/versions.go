package package_manager

import (
	"errors"
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/toolshed-sh/toolshed/internal/purl"
	"github.com/toolshed-sh/toolshed/internal/receipt"
	"github.com/toolshed-sh/toolshed/internal/result"
)

// Error texts are part of the version-inspection contract surfaced to
// consumers, hence the unconventional punctuation.
var (
	ErrNoReceipt   = errors.New("Unable to get receipt.")
	ErrNotOutdated = errors.New("Package is not outdated.")
)

// Upgrade describes an available version change.
type Upgrade struct {
	Name           string
	CurrentVersion string
	LatestVersion  string
}

// IsDowngrade reports whether applying the change would move to a lower
// version. Only decidable when both versions parse as semver; any other
// version scheme is treated as a plain version change.
func (u Upgrade) IsDowngrade() bool {
	current, latest := "v"+u.CurrentVersion, "v"+u.LatestVersion
	if !semver.IsValid(current) || !semver.IsValid(latest) {
		return false
	}
	return semver.Compare(latest, current) < 0
}

// VersionChecker resolves versions for legacy specs, which carry no
// structured source identifier.
type VersionChecker interface {
	GetInstalledVersion(rec result.Optional[receipt.Receipt], installPath string) result.Result[string]
	GetNewVersion(rec result.Optional[receipt.Receipt], installPath string) result.Result[Upgrade]
}

// GetInstalledVersion resolves the currently installed version and delivers
// it through cb, invoked exactly once on a separate goroutine. Registry specs
// derive the version from the receipt's primary source identifier; legacy
// specs delegate to the VersionChecker collaborator.
func (p *Package) GetInstalledVersion(cb func(result.Result[string])) {
	go func() {
		cb(p.installedVersion())
	}()
}

// CheckNewVersion resolves whether a newer version is available and delivers
// the outcome through cb, invoked exactly once on a separate goroutine. A
// package that is up to date, or whose spec carries no version constraint,
// reports ErrNotOutdated.
func (p *Package) CheckNewVersion(cb func(result.Result[Upgrade])) {
	go func() {
		cb(p.newVersion())
	}()
}

func (p *Package) installedVersion() result.Result[string] {
	switch p.spec.Kind {
	case KindRegistry:
		return result.AndThen(
			p.Receipt().OkOr(ErrNoReceipt),
			func(rec receipt.Receipt) result.Result[string] {
				parsed, err := purl.Parse(rec.PrimarySource)
				if err != nil {
					return result.Errf[string]("unable to parse primary source %q: %w", rec.PrimarySource, err)
				}
				return result.Ok(parsed.Version)
			},
		)
	case KindLegacy:
		return p.deps.Versions.GetInstalledVersion(p.Receipt(), p.InstallPath())
	default:
		return result.Err[string](fmt.Errorf("unknown spec kind %q", p.spec.Kind))
	}
}

func (p *Package) newVersion() result.Result[Upgrade] {
	switch p.spec.Kind {
	case KindRegistry:
		return result.AndThen(p.installedVersion(), func(current string) result.Result[Upgrade] {
			parsed, err := purl.Parse(p.spec.Registry.Source)
			if err != nil {
				return result.Errf[Upgrade]("unable to parse source %q: %w", p.spec.Registry.Source, err)
			}
			if parsed.Version == "" || parsed.Version == current {
				return result.Err[Upgrade](ErrNotOutdated)
			}
			return result.Ok(Upgrade{
				Name:           p.name,
				CurrentVersion: current,
				LatestVersion:  parsed.Version,
			})
		})
	case KindLegacy:
		return p.deps.Versions.GetNewVersion(p.Receipt(), p.InstallPath())
	default:
		return result.Err[Upgrade](fmt.Errorf("unknown spec kind %q", p.spec.Kind))
	}
}
