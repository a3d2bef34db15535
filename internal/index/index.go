// Package index keeps a queryable record of installed packages in sqlite,
// maintained by subscribing to registry-wide package events.
package index

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/toolshed-sh/toolshed/internal/package_manager"
	"github.com/toolshed-sh/toolshed/internal/pubsub"
	"github.com/toolshed-sh/toolshed/internal/purl"
	"github.com/toolshed-sh/toolshed/internal/result"
)

// InstalledPackage is one row of the installed-package table.
type InstalledPackage struct {
	Name        string `gorm:"primaryKey"`
	Version     string
	Source      string
	InstalledAt time.Time
}

// Index is the installed-package record store.
type Index interface {
	Put(pkg InstalledPackage) error
	Remove(name string) (bool, error)
	Get(name string) (result.Optional[InstalledPackage], error)
	List() ([]InstalledPackage, error)

	// Subscribe keeps the index in sync with install/uninstall events on the
	// registry bus.
	Subscribe(bus *pubsub.Emitter)
}

// NewIndex creates the index and runs its migration.
func NewIndex(db *gorm.DB) (Index, error) {
	if err := db.AutoMigrate(&InstalledPackage{}); err != nil {
		return nil, fmt.Errorf("failed to migrate installed packages table: %w", err)
	}
	return &index{db: db}, nil
}

type index struct {
	db *gorm.DB
}

var _ Index = (*index)(nil)

func (i *index) Put(pkg InstalledPackage) error {
	_, err := gorm.G[InstalledPackage](i.db).Where("name = ?", pkg.Name).First(context.Background())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gorm.G[InstalledPackage](i.db).Create(context.Background(), &pkg)
	} else if err != nil {
		return err
	}
	_, err = gorm.G[InstalledPackage](i.db).Where("name = ?", pkg.Name).Updates(context.Background(), pkg)
	return err
}

func (i *index) Remove(name string) (bool, error) {
	n, err := gorm.G[InstalledPackage](i.db).Where("name = ?", name).Delete(context.Background())
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (i *index) Get(name string) (result.Optional[InstalledPackage], error) {
	pkg, err := gorm.G[InstalledPackage](i.db).Where("name = ?", name).First(context.Background())
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return result.None[InstalledPackage](), nil
	} else if err != nil {
		return result.None[InstalledPackage](), err
	}
	return result.Some(pkg), nil
}

func (i *index) List() ([]InstalledPackage, error) {
	return gorm.G[InstalledPackage](i.db).Order("name").Find(context.Background())
}

func (i *index) Subscribe(bus *pubsub.Emitter) {
	bus.On(package_manager.EventPackageInstallSuccess, func(payload any) {
		ev, ok := payload.(package_manager.InstallSuccessEvent)
		if !ok {
			return
		}
		i.recordInstall(ev.Package)
	})
	bus.On(package_manager.EventPackageUninstallSuccess, func(payload any) {
		ev, ok := payload.(package_manager.UninstallSuccessEvent)
		if !ok {
			return
		}
		if _, err := i.Remove(ev.Package.Name()); err != nil {
			log.Error().Err(err).Str("package", ev.Package.Name()).Msg("failed to remove package from index")
		}
	})
}

func (i *index) recordInstall(pkg *package_manager.Package) {
	rec, ok := pkg.Receipt().Get()
	if !ok {
		log.Warn().Str("package", pkg.Name()).Msg("installed package has no receipt, skipping index update")
		return
	}

	var version string
	if parsed, err := purl.Parse(rec.PrimarySource); err == nil {
		version = parsed.Version
	}

	err := i.Put(InstalledPackage{
		Name:        pkg.Name(),
		Version:     version,
		Source:      rec.PrimarySource,
		InstalledAt: rec.InstalledAt,
	})
	if err != nil {
		log.Error().Err(err).Str("package", pkg.Name()).Msg("failed to record package in index")
	}
}
