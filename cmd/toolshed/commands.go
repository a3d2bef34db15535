package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/toolshed-sh/toolshed/internal/config"
	"github.com/toolshed-sh/toolshed/internal/handle"
	"github.com/toolshed-sh/toolshed/internal/index"
	"github.com/toolshed-sh/toolshed/internal/linker"
	"github.com/toolshed-sh/toolshed/internal/logging"
	"github.com/toolshed-sh/toolshed/internal/package_manager"
	"github.com/toolshed-sh/toolshed/internal/pubsub"
	"github.com/toolshed-sh/toolshed/internal/receipt"
	"github.com/toolshed-sh/toolshed/internal/registry"
	"github.com/toolshed-sh/toolshed/internal/result"
)

// env holds the wired-up components every command runs against.
type env struct {
	cfg        *config.Config
	reg        *registry.Registry
	idx        index.Index
	terminator *handle.Terminator
}

func setup(cmd *cli.Command) (*env, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	cfg.Override("toolshed_path", cmd.String(fRoot))
	cfg.Override("registry_path", cmd.String(fRegistry))

	level := cfg.LogLevel()
	if cmd.Bool(fDebug) {
		level = zerolog.DebugLevel
	}
	logging.NewLogger(level)

	if err := os.MkdirAll(cfg.RootPath(), 0o755); err != nil {
		return nil, fmt.Errorf("error creating root directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.IndexPath()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening installed-package index: %w", err)
	}
	idx, err := index.NewIndex(db)
	if err != nil {
		return nil, err
	}

	terminator := handle.NewTerminator()
	receipts := receipt.NewFileStore()
	links := linker.NewSymlinker(cfg.BinDir())

	reg := registry.New(package_manager.Deps{
		Paths:      cfg,
		Receipts:   receipts,
		Linker:     links,
		Terminator: terminator,
		Installer:  package_manager.NewStubInstaller(receipts, links),
	})
	if err := reg.LoadDefinitions(cfg.RegistryPath()); err != nil {
		return nil, err
	}
	idx.Subscribe(reg.Bus())
	logInstallFailures(reg.Bus())

	return &env{cfg: cfg, reg: reg, idx: idx, terminator: terminator}, nil
}

func logInstallFailures(bus *pubsub.Emitter) {
	bus.On(package_manager.EventPackageInstallFailed, func(payload any) {
		ev, ok := payload.(package_manager.InstallFailedEvent)
		if !ok {
			return
		}
		if sink := ev.Handle.Sink().String(); sink != "" {
			fmt.Fprint(os.Stderr, sink)
		}
	})
}

func (e *env) lookup(name string) (*package_manager.Package, error) {
	pkg, ok := e.reg.Get(name).Get()
	if !ok {
		return nil, fmt.Errorf("package %s not found in registry", name)
	}
	return pkg, nil
}

func installCommand() *cli.Command {
	return &cli.Command{
		Name:      "install",
		Usage:     "Install one or more packages.",
		ArgsUsage: "<package>...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "version",
				Usage: "Version override applied to every requested package.",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			names := cmd.Args().Slice()
			if len(names) == 0 {
				return errors.New("no packages given")
			}

			// ctx.Done() returns when SIGINT is called or stop() is called.
			// On a signal, every still-open handle is force-terminated and
			// the completion callbacks below unblock.
			sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			go func() {
				<-sigCtx.Done()
				e.terminator.TerminateAll()
			}()

			eg := new(errgroup.Group)
			for _, name := range names {
				pkg, err := e.lookup(name)
				if err != nil {
					return err
				}
				eg.Go(func() error {
					done := make(chan error, 1)
					pkg.Install(package_manager.InstallOptions{
						Version: cmd.String("version"),
						OnDone: func(res result.Result[result.Unit]) {
							_, err := res.Get()
							done <- err
						},
					})
					if err := <-done; err != nil {
						return fmt.Errorf("%s: %w", pkg.Name(), err)
					}
					fmt.Printf("installed %s\n", pkg.Name())
					return nil
				})
			}
			return eg.Wait()
		},
	}
}

func ensureCommand() *cli.Command {
	return &cli.Command{
		Name:  "ensure",
		Usage: "Install every package listed under ensure_installed in the config file.",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			wanted, err := e.cfg.EnsureInstalled()
			if err != nil {
				return err
			}

			eg := new(errgroup.Group)
			for _, want := range wanted {
				if !e.reg.Get(want.Name).IsPresent() {
					// Packages pinned directly in the config file need no
					// registry definition.
					err := e.reg.AddDefinition(registry.Definition{
						Name:         want.Name,
						RegistrySpec: package_manager.RegistrySpec{Source: want.Source},
					})
					if err != nil {
						return err
					}
				}
				pkg, err := e.lookup(want.Name)
				if err != nil {
					return err
				}
				if pkg.IsInstalled() {
					continue
				}
				eg.Go(func() error {
					done := make(chan error, 1)
					pkg.Install(package_manager.InstallOptions{
						OnDone: func(res result.Result[result.Unit]) {
							_, err := res.Get()
							done <- err
						},
					})
					if err := <-done; err != nil {
						return fmt.Errorf("%s: %w", pkg.Name(), err)
					}
					fmt.Printf("installed %s\n", pkg.Name())
					return nil
				})
			}
			return eg.Wait()
		},
	}
}

func uninstallCommand() *cli.Command {
	return &cli.Command{
		Name:      "uninstall",
		Usage:     "Remove installed packages and their bin links.",
		ArgsUsage: "<package>...",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			names := cmd.Args().Slice()
			if len(names) == 0 {
				return errors.New("no packages given")
			}

			for _, name := range names {
				pkg, err := e.lookup(name)
				if err != nil {
					return err
				}
				removed, err := pkg.Uninstall()
				if err != nil {
					return err
				}
				if removed {
					fmt.Printf("uninstalled %s\n", name)
				} else {
					fmt.Printf("%s is not installed\n", name)
				}
			}
			return nil
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List installed packages.",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			rows, err := e.idx.List()
			if err != nil {
				return err
			}
			for _, row := range rows {
				fmt.Printf("%s\t%s\t%s\n", row.Name, row.Version, row.Source)
			}
			return nil
		},
	}
}

func outdatedCommand() *cli.Command {
	return &cli.Command{
		Name:  "outdated",
		Usage: "Show installed packages with a newer version in the registry.",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := setup(cmd)
			if err != nil {
				return err
			}
			rows, err := e.idx.List()
			if err != nil {
				return err
			}

			for _, row := range rows {
				pkg, ok := e.reg.Get(row.Name).Get()
				if !ok {
					continue
				}
				done := make(chan result.Result[package_manager.Upgrade], 1)
				pkg.CheckNewVersion(func(res result.Result[package_manager.Upgrade]) {
					done <- res
				})
				up, err := (<-done).Get()
				if errors.Is(err, package_manager.ErrNotOutdated) {
					continue
				} else if err != nil {
					log.Warn().Err(err).Str("package", row.Name).Msg("unable to check for new version")
					continue
				}
				line := fmt.Sprintf("%s\t%s -> %s", up.Name, up.CurrentVersion, up.LatestVersion)
				if up.IsDowngrade() {
					line += " (downgrade)"
				}
				fmt.Println(line)
			}
			return nil
		},
	}
}
