package main

import (
	"fmt"
	"strings"

	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"
)

var (
	fDebug    = "debug"
	fRoot     = "root"
	fRegistry = "registry"
)

var profiles []string

func getFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:    fDebug,
			Usage:   "Enable debug logging",
			Sources: getSources(fDebug),
		},
		&cli.StringSliceFlag{
			Name:        "profile",
			Usage:       "YAML profile files that specify flags. Can be stacked from highest precedence to lowest.",
			TakesFile:   true,
			Destination: &profiles,
		},
		&cli.StringFlag{
			Name:    fRoot,
			Usage:   "The root directory packages are installed into. Defaults to ~/.toolshed",
			Sources: getSources(fRoot),
		},
		&cli.StringFlag{
			Name:    fRegistry,
			Usage:   "The directory containing package definition files. Defaults to <root>/registry",
			Sources: getSources(fRegistry),
		},
	}
}

func getSources(name string) cli.ValueSourceChain {
	return cli.NewValueSourceChain(
		cli.EnvVar("TOOLSHED_"+strings.ToUpper(name)),
		&profilesSource{name: name},
	)
}

type profilesSource struct {
	name string
}

// GoString implements cli.ValueSource.
func (ps *profilesSource) GoString() string {
	return fmt.Sprintf("&profilesSource{name:%[1]q}", ps.name)
}

func (ps *profilesSource) String() string {
	return strings.Join(profiles, ",")
}

func (ps *profilesSource) Lookup() (string, bool) {
	sources := cli.ValueSourceChain{
		Chain: []cli.ValueSource{},
	}
	for i := range profiles {
		sources.Chain = append(
			sources.Chain,
			yaml.YAML(ps.name, altsrc.NewStringPtrSourcer(&profiles[i])),
		)
	}
	return sources.Lookup()
}
