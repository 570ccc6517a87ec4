package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/alecthomas/kingpin/v2"

	"github.com/eugenenazirov/tawala/internal/config"
	"github.com/eugenenazirov/tawala/internal/helpers"
)

var signalNotify = signal.Notify

func main() {
	os.Exit(int(run(os.Args[1:], os.Stdout, os.Stderr)))
}

type cli struct {
	stdout io.Writer
	stderr io.Writer

	projectFile string
	envFile     string
	workDir     string
	overrides   map[string]string

	serveAddr    string
	format       string
	showSecrets  bool
	skipDatabase bool
}

func run(args []string, stdout, stderr io.Writer) helpers.ExitCode {
	c := &cli{stdout: stdout, stderr: stderr, overrides: map[string]string{}}

	app := kingpin.New("tawala", "Project configuration and development server for tawala sites.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.Version(config.PackageVersion.Default.(string))
	app.HelpFlag.Short('h')

	app.Flag("config", "Project config file (tawala.toml, tawala.yaml). Searched upwards from the working directory when omitted.").
		Short('c').StringVar(&c.projectFile)
	app.Flag("env-file", "Dotenv file read after the process environment.").StringVar(&c.envFile)
	app.Flag("workdir", "Directory project files are searched from.").Short('C').StringVar(&c.workDir)
	app.Flag("set", "Override a setting by key or env name (key=value). Repeatable.").Short('s').StringMapVar(&c.overrides)

	serve := app.Command("serve", "Run the development server.").Default()
	serve.Flag("addr", "Listen address, overriding server.addr.").StringVar(&c.serveAddr)

	settingsCmd := app.Command("settings", "Print the materialized framework settings.")
	settingsCmd.Flag("format", "Output format.").Short('f').Default("json").EnumVar(&c.format, "json", "yaml", "toml")
	settingsCmd.Flag("show-secrets", "Print secret values instead of masking them.").BoolVar(&c.showSecrets)

	explain := app.Command("explain", "Show where every setting was resolved from.")

	check := app.Command("check", "Validate the configuration and check the database.")
	check.Flag("skip-database", "Do not contact the database.").BoolVar(&c.skipDatabase)

	paths := app.Command("paths", "Print the output paths of the file generators.")

	command, err := app.Parse(args)
	if err != nil {
		fmt.Fprintf(stderr, "tawala: error: %v\n", err)
		return helpers.ExitError
	}

	switch command {
	case serve.FullCommand():
		err = c.serve()
	case settingsCmd.FullCommand():
		err = c.printSettings()
	case explain.FullCommand():
		err = c.explain()
	case check.FullCommand():
		err = c.check()
	case paths.FullCommand():
		err = c.paths()
	}

	if err != nil {
		fmt.Fprintf(stderr, "tawala: error: %v\n", err)
		return helpers.ExitError
	}
	return helpers.ExitSuccess
}

func (c *cli) options() config.Options {
	return config.Options{
		ProjectFile: c.projectFile,
		EnvFile:     c.envFile,
		Overrides:   c.overrides,
		WorkDir:     c.workDir,
	}
}
