package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/afero"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/ironsheep/cbf-tools-mcp/internal/cbf"
	"github.com/ironsheep/cbf-tools-mcp/internal/config"
	"github.com/ironsheep/cbf-tools-mcp/internal/imaging"
	"github.com/ironsheep/cbf-tools-mcp/internal/logging"
)

// Version information - set by ldflags during build
var Version = "dev"

var cfg struct {
	verbose bool
	config  string
	header  struct {
		file   string
		prefix string
	}
	render struct {
		file     string
		out      string
		colormap string
		gamma    float64
		scale    float64
	}
	convert struct {
		src  string
		dst  string
		sets []string
	}
}

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "Inspect, render and convert CBF detector frames.").UsageWriter(os.Stdout)
	app.Version(Version)
	app.HelpFlag.Short('h')
	app.Flag("verbose", "Enable verbose logging.").Short('v').Default("false").BoolVar(&cfg.verbose)
	app.Flag("config", "TOML configuration file.").Envar(config.EnvConfigPath).StringVar(&cfg.config)

	infoCmd := app.Command("info", "Summarize frames.")
	infoFiles := infoCmd.Arg("file", "CBF file path (.cbf or .cbf.gz)").Required().Strings()

	headerCmd := app.Command("header", "List the header of a frame in order.")
	headerCmd.Arg("file", "CBF file path").Required().StringVar(&cfg.header.file)
	headerCmd.Flag("prefix", "Only show keys with this prefix (case-insensitive).").StringVar(&cfg.header.prefix)

	renderCmd := app.Command("render", "Render a frame as a false-colour PNG.")
	renderCmd.Arg("file", "CBF file path").Required().StringVar(&cfg.render.file)
	renderCmd.Flag("out", "PNG file to write.").Short('o').Required().StringVar(&cfg.render.out)
	renderCmd.Flag("colormap", "Colormap; defaults to the configured one.").EnumVar(&cfg.render.colormap, imaging.ColormapNames()...)
	renderCmd.Flag("gamma", "Gamma correction; 0 keeps the configured value.").Float64Var(&cfg.render.gamma)
	renderCmd.Flag("scale", "Output scale factor.").Default("1").Float64Var(&cfg.render.scale)

	convertCmd := app.Command("convert", "Rewrite a frame, optionally editing its header. A destination ending in .gz is gzip-compressed.")
	convertCmd.Arg("src", "Source CBF file").Required().StringVar(&cfg.convert.src)
	convertCmd.Arg("dst", "Destination CBF file").Required().StringVar(&cfg.convert.dst)
	convertCmd.Flag("set", "Header key=value to set; repeatable.").StringsVar(&cfg.convert.sets)

	verifyCmd := app.Command("verify", "Check that frames survive an encode/decode round trip unchanged.")
	verifyFiles := verifyCmd.Arg("file", "CBF file path").Required().Strings()

	// parse command line arguments
	parsedCmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	fs := afero.NewOsFs()
	conf, err := config.Load(fs, cfg.config)
	if err != nil {
		os.Exit(checkError(err))
	}
	// enable verbose logging if requested
	if cfg.verbose {
		conf.Log.Level = "debug"
	}
	logger := logging.Stderr(conf.Log)

	opts := []cbf.Option{cbf.WithLogger(log.With(logger, "cmd", parsedCmd))}
	if conf.CIF.Strict {
		opts = append(opts, cbf.WithStrictCIF())
	}

	switch parsedCmd {
	case infoCmd.FullCommand():
		os.Exit(checkError(infoFrames(os.Stdout, fs, *infoFiles, opts...)))
	case headerCmd.FullCommand():
		os.Exit(checkError(headerTable(os.Stdout, fs, cfg.header.file, cfg.header.prefix, opts...)))
	case renderCmd.FullCommand():
		ro := conf.Render
		if cfg.render.colormap != "" {
			ro.Colormap = cfg.render.colormap
		}
		if cfg.render.gamma != 0 {
			ro.Gamma = cfg.render.gamma
		}
		ro.Scale = cfg.render.scale
		os.Exit(checkError(renderFrame(os.Stdout, fs, cfg.render.file, cfg.render.out, ro, opts...)))
	case convertCmd.FullCommand():
		os.Exit(checkError(convertFrame(os.Stdout, fs, cfg.convert.src, cfg.convert.dst, cfg.convert.sets, opts...)))
	case verifyCmd.FullCommand():
		os.Exit(checkError(verifyFrames(os.Stdout, fs, *verifyFiles, opts...)))
	default:
		level.Error(logger).Log("msg", "unknown command", "cmd", parsedCmd)
		os.Exit(1)
	}
}

func checkError(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return 1
}
