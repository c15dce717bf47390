package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"
	"github.com/google/uuid"

	"github.com/hb9tf/filgen/config"
	"github.com/hb9tf/filgen/export"
	"github.com/hb9tf/filgen/generator"
	"github.com/hb9tf/filgen/sampler"
	"github.com/hb9tf/filgen/synth"
	"github.com/hb9tf/filgen/waterfall"

	// Blind import support for sqlite3 used by the sqlite catalog.
	_ "github.com/mattn/go-sqlite3"
)

const usageHeader = `Generate a synthetic test dataset of filterbank files with injected signals.

Usage: %s [options]

`

type options struct {
	configPath string
	output     string
	n          int
	seed       int64
	identifier string
	plot       bool
	plotGrid   bool
	catalog    string

	// CSV
	csvFile string

	// SQLite
	sqliteFile string

	// MySQL
	mysqlServer       string
	mysqlUser         string
	mysqlPasswordFile string
	mysqlDBName       string

	// Catalog Server
	catalogServer        string
	catalogServerRecords int
}

func newFlagSet(name string, out io.Writer) (*flag.FlagSet, *options) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	// Expose glog's flags (-v, -logtostderr, ...) next to our own.
	flag.CommandLine.VisitAll(func(f *flag.Flag) {
		fs.Var(f.Value, f.Name, f.Usage)
	})

	o := &options{}
	fs.StringVar(&o.configPath, "config", "config.yml", "Location of config file.")
	fs.StringVar(&o.output, "output", "", "Location in which to write synthetic files (defaults to the current directory).")
	fs.IntVar(&o.n, "n", 1, "Number of synthetic files to generate.")
	fs.Int64Var(&o.seed, "seed", 0, "Seed of the random source, 0 picks a random seed.")
	fs.StringVar(&o.identifier, "id", "", "Identifier of this run stored with every catalog record (defaults to a random UUID).")
	fs.BoolVar(&o.plot, "plot", false, "Render a PNG waterfall next to every generated file.")
	fs.BoolVar(&o.plotGrid, "plotGrid", true, "Draw frequency and time axes on rendered waterfalls.")
	fs.StringVar(&o.catalog, "catalog", "none", "Catalog of injected signals to write (one of: none, csv, sqlite, mysql, server)")

	fs.StringVar(&o.csvFile, "csvFile", "catalog.csv", "CSV catalog file, relative paths are resolved against -output.")

	fs.StringVar(&o.sqliteFile, "sqliteFile", "/tmp/filgen", "File path of the sqlite DB file to use.")

	fs.StringVar(&o.mysqlServer, "mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	fs.StringVar(&o.mysqlUser, "mysqlUser", "", "MySQL DB user.")
	fs.StringVar(&o.mysqlPasswordFile, "mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	fs.StringVar(&o.mysqlDBName, "mysqlDBName", "filgen", "Name of the DB to use.")

	fs.StringVar(&o.catalogServer, "catalogServer", "http://localhost:8443", "URL scheme, address and port of the catalog server.")
	fs.IntVar(&o.catalogServerRecords, "catalogServerRecords", 0, "Defines how many records should be sent to the server at once.")

	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), usageHeader, name)
		fs.PrintDefaults()
	}
	return fs, o
}

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, filepath.Base(os.Args[0]), os.Args[1:], os.Stdout); err != nil {
		glog.Exit(err)
	}
	glog.Flush()
}

func run(ctx context.Context, name string, args []string, stdout io.Writer) error {
	fs, opts := newFlagSet(name, stdout)
	if len(args) == 0 {
		fs.Usage()
		return nil
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return fmt.Errorf("could not load configuration: %w", err)
	}

	if opts.output == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("unable to determine working directory: %w", err)
		}
		opts.output = wd
	}
	if opts.identifier == "" {
		opts.identifier = uuid.NewString()
	}

	seed := uint64(opts.seed)
	if seed == 0 {
		seed = rand.Uint64()
	}
	glog.Infof("run %s: generating %d files into %q (seed %d)", opts.identifier, opts.n, opts.output, seed)
	rng := rand.New(rand.NewPCG(seed, seed))

	exporter, closeExporter, err := newExporter(opts)
	if err != nil {
		return err
	}
	defer closeExporter()

	gen := &generator.Generator{
		Synth:      &synth.Simulator{Src: rng, Now: time.Now},
		Sampler:    sampler.New(rng),
		Rand:       rng,
		OutputDir:  opts.output,
		Out:        stdout,
		Identifier: opts.identifier,
	}
	if opts.plot {
		gen.Plotter = &waterfall.Plotter{Options: waterfall.ImageOptions{AddGrid: opts.plotGrid}}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	records := make(chan generator.Record)
	exportErr := make(chan error, 1)
	go func() {
		err := exporter.Write(ctx, records)
		if err != nil {
			cancel()
		}
		exportErr <- err
	}()

	genErr := gen.Generate(ctx, cfg.Frame, cfg.Signal, opts.n, records)
	if err := <-exportErr; err != nil {
		return fmt.Errorf("catalog export failed: %w", err)
	}
	return genErr
}

func newExporter(opts *options) (export.Exporter, func(), error) {
	noop := func() {}
	switch strings.ToLower(opts.catalog) {
	case "", "none":
		return &export.Discard{}, noop, nil
	case "csv":
		path := opts.csvFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(opts.output, path)
		}
		f, err := os.Create(path)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to create CSV catalog %q: %s", path, err)
		}
		return &export.CSV{Output: f}, func() { f.Close() }, nil
	case "sqlite":
		db, err := sql.Open("sqlite3", opts.sqliteFile)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open sqlite DB %q: %s", opts.sqliteFile, err)
		}
		return &export.SQLite{DB: db}, func() { db.Close() }, nil
	case "mysql":
		pass, err := os.ReadFile(opts.mysqlPasswordFile)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to read MySQL password file %q: %s", opts.mysqlPasswordFile, err)
		}
		cfg := mysql.Config{
			User:                 opts.mysqlUser,
			Passwd:               strings.TrimSpace(string(pass)),
			Net:                  "tcp",
			Addr:                 opts.mysqlServer,
			DBName:               opts.mysqlDBName,
			AllowNativePasswords: true,
		}
		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("unable to open MySQL DB %q: %s", opts.mysqlServer, err)
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		return &export.MySQL{DB: db}, func() { db.Close() }, nil
	case "server":
		return &export.CatalogServer{
			Server:            opts.catalogServer,
			SendRecordsAmount: opts.catalogServerRecords,
		}, noop, nil
	}
	return nil, nil, fmt.Errorf("%q is not a supported catalog, pick one of: none, csv, sqlite, mysql, server", opts.catalog)
}
