package main

/*
This application collects catalog records submitted by filgen runs
(-catalog server) and stores them with one of the catalog exporters.
*/

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"
	"github.com/golang/glog"

	"github.com/hb9tf/filgen/export"
	"github.com/hb9tf/filgen/generator"

	// Blind import support for sqlite3 used by the sqlite catalog.
	_ "github.com/mattn/go-sqlite3"
)

var (
	listen   = flag.String("listen", ":8443", "Address and port to listen on.")
	certFile = flag.String("certFile", "", "Path of the file containing the certificate (including the chained intermediates and root) for the TLS connection.")
	keyFile  = flag.String("keyFile", "", "Path of the file containing the key for the TLS connection.")
	output   = flag.String("output", "csv", "Export mechanism to use (one of: csv, sqlite, mysql)")

	// CSV
	csvFile = flag.String("csvFile", "", "CSV file to append records to (defaults to stdout).")

	// SQLite
	sqliteFile = flag.String("sqliteFile", "/tmp/filgen", "File path of the sqlite DB file to use.")

	// MySQL
	mysqlServer       = flag.String("mysqlServer", "127.0.0.1:3306", "MySQL TCP server endpoint to connect to (IP/DNS and port).")
	mysqlUser         = flag.String("mysqlUser", "", "MySQL DB user.")
	mysqlPasswordFile = flag.String("mysqlPasswordFile", "", "Path to the file containing the password for the MySQL user.")
	mysqlDBName       = flag.String("mysqlDBName", "filgen", "Name of the DB to use.")
)

const healthEndpoint = "filgen/v1/healthz"

type CatalogServer struct {
	records chan<- generator.Record
}

func (s *CatalogServer) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.POST("/"+export.CatalogEndpoint, s.collectHandler)
	r.GET("/"+healthEndpoint, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func (s *CatalogServer) collectHandler(c *gin.Context) {
	records := []generator.Record{}
	if err := c.ShouldBindJSON(&records); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "error": err.Error()})
		return
	}
	for _, r := range records {
		select {
		case s.records <- r:
		case <-c.Request.Context().Done():
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "error": c.Request.Context().Err().Error()})
			return
		}
	}
	glog.V(1).Infof("collected %d records from %s", len(records), c.ClientIP())
	c.JSON(http.StatusOK, export.CollectResponse{
		Status:      "ok",
		RecordCount: len(records),
	})
}

// openCSV appends to path. The header is only written to a new or empty file.
func openCSV(path string) (*export.CSV, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	return &export.CSV{Output: f, SkipHeader: st.Size() > 0}, nil
}

func newExporter() (export.Exporter, error) {
	switch strings.ToLower(*output) {
	case "csv":
		if *csvFile == "" {
			return &export.CSV{}, nil
		}
		return openCSV(*csvFile)
	case "sqlite":
		db, err := sql.Open("sqlite3", *sqliteFile)
		if err != nil {
			return nil, err
		}
		return &export.SQLite{DB: db}, nil
	case "mysql":
		pass, err := os.ReadFile(*mysqlPasswordFile)
		if err != nil {
			return nil, err
		}
		cfg := mysql.Config{
			User:                 *mysqlUser,
			Passwd:               strings.TrimSpace(string(pass)),
			Net:                  "tcp",
			Addr:                 *mysqlServer,
			DBName:               *mysqlDBName,
			AllowNativePasswords: true,
		}
		db, err := sql.Open("mysql", cfg.FormatDSN())
		if err != nil {
			return nil, err
		}
		db.SetConnMaxLifetime(3 * time.Minute)
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		return &export.MySQL{DB: db}, nil
	}
	return nil, errors.New("pick one of: csv, sqlite, mysql")
}

func main() {
	// Set defaults for glog flags. Can be overridden via cmdline.
	flag.Set("logtostderr", "false")
	flag.Set("stderrthreshold", "WARNING")
	flag.Set("v", "1")
	// Parse flags globally.
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	exporter, err := newExporter()
	if err != nil {
		glog.Exitf("unable to set up %q export: %s", *output, err)
	}

	// Export records.
	records := make(chan generator.Record, 1000)
	go func() {
		if err := exporter.Write(ctx, records); err != nil {
			glog.Fatal(err)
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	s := &CatalogServer{records: records}
	srv := &http.Server{
		Addr:    *listen,
		Handler: s.router(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	if *certFile != "" || *keyFile != "" {
		err = srv.ListenAndServeTLS(*certFile, *keyFile)
	} else {
		glog.Infoln("Resorting to serving HTTP because there was no certificate and key defined.")
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		glog.Exit(err)
	}
	glog.Flush()
}
