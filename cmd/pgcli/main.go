// Command pgcli is a small interactive-ish demonstration client: it loads
// connection settings from an INI file, connects, and either runs one query
// from the command line and prints the result set, or LISTENs on a channel
// and prints notifications as they arrive; it optionally exposes Prometheus
// metrics for the session.
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/mevdschee/pgwire/config"
	"github.com/mevdschee/pgwire/metrics"
	"github.com/mevdschee/pgwire/pgconn"
)

func main() {
	configPath := flag.String("config", "pgcli.ini", "Path to configuration file")
	query := flag.String("query", "SELECT version()", "SQL statement to execute")
	listenChannel := flag.String("listen", "", "LISTEN channel to wait on instead of running -query")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			http.Handle("/metrics", metrics.Handler())
			log.Printf("metrics endpoint at http://localhost%s/metrics", cfg.Metrics.Listen)
			if err := http.ListenAndServe(cfg.Metrics.Listen, nil); err != nil {
				log.Printf("metrics server error: %v", err)
			}
		}()
	}

	conn, err := pgconn.Connect(
		pgconn.WithHost(cfg.Connection.Host),
		pgconn.WithPort(cfg.Connection.Port),
		pgconn.WithUser(cfg.Connection.User),
		pgconn.WithPassword(cfg.Connection.Password),
		pgconn.WithDatabase(cfg.Connection.Database),
		pgconn.WithOptions(cfg.Connection.Options),
	)
	if err != nil {
		log.Fatalf("connect failed: %v", err)
	}
	defer conn.Close()

	if *listenChannel != "" {
		if _, err := conn.Execute("LISTEN "+*listenChannel, nil); err != nil {
			log.Fatalf("listen failed: %v", err)
		}
		log.Printf("waiting for notifications on %q, press Ctrl+C to stop", *listenChannel)
		for {
			n, err := conn.WaitForNotify(-1)
			if err != nil {
				log.Fatalf("wait for notify failed: %v", err)
			}
			fmt.Printf("notify: channel=%s pid=%d\n", n.Channel, n.PID)
		}
	}

	bundle, err := conn.Execute(*query, nil)
	if err != nil {
		log.Fatalf("query failed: %v", err)
	}

	if len(bundle.Fields) == 0 {
		fmt.Fprintln(os.Stdout, bundle.Completion)
		return
	}

	for _, f := range bundle.Fields {
		fmt.Printf("%-20s", f.Name)
	}
	fmt.Println()
	for _, row := range bundle.Rows {
		for _, v := range row {
			fmt.Printf("%-20v", v)
		}
		fmt.Println()
	}
	fmt.Printf("(%d rows)\n", len(bundle.Rows))
}
