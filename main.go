package main

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/Ba2rbt/Sport-Communautaire-sub000/cliparse"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/db"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/engine"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/ledger"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/middleware"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/notify"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/router"
	"github.com/Ba2rbt/Sport-Communautaire-sub000/store"
)

func main() {
	var err error

	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		slog.Error("Error parsing flags", "error", err)
		os.Exit(1)
	}

	// Connect to the database
	dbConn, dialect, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	defer dbConn.Close()

	// Verify connection
	if err := dbConn.Ping(); err != nil {
		slog.Error("database ping failed", "error", err)
		os.Exit(1)
	}

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		slog.Error("schema creation failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Database schema ready", "type", dialect)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	broker := notify.NewBroker(cfg.MaxSubscriptions)
	defer broker.Close()

	var storeOpts []store.SQLOption
	var ledgerOpts []ledger.Option
	if dialect == store.Postgres {
		// Every instance learns about votes through NOTIFY, including its own
		listener, err := notify.NewPGListener(cfg.DatabaseURL, store.DefaultNotifyChannel, broker)
		if err != nil {
			slog.Error("vote change listener failed", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := listener.Run(ctx); err != nil {
				slog.Warn("vote change listener stopped", "error", err)
			}
		}()
		storeOpts = append(storeOpts, store.WithPGNotify(store.DefaultNotifyChannel))
		ledgerOpts = append(ledgerOpts, ledger.WithPublisher(notify.Nop{}))
	}

	votes := store.NewSQL(dbConn, dialect, storeOpts...)
	eng := engine.New(votes, votes, broker, ledgerOpts...)

	// Create router
	mux := router.NewRouter(votes, eng, cfg)

	// Create server
	server := http.Server{
		Handler:     middleware.CORS(mux),
		Addr:        ":" + strconv.Itoa(cfg.Port),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		// Wait for Ctrl-C signal
		<-ctrlc
		// Ends open leaderboard streams before closing connections
		cancel()
		server.Close()
	}()

	// Start server
	slog.Info("Listening", "port", cfg.Port)
	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		slog.Error("Server closed", "error", err)
	} else {
		slog.Info("Server closed", "error", err)
	}
}
