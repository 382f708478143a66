// Command bank runs a WFAP bank agent: it listens for signed solicitation
// intents, underwrites them against its standing policy, and answers with
// signed offers.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wfap/internal/audit"
	"wfap/internal/platform/config"
	"wfap/internal/platform/logger"
	"wfap/internal/signing"
	httptransport "wfap/internal/transport/http"
	"wfap/internal/underwriting"
	uwmetrics "wfap/internal/underwriting/metrics"
	"wfap/pkg/platform/secrets"
)

func main() {
	genAdminToken := flag.Bool("gen-admin-token", false, "mint an admin token and its bcrypt hash, then exit")
	flag.Parse()

	cfg := config.BankFromEnv()
	log := logger.New()

	if *genAdminToken {
		if err := printAdminToken(os.Stdout); err != nil {
			log.Error("generating admin token", "error", err)
			os.Exit(1)
		}
		return
	}

	signer, err := signing.New(cfg.KeysDir, cfg.BankID, signing.WithLogger(log))
	if err != nil {
		log.Error("loading signing keys", "error", err)
		os.Exit(1)
	}

	policies := underwriting.DefaultPolicies()
	if cfg.BaseRate > 0 {
		policies.BaseInterestRate = cfg.BaseRate
	}
	engine := underwriting.NewEngine(policies, cfg.BankID, cfg.BankName,
		underwriting.WithLogger(log),
		underwriting.WithMetrics(uwmetrics.New()),
	)

	var store audit.Store = audit.NewMemoryStore()
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("opening postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = audit.NewPostgresStore(db)
	}

	trailOpts := []audit.TrailOption{audit.WithLogger(log)}
	if len(cfg.KafkaBrokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("connecting kafka", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		if err := publisher.EnsureTopic(context.Background(), 3, 1); err != nil {
			log.Error("ensuring audit topic", "error", err)
			os.Exit(1)
		}
		trailOpts = append(trailOpts, audit.WithPublisher(publisher))
	}
	trail := audit.NewTrail(store, trailOpts...)

	trailCtx, stopTrail := context.WithCancel(context.Background())
	defer stopTrail()
	go func() {
		if err := trail.Run(trailCtx); !errors.Is(err, context.Canceled) {
			log.Error("audit trail stopped", "error", err)
		}
	}()

	handler := httptransport.New(signer, engine, trail, store, log)
	router := httptransport.NewRouter(handler, httptransport.RouterConfig{
		PeerSecret:     []byte(cfg.PeerSecret),
		Audience:       cfg.BankName,
		AdminTokenHash: cfg.AdminTokenHash,
	}, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("bank agent listening",
			"addr", cfg.Addr, "bank_id", cfg.BankID, "bank_name", cfg.BankName)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	log.Info("bank agent stopped")
}

// printAdminToken mints a fresh admin secret for operators. The plaintext
// token goes to the caller for the X-Admin-Token header; the hash is what
// WFAP_ADMIN_TOKEN_HASH stores.
func printAdminToken(w io.Writer) error {
	token, err := secrets.Generate()
	if err != nil {
		return err
	}
	hash, err := secrets.Hash(token)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "admin token: %s\nadmin token hash: %s\n", token, hash)
	return err
}
