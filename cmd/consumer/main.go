// Command consumer runs one WFAP solicitation round: it signs an intent,
// fans it out to the configured bank peers, scores whatever offers come
// back, and prints the ranking.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"log/slog"

	"github.com/redis/go-redis/v9"

	"wfap/internal/peer"
	"wfap/internal/platform/config"
	"wfap/internal/platform/logger"
	"wfap/internal/scoring"
	"wfap/internal/signing"
	"wfap/internal/solicit"
	solicitmetrics "wfap/internal/solicit/metrics"
	"wfap/internal/wfap"
)

func main() {
	intentPath := flag.String("intent", "intent.json", "path to the solicitation intent JSON")
	flag.Parse()

	cfg := config.ConsumerFromEnv()
	log := logger.New()

	if err := run(cfg, log, *intentPath); err != nil {
		log.Error("solicitation failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Consumer, log *slog.Logger, intentPath string) error {
	raw, err := os.ReadFile(intentPath)
	if err != nil {
		return fmt.Errorf("reading intent file: %w", err)
	}
	intent, err := wfap.ParseIntent(raw)
	if err != nil {
		return fmt.Errorf("parsing intent: %w", err)
	}

	signer, err := signing.New(cfg.KeysDir, cfg.ConsumerID, signing.WithLogger(log))
	if err != nil {
		return fmt.Errorf("loading signing keys: %w", err)
	}

	var sessions solicit.SessionStore = solicit.NewMemorySessionStore()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		sessions = solicit.NewRedisSessionStore(client)
	}

	peers := make(map[string]peer.Connection, len(cfg.Peers))
	for name, endpoint := range cfg.Peers {
		peers[name] = peer.NewBreakerConnection(
			peer.NewHTTPConnection(name, endpoint, cfg.ConsumerID, []byte(cfg.PeerSecret)),
			peer.WithBreakerLogger(log),
		)
	}

	service := solicit.NewService(signer, sessions, cfg.PerPeerTimeout, cfg.GlobalTimeout,
		solicit.WithLogger(log),
		solicit.WithMetrics(solicitmetrics.New()),
	)

	result, err := service.Solicit(context.Background(), intent, peers)
	if err != nil {
		return err
	}
	log.Info("solicitation finished",
		"intent_id", result.IntentID,
		"state", result.State,
		"verified_offers", len(result.VerifiedOffers()),
		"usable_offers", len(result.UsableOffers()))

	offers := result.UsableOffers()
	if len(offers) == 0 {
		return fmt.Errorf("no usable offers: state %s", result.State)
	}

	ranking, err := scoring.NewAnalyzer(scoring.WithLogger(log)).SelectBest(intent, offers)
	if err != nil {
		return err
	}

	return printRanking(os.Stdout, result, ranking)
}

func printRanking(w *os.File, result *solicit.Result, ranking *scoring.Ranking) error {
	type rankedLine struct {
		Rank    int     `json:"rank"`
		BankID  string  `json:"bank_id"`
		OfferID string  `json:"offer_id"`
		Score   float64 `json:"score"`
		Rate    float64 `json:"interest_rate_annual"`
		Amount  float64 `json:"amount_approved"`
		Months  int     `json:"repayment_duration_months"`
	}

	out := struct {
		IntentID string       `json:"intent_id"`
		State    string       `json:"state"`
		Summary  string       `json:"summary"`
		Ranked   []rankedLine `json:"ranked"`
	}{
		IntentID: result.IntentID,
		State:    result.State,
		Summary:  ranking.Summary,
	}
	for i, scored := range ranking.Ranked {
		out.Ranked = append(out.Ranked, rankedLine{
			Rank:    i + 1,
			BankID:  scored.BankID,
			OfferID: scored.Offer.OfferID,
			Score:   scored.Score,
			Rate:    scored.Offer.InterestRateAnnual,
			Amount:  scored.Offer.AmountApproved,
			Months:  scored.Offer.RepaymentDurationMonths,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
