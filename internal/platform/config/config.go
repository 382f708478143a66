// Package config builds process configuration from environment variables so
// mains stay lean.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Bank captures bank-side agent configuration.
type Bank struct {
	Addr           string
	BankID         string
	BankName       string
	KeysDir        string
	PeerSecret     string // HMAC secret shared with consumers for bearer auth
	AdminTokenHash string // bcrypt hash guarding the audit endpoints
	PostgresDSN    string // empty selects the in-memory audit store
	KafkaBrokers   []string
	KafkaTopic     string
	BaseRate       float64 // 0 keeps the standing policy default
}

// Consumer captures consumer-side agent configuration.
type Consumer struct {
	ConsumerID     string
	KeysDir        string
	PeerSecret     string
	Peers          map[string]string // peer name -> endpoint URL
	RedisAddr      string            // empty selects the in-memory session store
	PerPeerTimeout time.Duration
	GlobalTimeout  time.Duration
}

// BankFromEnv builds a Bank config with development defaults.
func BankFromEnv() Bank {
	return Bank{
		Addr:           getenv("WFAP_BANK_ADDR", ":8091"),
		BankID:         getenv("WFAP_BANK_ID", "WF-BANK-AGENT-001"),
		BankName:       getenv("WFAP_BANK_NAME", "Wells Credit"),
		KeysDir:        getenv("WFAP_KEYS_DIR", "keys"),
		PeerSecret:     os.Getenv("WFAP_PEER_SECRET"),
		AdminTokenHash: os.Getenv("WFAP_ADMIN_TOKEN_HASH"),
		PostgresDSN:    os.Getenv("WFAP_POSTGRES_DSN"),
		KafkaBrokers:   splitList(os.Getenv("WFAP_KAFKA_BROKERS")),
		KafkaTopic:     getenv("WFAP_KAFKA_TOPIC", "wfap.audit"),
		BaseRate:       floatEnv("WFAP_BASE_RATE"),
	}
}

// ConsumerFromEnv builds a Consumer config with development defaults.
func ConsumerFromEnv() Consumer {
	return Consumer{
		ConsumerID:     getenv("WFAP_CONSUMER_ID", "host_agent"),
		KeysDir:        getenv("WFAP_KEYS_DIR", "keys"),
		PeerSecret:     os.Getenv("WFAP_PEER_SECRET"),
		Peers:          parsePeers(os.Getenv("WFAP_PEERS")),
		RedisAddr:      os.Getenv("WFAP_REDIS_ADDR"),
		PerPeerTimeout: seconds("WFAP_PER_PEER_TIMEOUT", 300),
		GlobalTimeout:  seconds("WFAP_GLOBAL_TIMEOUT", 300),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func seconds(key string, fallback int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Second
		}
	}
	return time.Duration(fallback) * time.Second
}

func floatEnv(key string) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return 0
}

func splitList(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePeers reads "name=url,name=url" pairs.
func parsePeers(v string) map[string]string {
	peers := make(map[string]string)
	for _, pair := range splitList(v) {
		name, url, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		peers[strings.TrimSpace(name)] = strings.TrimSpace(url)
	}
	return peers
}
