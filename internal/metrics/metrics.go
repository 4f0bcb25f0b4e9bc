// Package metrics instruments the DB facade with a small set of Prometheus
// counters: opens, closes, inserts, gets, deletes, decryption failures,
// and CRC-gated skipped persists.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Opens = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultdb_opens_total",
		Help: "Total number of DB.Open calls.",
	})

	Closes = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultdb_closes_total",
		Help: "Total number of DB.Close calls.",
	})

	ClosesSkipped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultdb_closes_skipped_total",
		Help: "Total number of Close calls that skipped the write because the CRC was unchanged.",
	})

	Inserts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultdb_inserts_total",
		Help: "Total number of Insert calls by outcome (ok, duplicate).",
	}, []string{"outcome"})

	Gets = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultdb_gets_total",
		Help: "Total number of Get calls by outcome (hit, miss).",
	}, []string{"outcome"})

	Deletes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vaultdb_deletes_total",
		Help: "Total number of Delete calls by outcome (hit, miss).",
	}, []string{"outcome"})

	DecryptFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultdb_decrypt_failures_total",
		Help: "Total number of authenticated-decryption failures across all operations.",
	})

	BackupsCreated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vaultdb_backups_created_total",
		Help: "Total number of backup files written on Close.",
	})
)

func init() {
	prometheus.MustRegister(
		Opens,
		Closes,
		ClosesSkipped,
		Inserts,
		Gets,
		Deletes,
		DecryptFailures,
		BackupsCreated,
	)
}

// Handler returns the Prometheus scrape handler. The CLI mounts it at
// /metrics when run with --metrics-addr, which is mostly useful for the
// long-running interactive browser.
func Handler() http.Handler {
	return promhttp.Handler()
}
