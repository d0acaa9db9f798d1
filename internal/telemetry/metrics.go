package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// CollectionMutations tracks ledger writes by operation.
	CollectionMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "collection_mutations_total",
		Help: "Total number of collection mutations by operation",
	}, []string{"operation"}) // operation: add, repoint

	// CollectionSearches tracks collection search requests.
	CollectionSearches = promauto.NewCounter(prometheus.CounterOpts{
		Name: "collection_searches_total",
		Help: "Total number of collection search requests",
	})

	// CatalogLookups tracks catalog queries by endpoint.
	CatalogLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_lookups_total",
		Help: "Total number of catalog lookups by endpoint",
	}, []string{"endpoint"}) // endpoint: search, by_id, languages

	// LoginAttempts tracks authentication attempts by result.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "login_attempts_total",
		Help: "Total number of login attempts by result",
	}, []string{"result"}) // result: success, failure
)
