// Command s3engine is the process bootstrap for the storage core (§6
// "Process bootstrap (ambient)"): parse the environment knobs, wire the
// collaborators, and serve Prometheus metrics. The HTTP/XML wire protocol
// itself is out of scope (§1) — this only proves the core links and runs as
// a standalone daemon, grounded on the teacher's flag-parse-then-run shape
// (ais/daemon.go's initDaemon).
package main

import (
	"flag"
	"net/http"
	"os"

	"github.com/golang/glog"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cristiangiann/localstack/cmn"
	"github.com/cristiangiann/localstack/content"
	"github.com/cristiangiann/localstack/dispatch"
	"github.com/cristiangiann/localstack/metrics"
	"github.com/cristiangiann/localstack/notify"
	"github.com/cristiangiann/localstack/objstore"
)

var metricsAddr = flag.String("metrics-addr", ":9100", "address to serve /metrics on")

func main() {
	flag.Parse()

	cfg := cmn.LoadFromEnv(flag.CommandLine, os.Args[1:])
	cmn.GCO.Put(cfg)

	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		glog.Exitf("cannot create storage dir %s: %v", cfg.StorageDir, err)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	stores := objstore.NewStores()
	contentStore := content.New(cfg.StorageDir)
	d := dispatch.New(stores, contentStore, notify.NopDispatcher{}, notify.LocalKMS{}).WithMetrics(m)
	_ = d // the dispatcher is the embedding point for a wire-protocol layer (§1 out of scope)

	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	glog.Infof("s3engine core ready, storage-dir=%s region=%s skip-kms-validation=%v",
		cfg.StorageDir, cfg.DefaultRegion, cfg.SkipKMSValidation)
	glog.Infof("serving metrics on %s", *metricsAddr)
	glog.Exit(http.ListenAndServe(*metricsAddr, nil))
}
