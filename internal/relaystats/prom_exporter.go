/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package relaystats

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// PrometheusExporter periodically scrapes a JSONServer's /counters
// endpoint and republishes every entry as a Prometheus gauge, rather
// than wiring typed collectors directly into Registry.
type PrometheusExporter struct {
	registry   *prometheus.Registry
	listenPort int
	statsPort  int
	interval   time.Duration
}

// NewPrometheusExporter returns an exporter that will listen on
// listenPort and scrape the JSONServer on statsPort every
// scrapeInterval.
func NewPrometheusExporter(listenPort, statsPort int, scrapeInterval time.Duration) *PrometheusExporter {
	return &PrometheusExporter{
		registry:   prometheus.NewRegistry(),
		listenPort: listenPort,
		statsPort:  statsPort,
		interval:   scrapeInterval,
	}
}

// Start runs the scrape loop and the /metrics HTTP server. Blocks until
// the listener fails.
func (e *PrometheusExporter) Start() {
	go func() {
		for {
			e.scrapeMetrics()
			time.Sleep(e.interval)
		}
	}()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true}))
	log.Fatal(http.ListenAndServe(fmt.Sprintf(":%d", e.listenPort), mux))
}

func (e *PrometheusExporter) scrapeMetrics() {
	counters, err := FetchCounters(fmt.Sprintf("http://localhost:%d", e.statsPort))
	if err != nil {
		log.Errorf("failed to fetch relay stats: %v", err)
		return
	}
	for key, val := range counters {
		gauge := prometheus.NewGauge(prometheus.GaugeOpts{
			Name: flattenKey(key),
			Help: key,
		})
		if err := e.registry.Register(gauge); err != nil {
			are := &prometheus.AlreadyRegisteredError{}
			if errors.As(err, are) {
				gauge = are.ExistingCollector.(prometheus.Gauge)
			} else {
				log.Errorf("failed to register metric %s: %v", key, err)
				continue
			}
		}
		gauge.Set(float64(val))
	}
}

func flattenKey(key string) string {
	key = strings.ReplaceAll(key, " ", "_")
	key = strings.ReplaceAll(key, ".", "_")
	key = strings.ReplaceAll(key, "-", "_")
	key = strings.ReplaceAll(key, "=", "_")
	key = strings.ReplaceAll(key, "/", "_")
	return key
}
