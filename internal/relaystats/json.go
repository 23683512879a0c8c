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
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

// JSONServer serves Counters.ToMap() at /counters, the path
// FetchCounters expects, so the Prometheus exporter and any external
// tooling built against that convention work unmodified against the
// relay daemon.
type JSONServer struct {
	counters *Counters
}

// NewJSONServer wraps counters for HTTP export.
func NewJSONServer(counters *Counters) *JSONServer {
	return &JSONServer{counters: counters}
}

// Start runs the JSON counters HTTP server. Blocks until the listener
// fails.
func (s *JSONServer) Start(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/counters", s.handleCounters)
	addr := fmt.Sprintf(":%d", port)
	log.Infof("starting relay stats json server on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("failed to start relay stats listener: %v", err)
	}
}

func (s *JSONServer) handleCounters(w http.ResponseWriter, _ *http.Request) {
	js, err := json.Marshal(s.counters.ToMap())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(js); err != nil {
		log.Errorf("failed to reply to counters request: %v", err)
	}
}
