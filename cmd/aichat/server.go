// Copyright 2024-2025 NetCracker Technology Corporation
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dougong-game/aichat-client/controller"
	midldleware "github.com/dougong-game/aichat-client/middleware"
	"github.com/dougong-game/aichat-client/service"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

func newStatusRouter(aiChat service.AIChatService, readyChan <-chan bool) http.Handler {
	r := mux.NewRouter().SkipClean(true).UseEncodedPath()
	r.Use(midldleware.PrometheusMiddleware)

	statusController := controller.NewStatusController(aiChat)
	healthController := controller.NewHealthController(readyChan)

	r.HandleFunc("/api/v1/ai-chat/status", statusController.GetStatus).Methods(http.MethodGet)
	r.HandleFunc("/api/v1/ai-chat/heartbeat", statusController.TriggerHeartbeat).Methods(http.MethodPost)
	r.HandleFunc("/live", healthController.HandleLiveRequest).Methods(http.MethodGet)
	r.HandleFunc("/ready", healthController.HandleReadyRequest).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return handlers.RecoveryHandler(handlers.RecoveryLogger(log.StandardLogger()), handlers.PrintRecoveryStack(true))(r)
}

// runStatusServer serves handler on address until ctx is done.
func runStatusServer(ctx context.Context, address string, handler http.Handler) error {
	server := &http.Server{
		Addr:              address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Status server listening on %s", address)
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warnf("Status server shutdown failed: %v", err)
		return err
	}
	log.Info("Status server stopped")
	return nil
}
