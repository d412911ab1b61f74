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

package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dougong-game/aichat-client/config"
	"github.com/dougong-game/aichat-client/metrics"
	"github.com/dougong-game/aichat-client/utils"
	"github.com/dougong-game/aichat-client/view"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const minHeartbeatInterval = 100 * time.Millisecond
const heartbeatSlowThreshold = 2 * time.Second

// HeartbeatService probes the models endpoint on a fixed interval, independent of chat traffic.
// Probes never overlap: a probe requested while another one runs is skipped.
type HeartbeatService interface {
	Start()
	Stop()
	IsRunning() bool
	Probe(ctx context.Context) (view.HeartbeatState, bool)
	Trigger()
	State() view.HeartbeatState
	AddStateListener(listener func(state view.HeartbeatState))
}

func NewHeartbeatService(cfg config.Config, networkService NetworkService) HeartbeatService {
	return &heartbeatServiceImpl{
		url:            utils.BuildEndpointUrl(cfg.ApiBaseUrl, cfg.HeartbeatPath),
		apiKey:         cfg.ApiKey,
		interval:       heartbeatInterval(cfg.Heartbeat.IntervalSeconds),
		timeout:        time.Duration(cfg.Heartbeat.TimeoutSeconds) * time.Second,
		networkService: networkService,
	}
}

type heartbeatServiceImpl struct {
	url            string
	apiKey         string
	interval       time.Duration
	timeout        time.Duration
	networkService NetworkService

	stateMutex sync.RWMutex
	state      view.HeartbeatState
	listeners  []func(state view.HeartbeatState)

	probing     atomic.Bool
	probeMutex  sync.Mutex
	cancelProbe context.CancelFunc

	lifecycleMutex sync.Mutex
	cron           *cron.Cron
	runCtx         context.Context
	stopRun        context.CancelFunc
}

// heartbeatSchedule fires every interval after the previous activation, sub-second intervals included.
type heartbeatSchedule struct {
	interval time.Duration
}

func (s heartbeatSchedule) Next(t time.Time) time.Time {
	return t.Add(s.interval)
}

type HeartbeatProbeJob struct {
	ctx     context.Context
	service HeartbeatService
}

func (j HeartbeatProbeJob) Run() {
	if _, probed := j.service.Probe(j.ctx); !probed {
		log.Debug("[Heartbeat] previous probe is still running, skipped")
	}
}

func (h *heartbeatServiceImpl) Start() {
	h.lifecycleMutex.Lock()
	defer h.lifecycleMutex.Unlock()
	if h.cron != nil {
		return
	}

	h.runCtx, h.stopRun = context.WithCancel(context.Background())
	h.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(log.StandardLogger()))))
	job := HeartbeatProbeJob{ctx: h.runCtx, service: h}
	h.cron.Schedule(heartbeatSchedule{interval: h.interval}, job)
	h.cron.Start()
	utils.SafeAsync(job.Run)

	log.Infof("[Heartbeat] started. url=%s interval=%s timeout=%s", h.url, h.interval, h.timeout)
}

func (h *heartbeatServiceImpl) Stop() {
	h.cancelInFlightProbe()

	h.lifecycleMutex.Lock()
	defer h.lifecycleMutex.Unlock()
	if h.cron == nil {
		return
	}

	h.stopRun()
	<-h.cron.Stop().Done()
	h.cron = nil
	h.runCtx = nil
	h.stopRun = nil
	log.Info("[Heartbeat] stopped")
}

func (h *heartbeatServiceImpl) IsRunning() bool {
	h.lifecycleMutex.Lock()
	defer h.lifecycleMutex.Unlock()
	return h.cron != nil
}

func (h *heartbeatServiceImpl) Probe(ctx context.Context) (view.HeartbeatState, bool) {
	if !h.probing.CompareAndSwap(false, true) {
		return h.State(), false
	}
	defer h.probing.Store(false)

	probeCtx, cancel := context.WithCancel(ctx)
	h.setProbeCancel(cancel)
	defer func() {
		h.setProbeCancel(nil)
		cancel()
	}()

	start := time.Now()
	result := h.networkService.SendHeartbeat(probeCtx, h.url, h.apiKey, h.timeout)
	elapsed := time.Since(start)
	utils.PerfLog(elapsed, heartbeatSlowThreshold, "AI chat heartbeat")

	state := view.HeartbeatState{HeartbeatResult: result, CheckedAt: time.Now()}
	previous := h.setState(state)
	recordHeartbeat(result, elapsed)
	if previous.CheckedAt.IsZero() || previous.ConnectionValid != state.ConnectionValid || previous.EndpointReachable != state.EndpointReachable {
		if state.ConnectionValid {
			log.Infof("[Heartbeat] connection is valid. status=%d", state.StatusCode)
		} else {
			log.Warnf("[Heartbeat] connection is not valid. reachable=%t status=%d error='%s'", state.EndpointReachable, state.StatusCode, state.ErrorMessage)
		}
	}
	h.notify(state)
	return state, true
}

func (h *heartbeatServiceImpl) Trigger() {
	ctx := context.Background()
	h.lifecycleMutex.Lock()
	if h.runCtx != nil {
		ctx = h.runCtx
	}
	h.lifecycleMutex.Unlock()

	utils.SafeAsync(func() {
		h.Probe(ctx)
	})
}

func (h *heartbeatServiceImpl) setProbeCancel(cancel context.CancelFunc) {
	h.probeMutex.Lock()
	defer h.probeMutex.Unlock()
	h.cancelProbe = cancel
}

// cancelInFlightProbe covers probes started by Trigger or Probe outside the schedule as well.
func (h *heartbeatServiceImpl) cancelInFlightProbe() {
	h.probeMutex.Lock()
	defer h.probeMutex.Unlock()
	if h.cancelProbe != nil {
		h.cancelProbe()
	}
}

func (h *heartbeatServiceImpl) State() view.HeartbeatState {
	h.stateMutex.RLock()
	defer h.stateMutex.RUnlock()
	return h.state
}

// AddStateListener registers a callback invoked on the probing goroutine after every completed probe.
func (h *heartbeatServiceImpl) AddStateListener(listener func(state view.HeartbeatState)) {
	h.stateMutex.Lock()
	defer h.stateMutex.Unlock()
	h.listeners = append(h.listeners, listener)
}

func (h *heartbeatServiceImpl) setState(state view.HeartbeatState) view.HeartbeatState {
	h.stateMutex.Lock()
	defer h.stateMutex.Unlock()
	previous := h.state
	h.state = state
	return previous
}

func (h *heartbeatServiceImpl) notify(state view.HeartbeatState) {
	h.stateMutex.RLock()
	listeners := make([]func(state view.HeartbeatState), len(h.listeners))
	copy(listeners, h.listeners)
	h.stateMutex.RUnlock()

	for _, listener := range listeners {
		if err := utils.SafeSync(func() error {
			listener(state)
			return nil
		}); err != nil {
			log.Errorf("[Heartbeat] state listener failed: %v", err)
		}
	}
}

func recordHeartbeat(result view.HeartbeatResult, elapsed time.Duration) {
	metrics.HeartbeatDuration.Observe(elapsed.Seconds())
	switch {
	case result.ConnectionValid:
		metrics.HeartbeatTotal.WithLabelValues(metrics.HeartbeatValid).Inc()
		metrics.HeartbeatConnectionValid.Set(1)
	case result.EndpointReachable:
		metrics.HeartbeatTotal.WithLabelValues(metrics.HeartbeatInvalid).Inc()
		metrics.HeartbeatConnectionValid.Set(0)
	default:
		metrics.HeartbeatTotal.WithLabelValues(metrics.HeartbeatUnreachable).Inc()
		metrics.HeartbeatConnectionValid.Set(0)
	}
}

func heartbeatInterval(seconds float64) time.Duration {
	interval := time.Duration(seconds * float64(time.Second))
	if interval < minHeartbeatInterval {
		return minHeartbeatInterval
	}
	return interval
}
