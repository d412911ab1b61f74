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
	"net/http"
	"sync"

	"github.com/dougong-game/aichat-client/client"
	"github.com/dougong-game/aichat-client/config"
	"github.com/dougong-game/aichat-client/exception"
	"github.com/dougong-game/aichat-client/view"
	log "github.com/sirupsen/logrus"
)

// AIChatService is the chat client component: one chat session controller plus the heartbeat loop
// sharing one transport.
type AIChatService interface {
	ChatSessionService
	StartHeartbeat()
	StopHeartbeat()
	TriggerHeartbeat()
	HeartbeatState() view.HeartbeatState
	Heartbeat() HeartbeatService
	AIChatStatus() view.AIChatStatus
	Close()
}

func NewAIChatService(cfg *config.Config) (AIChatService, error) {
	if cfg == nil {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.ConfigurationError,
			Message: exception.ConfigurationErrorMsg,
			Params:  map[string]interface{}{"reason": "config is not loaded"},
		}
	}
	normalized := *cfg
	config.Normalize(&normalized)
	if err := config.Validate(normalized); err != nil {
		return nil, err
	}
	httpClient, err := client.NewOpenAIHttpClient(normalized.ProxyUrl)
	if err != nil {
		return nil, &exception.CustomError{
			Status:  http.StatusBadRequest,
			Code:    exception.ConfigurationError,
			Message: exception.ConfigurationErrorMsg,
			Params:  map[string]interface{}{"reason": "proxyUrl is invalid"},
			Debug:   err.Error(),
		}
	}
	return NewAIChatServiceWithTransport(normalized, NewNetworkService(httpClient)), nil
}

func NewAIChatServiceWithTransport(cfg config.Config, networkService NetworkService) AIChatService {
	return &aiChatServiceImpl{
		ChatSessionService: NewChatSessionService(cfg, networkService, NewChunkDecoder()),
		heartbeatService:   NewHeartbeatService(cfg, networkService),
		networkService:     networkService,
		cfg:                cfg,
	}
}

type aiChatServiceImpl struct {
	ChatSessionService
	heartbeatService HeartbeatService
	networkService   NetworkService
	cfg              config.Config
	closeOnce        sync.Once
}

func (a *aiChatServiceImpl) StartHeartbeat() {
	a.heartbeatService.Start()
}

func (a *aiChatServiceImpl) StopHeartbeat() {
	a.heartbeatService.Stop()
}

func (a *aiChatServiceImpl) TriggerHeartbeat() {
	a.heartbeatService.Trigger()
}

func (a *aiChatServiceImpl) HeartbeatState() view.HeartbeatState {
	return a.heartbeatService.State()
}

func (a *aiChatServiceImpl) Heartbeat() HeartbeatService {
	return a.heartbeatService
}

func (a *aiChatServiceImpl) AIChatStatus() view.AIChatStatus {
	return view.AIChatStatus{
		Model:         a.cfg.Model,
		ApiBaseUrl:    a.cfg.ApiBaseUrl,
		Requesting:    a.IsRequesting(),
		SessionId:     a.SessionId(),
		SessionStatus: a.Status(),
		LastError:     a.LastRequestErrorMessage(),
		Heartbeat:     a.heartbeatService.State(),
	}
}

// Close stops the heartbeat, cancels the running chat request and releases the transport.
func (a *aiChatServiceImpl) Close() {
	a.closeOnce.Do(func() {
		a.heartbeatService.Stop()
		a.CancelCurrentRequest()
		a.networkService.Close()
		log.Info("AI chat service closed")
	})
}
