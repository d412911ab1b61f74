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

package controller

import (
	"net/http"

	"github.com/dougong-game/aichat-client/utils"
	"github.com/dougong-game/aichat-client/view"
)

// AIChatStatusProvider is the part of the chat component the status endpoints need.
type AIChatStatusProvider interface {
	AIChatStatus() view.AIChatStatus
	TriggerHeartbeat()
}

type StatusController interface {
	GetStatus(w http.ResponseWriter, r *http.Request)
	TriggerHeartbeat(w http.ResponseWriter, r *http.Request)
}

func NewStatusController(provider AIChatStatusProvider) StatusController {
	return &statusControllerImpl{provider: provider}
}

type statusControllerImpl struct {
	provider AIChatStatusProvider
}

func (s statusControllerImpl) GetStatus(w http.ResponseWriter, r *http.Request) {
	utils.RespondWithJson(w, http.StatusOK, s.provider.AIChatStatus())
}

func (s statusControllerImpl) TriggerHeartbeat(w http.ResponseWriter, r *http.Request) {
	s.provider.TriggerHeartbeat()
	w.WriteHeader(http.StatusAccepted)
}
