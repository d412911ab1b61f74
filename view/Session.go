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

package view

type SessionStatus string

const (
	SessionIdle      SessionStatus = "idle"
	SessionSending   SessionStatus = "sending"
	SessionStreaming SessionStatus = "streaming"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCanceled  SessionStatus = "canceled"
)

func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionFailed || s == SessionCanceled
}

// AIChatStatus is what the status endpoint reports
type AIChatStatus struct {
	Model         string         `json:"model"`
	ApiBaseUrl    string         `json:"apiBaseUrl"`
	Requesting    bool           `json:"requesting"`
	SessionId     string         `json:"sessionId,omitempty"`
	SessionStatus SessionStatus  `json:"sessionStatus"`
	LastError     string         `json:"lastError,omitempty"`
	Heartbeat     HeartbeatState `json:"heartbeat"`
}
