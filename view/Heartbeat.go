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

import "time"

type HeartbeatResult struct {
	EndpointReachable bool   `json:"endpointReachable"`
	ConnectionValid   bool   `json:"connectionValid"`
	StatusCode        int    `json:"statusCode"`
	ErrorMessage      string `json:"errorMessage,omitempty"`
	ErrorCode         string `json:"errorCode,omitempty"`
}

func HeartbeatSuccess(statusCode int) HeartbeatResult {
	return HeartbeatResult{
		EndpointReachable: true,
		ConnectionValid:   true,
		StatusCode:        statusCode,
	}
}

func HeartbeatFailure(endpointReachable bool, statusCode int, errorCode string, errorMessage string) HeartbeatResult {
	return HeartbeatResult{
		EndpointReachable: endpointReachable,
		ConnectionValid:   false,
		StatusCode:        statusCode,
		ErrorMessage:      errorMessage,
		ErrorCode:         errorCode,
	}
}

// HeartbeatState is the last known liveness of the chat endpoint
type HeartbeatState struct {
	HeartbeatResult
	CheckedAt time.Time `json:"checkedAt"`
}
