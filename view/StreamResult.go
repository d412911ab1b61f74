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

const RequestCanceledMsg = "Request canceled."

// StreamResult is the outcome of one streaming chat call on the transport level
type StreamResult struct {
	Success           bool
	Canceled          bool
	EndpointReachable bool
	ConnectionValid   bool
	StatusCode        int
	ErrorMessage      string
	ErrorBody         string
	ErrorCode         string
}

func StreamSuccess(statusCode int) StreamResult {
	return StreamResult{
		Success:           true,
		EndpointReachable: true,
		ConnectionValid:   true,
		StatusCode:        statusCode,
	}
}

func StreamCanceled(errorCode string) StreamResult {
	return StreamResult{
		Canceled:     true,
		ErrorMessage: RequestCanceledMsg,
		ErrorCode:    errorCode,
	}
}

func StreamFailure(endpointReachable bool, statusCode int, errorCode string, errorMessage string, errorBody string) StreamResult {
	return StreamResult{
		EndpointReachable: endpointReachable,
		StatusCode:        statusCode,
		ErrorMessage:      errorMessage,
		ErrorBody:         errorBody,
		ErrorCode:         errorCode,
	}
}
