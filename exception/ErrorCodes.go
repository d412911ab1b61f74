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

package exception

const ConfigurationError = "AICHAT-1000"
const ConfigurationErrorMsg = "AI chat configuration is invalid: $reason"

const ConfigFileNotFound = "AICHAT-1001"
const ConfigFileNotFoundMsg = "AI chat config file not found. path='$path'"

const ConfigFileReadFailed = "AICHAT-1002"
const ConfigFileReadFailedMsg = "AI chat config read failed. path='$path'"

const AuthenticationError = "AICHAT-2000"
const AuthenticationErrorMsg = "Authentication failed. API key may be invalid."

const TransportError = "AICHAT-2001"

const ProtocolError = "AICHAT-2002"

const TimeoutError = "AICHAT-2003"

const CancellationError = "AICHAT-2004"

const DecodeError = "AICHAT-2005"
const DecodeErrorMsg = "AI chat chunk parse failed. reason='$reason'"

const EmptyEndpointUrl = "AICHAT-2006"

const InvalidChatInput = "AICHAT-3000"
const InvalidChatInputMsg = "AI chat request failed. userInput is empty."

const ChatRequestInProgress = "AICHAT-3001"
const ChatRequestInProgressMsg = "AI chat request failed. Previous request is still running."

const RequestBodyBuildFailed = "AICHAT-3002"
const RequestBodyBuildFailedMsg = "AI chat request failed. Unable to build request body."
