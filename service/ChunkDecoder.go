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
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dougong-game/aichat-client/exception"
	"github.com/dougong-game/aichat-client/view"
	"github.com/openai/openai-go/v3"
)

type ChunkDecoder interface {
	Decode(payload string) (*view.StreamChunk, error)
	ExtractTextDelta(chunk *view.StreamChunk) string
}

func NewChunkDecoder() ChunkDecoder {
	return &chunkDecoderImpl{}
}

type chunkDecoderImpl struct {
}

// chunkShape lists the chunk fields that are read, with the JSON types they must have.
type chunkShape struct {
	ID      *string `json:"id"`
	Object  *string `json:"object"`
	Created *int64  `json:"created"`
	Model   *string `json:"model"`
	Choices []struct {
		Index int64 `json:"index"`
		Delta *struct {
			Role    *string `json:"role"`
			Content *string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// Decode parses one SSE data payload in the OpenAI chat.completion.chunk format.
// The [DONE] marker is not a chunk and must be handled by the caller.
func (c chunkDecoderImpl) Decode(payload string) (*view.StreamChunk, error) {
	raw := bytes.TrimSpace([]byte(payload))
	if len(raw) == 0 {
		return nil, decodeError("payload is empty")
	}
	if !json.Valid(raw) {
		return nil, decodeError("payload is not valid JSON")
	}
	if raw[0] != '{' {
		return nil, decodeError("payload is not a JSON object")
	}
	// the openai-go decoder coerces mismatched types, so field types are checked first
	var shape chunkShape
	if err := json.Unmarshal(raw, &shape); err != nil {
		return nil, decodeError(err.Error())
	}

	var chunk openai.ChatCompletionChunk
	if err := chunk.UnmarshalJSON(raw); err != nil {
		return nil, decodeError(err.Error())
	}
	return toStreamChunk(chunk), nil
}

// ExtractTextDelta concatenates non-empty delta contents in choice order.
func (c chunkDecoderImpl) ExtractTextDelta(chunk *view.StreamChunk) string {
	if chunk == nil || len(chunk.Choices) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, choice := range chunk.Choices {
		if choice.Delta.Content != "" {
			sb.WriteString(choice.Delta.Content)
		}
	}
	return sb.String()
}

func toStreamChunk(chunk openai.ChatCompletionChunk) *view.StreamChunk {
	result := &view.StreamChunk{
		Id:      chunk.ID,
		Object:  string(chunk.Object),
		Created: chunk.Created,
		Model:   chunk.Model,
		Choices: make([]view.StreamChoice, 0, len(chunk.Choices)),
	}
	for _, choice := range chunk.Choices {
		result.Choices = append(result.Choices, view.StreamChoice{
			Index: int(choice.Index),
			Delta: view.StreamDelta{
				Role:    choice.Delta.Role,
				Content: choice.Delta.Content,
			},
			FinishReason: choice.FinishReason,
		})
	}
	return result
}

func decodeError(reason string) error {
	return &exception.CustomError{
		Status:  http.StatusUnprocessableEntity,
		Code:    exception.DecodeError,
		Message: exception.DecodeErrorMsg,
		Params:  map[string]interface{}{"reason": reason},
	}
}
