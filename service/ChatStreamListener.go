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
	"sync"

	"github.com/dougong-game/aichat-client/utils"
	"github.com/dougong-game/aichat-client/view"
	log "github.com/sirupsen/logrus"
)

// ChatStreamListener receives session notifications on the goroutine that calls Tick or SendChat.
// Exactly one of OnStreamRequestCompleted and OnStreamRequestFailed is called per session.
type ChatStreamListener interface {
	OnStreamChunkReceived(chunk view.StreamChunk)
	OnStreamTextUpdated(delta string)
	OnStreamRequestCompleted(fullText string)
	OnStreamRequestFailed(errorMessage string)
}

// ChatStreamListenerFuncs adapts plain functions to ChatStreamListener, nil members are skipped.
type ChatStreamListenerFuncs struct {
	ChunkReceived    func(chunk view.StreamChunk)
	TextUpdated      func(delta string)
	RequestCompleted func(fullText string)
	RequestFailed    func(errorMessage string)
}

func (f ChatStreamListenerFuncs) OnStreamChunkReceived(chunk view.StreamChunk) {
	if f.ChunkReceived != nil {
		f.ChunkReceived(chunk)
	}
}

func (f ChatStreamListenerFuncs) OnStreamTextUpdated(delta string) {
	if f.TextUpdated != nil {
		f.TextUpdated(delta)
	}
}

func (f ChatStreamListenerFuncs) OnStreamRequestCompleted(fullText string) {
	if f.RequestCompleted != nil {
		f.RequestCompleted(fullText)
	}
}

func (f ChatStreamListenerFuncs) OnStreamRequestFailed(errorMessage string) {
	if f.RequestFailed != nil {
		f.RequestFailed(errorMessage)
	}
}

type listenerEntry struct {
	id       int
	listener ChatStreamListener
}

type listenerRegistry struct {
	mutex   sync.Mutex
	nextId  int
	entries []listenerEntry
}

func (r *listenerRegistry) add(listener ChatStreamListener) func() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.nextId++
	id := r.nextId
	r.entries = append(r.entries, listenerEntry{id: id, listener: listener})
	return func() {
		r.remove(id)
	}
}

func (r *listenerRegistry) remove(id int) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	for i, entry := range r.entries {
		if entry.id == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			return
		}
	}
}

func (r *listenerRegistry) each(fn func(listener ChatStreamListener)) {
	r.mutex.Lock()
	entries := make([]listenerEntry, len(r.entries))
	copy(entries, r.entries)
	r.mutex.Unlock()

	for _, entry := range entries {
		listener := entry.listener
		if err := utils.SafeSync(func() error {
			fn(listener)
			return nil
		}); err != nil {
			log.Errorf("AI chat stream listener failed: %v", err)
		}
	}
}

func (r *listenerRegistry) chunkReceived(chunk view.StreamChunk) {
	r.each(func(listener ChatStreamListener) { listener.OnStreamChunkReceived(chunk) })
}

func (r *listenerRegistry) textUpdated(delta string) {
	r.each(func(listener ChatStreamListener) { listener.OnStreamTextUpdated(delta) })
}

func (r *listenerRegistry) requestCompleted(fullText string) {
	r.each(func(listener ChatStreamListener) { listener.OnStreamRequestCompleted(fullText) })
}

func (r *listenerRegistry) requestFailed(errorMessage string) {
	r.each(func(listener ChatStreamListener) { listener.OnStreamRequestFailed(errorMessage) })
}
