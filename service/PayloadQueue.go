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
)

// PayloadQueue is a FIFO of raw SSE payloads. The transport goroutine enqueues, the foreground drains.
type PayloadQueue interface {
	Enqueue(payload string)
	Dequeue() (string, bool)
	Len() int
	Clear()
}

func NewPayloadQueue() PayloadQueue {
	return &payloadQueueImpl{}
}

type payloadQueueImpl struct {
	mutex sync.Mutex
	items []string
	head  int
}

func (q *payloadQueueImpl) Enqueue(payload string) {
	if payload == "" {
		return
	}
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.items = append(q.items, payload)
}

func (q *payloadQueueImpl) Dequeue() (string, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.head >= len(q.items) {
		return "", false
	}
	payload := q.items[q.head]
	q.items[q.head] = ""
	q.head++
	if q.head == len(q.items) {
		q.items = q.items[:0]
		q.head = 0
	}
	return payload, true
}

func (q *payloadQueueImpl) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items) - q.head
}

func (q *payloadQueueImpl) Clear() {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	q.items = nil
	q.head = 0
}
