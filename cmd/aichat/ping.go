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

package main

import (
	"fmt"

	"github.com/dougong-game/aichat-client/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func runPing(cmd *cobra.Command, args []string) error {
	aiChat, err := service.NewAIChatService(cfg)
	if err != nil {
		return err
	}
	defer aiChat.Close()

	state, _ := aiChat.Heartbeat().Probe(cmd.Context())
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "endpoint reachable: %t\n", state.EndpointReachable)
	fmt.Fprintf(out, "connection valid:   %t\n", state.ConnectionValid)
	if state.StatusCode != 0 {
		fmt.Fprintf(out, "status code:        %d\n", state.StatusCode)
	}
	if !state.ConnectionValid {
		return errors.Errorf("heartbeat failed: %s", state.ErrorMessage)
	}
	return nil
}
