// Copyright 2025 The packetd Authors
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd wires the nghq command line: a server-role "agent" command
// that joins a multicast group to serve an h3 session and a "client"
// command that dials a unicast peer, both built on top of the controller
// package.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/logger"
)

var rootCmd = &cobra.Command{
	Use:   "nghq",
	Short: "nghq is an HTTP/3-over-QUIC session engine",
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := common.GetBuildInfo()
		fmt.Printf("version: %s\ngit hash: %s\nbuild time: %s\n", info.Version, info.GitHash, info.Time)
	},
}

func init() {
	if _, err := maxprocs.Set(maxprocs.Logger(logger.Infof)); err != nil {
		fmt.Printf("failed to set GOMAXPROCS: %v\n", err)
	}
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
