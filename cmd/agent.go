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

package cmd

import (
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/confengine"
	"github.com/packetd/nghq/controller"
	"github.com/packetd/nghq/internal/sigs"
	"github.com/packetd/nghq/logger"
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "Run the server side of an h3 session, joining a multicast group",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := confengine.LoadConfigPath(agentConfigPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		ctr, err := controller.New(cfg, common.GetBuildInfo())
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create controller: %v\n", err)
			os.Exit(1)
		}
		if err := ctr.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to start controller: %v\n", err)
			os.Exit(1)
		}

		id, err := hex.DecodeString(agentSessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to decode --session-id: %v\n", err)
			os.Exit(1)
		}

		var iface *net.Interface
		if agentIface != "" {
			iface, err = net.InterfaceByName(agentIface)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to resolve --iface %q: %v\n", agentIface, err)
				os.Exit(1)
			}
		}

		sess, shim, err := ctr.ListenMulticast(id, agentGroup, iface)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to listen on multicast group: %v\n", err)
			os.Exit(1)
		}

		go func() {
			if err := shim.Run(sess, agentMaxPacketSize); err != nil {
				logger.Errorf("transport loop for session %x stopped: %v", id, err)
			}
		}()

		var reloadTotal int
		for {
			select {
			case <-sigs.Terminate():
				ctr.Stop()
				return

			case <-sigs.Reload():
				reloadTotal++

				cfg, err := confengine.LoadConfigPath(agentConfigPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to load config (count=%d): %v\n", reloadTotal, err)
					continue
				}

				start := time.Now()
				if err := ctr.Reload(cfg); err != nil {
					logger.Errorf("failed to reload config: %v", err)
				}
				logger.Infof("reload (count=%d) take %s", reloadTotal, time.Since(start))
			}
		}
	},
	Example: "# nghq agent --config nghq.yaml --group 239.0.0.1:4433 --session-id 0102",
}

var (
	agentConfigPath    string
	agentGroup         string
	agentIface         string
	agentSessionID     string
	agentMaxPacketSize int
)

func init() {
	agentCmd.Flags().StringVar(&agentConfigPath, "config", "nghq.yaml", "Configuration file path")
	agentCmd.Flags().StringVar(&agentGroup, "group", "239.0.0.1:4433", "Multicast group address to join")
	agentCmd.Flags().StringVar(&agentIface, "iface", "", "Network interface to join the multicast group on (defaults to the system choice)")
	agentCmd.Flags().StringVar(&agentSessionID, "session-id", "01", "Session id to register, hex encoded")
	agentCmd.Flags().IntVar(&agentMaxPacketSize, "max-packet-size", 1500, "Maximum UDP datagram size read from the transport")
	rootCmd.AddCommand(agentCmd)
}
