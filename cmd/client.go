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
	"os"

	"github.com/spf13/cobra"

	"github.com/packetd/nghq/common"
	"github.com/packetd/nghq/confengine"
	"github.com/packetd/nghq/controller"
	"github.com/packetd/nghq/h3"
	"github.com/packetd/nghq/internal/sigs"
	"github.com/packetd/nghq/logger"
)

var clientCmd = &cobra.Command{
	Use:   "client",
	Short: "Run the client side of an h3 session, dialing a unicast peer",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := confengine.LoadConfigPath(clientConfigPath)
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

		id, err := hex.DecodeString(clientSessionID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to decode --session-id: %v\n", err)
			os.Exit(1)
		}

		sess, shim, err := ctr.DialUnicast(id, h3.RoleClient, clientLocal, clientRemote)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to dial remote: %v\n", err)
			os.Exit(1)
		}

		go func() {
			if err := shim.Run(sess, clientMaxPacketSize); err != nil {
				logger.Errorf("transport loop for session %x stopped: %v", id, err)
			}
		}()

		<-sigs.Terminate()
		ctr.Stop()
	},
	Example: "# nghq client --remote 10.0.0.1:4433 --session-id 0102",
}

var (
	clientConfigPath    string
	clientLocal         string
	clientRemote        string
	clientSessionID     string
	clientMaxPacketSize int
)

func init() {
	clientCmd.Flags().StringVar(&clientConfigPath, "config", "nghq.yaml", "Configuration file path")
	clientCmd.Flags().StringVar(&clientLocal, "local", "", "Local address to bind (empty picks an ephemeral port)")
	clientCmd.Flags().StringVar(&clientRemote, "remote", "", "Remote address to dial")
	clientCmd.Flags().StringVar(&clientSessionID, "session-id", "01", "Session id to register, hex encoded")
	clientCmd.Flags().IntVar(&clientMaxPacketSize, "max-packet-size", 1500, "Maximum UDP datagram size read from the transport")
	_ = clientCmd.MarkFlagRequired("remote")
	rootCmd.AddCommand(clientCmd)
}
