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
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/packetd/tinykv/confengine"
	"github.com/packetd/tinykv/controller"
	"github.com/packetd/tinykv/internal/sigs"
	"github.com/packetd/tinykv/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve [key value]...",
	Short: "Run a tinykv server node",
	Long: "Run a tinykv server node. Any trailing key/value pairs are " +
		"loaded into the cache before the server starts accepting connections.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := confengine.LoadConfigPath(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}

		ctr, err := controller.New(cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to create controller: %v\n", err)
			os.Exit(1)
		}

		if err := ctr.Preload(args); err != nil {
			fmt.Fprintf(os.Stderr, "failed to preload cache: %v\n", err)
			os.Exit(1)
		}

		ctr.Start()

		var reloadTotal int
		for {
			select {
			case <-sigs.Terminate():
				if err := ctr.Stop(); err != nil {
					logger.Errorf("error during shutdown: %v", err)
				}
				return

			case <-sigs.Reload():
				reloadTotal++

				cfg, err := confengine.LoadConfigPath(configPath)
				if err != nil {
					fmt.Fprintf(os.Stderr, "failed to load config (count=%d): %v\n", reloadTotal, err)
					continue
				}

				start := time.Now()
				if err := ctr.Reload(cfg); err != nil {
					logger.Errorf("failed to reload config: %v", err)
				}
				logger.Infof("reload (count=%d) took %s", reloadTotal, time.Since(start))
			}
		}
	},
	Example: "  tinykv serve --config tinykv.yaml\n  tinykv serve --config tinykv.yaml hello world",
}

var configPath string

func init() {
	serveCmd.Flags().StringVar(&configPath, "config", "tinykv.yaml", "Configuration file path")
	rootCmd.AddCommand(serveCmd)
}
