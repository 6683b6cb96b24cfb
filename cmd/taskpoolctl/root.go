// Copyright 2025 Google Inc. All Rights Reserved.
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
	"os"

	"github.com/googlecloudplatform/tserver-taskpool/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cliViper   *viper.Viper
	cfgObj     cfg.Config
	cfgFile    string
	dumpConfig bool
)

var rootCmd = &cobra.Command{
	Use:   "taskpoolctl",
	Short: "Drive the storage-server task pool from the command line",
	Long: `taskpoolctl stands in for the tablet-manager bootstrap path and the
column-file dump utility: real callers that submit work to the task pool
and wait for it to drain. It builds an Executor from the configured pool
knobs and exposes that as subcommands.`,
	PersistentPreRunE: maybeDumpConfig,
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "YAML config file overriding the defaults")
	rootCmd.PersistentFlags().BoolVar(&dumpConfig, "dump-config", false, "print the effective configuration as YAML and exit")

	var err error
	if cliViper, err = cfg.BindFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "error binding flags: %v\n", err)
		os.Exit(1)
	}

	rootCmd.AddCommand(runCmd)
}

// maybeDumpConfig prints the effective configuration and halts the command
// early when --dump-config was passed.
func maybeDumpConfig(cmd *cobra.Command, args []string) error {
	if !dumpConfig {
		return nil
	}
	buf, err := cfg.Dump(&cfgObj)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(buf))
	os.Exit(0)
	return nil
}

func initConfig() {
	if cfgFile != "" {
		cliViper.SetConfigFile(cfgFile)
		if err := cliViper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "error reading config file %q: %v\n", cfgFile, err)
			os.Exit(1)
		}
	}
	if err := cliViper.Unmarshal(&cfgObj); err != nil {
		fmt.Fprintf(os.Stderr, "error unmarshalling config: %v\n", err)
		os.Exit(1)
	}
}
