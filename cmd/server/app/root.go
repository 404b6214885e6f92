// Copyright 2025 Nexus Authors
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

// Package app provides the cobra command tree for the nexus server process.
package app

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/athulkannan2000/nexus-functions/internal/config"
	serverconfig "github.com/athulkannan2000/nexus-functions/internal/config/server"
)

const configFileName = "config.yaml"

var cfgFile string

// RootCmd is the base command for the nexus server binary.
var RootCmd = &cobra.Command{
	Use:   "nexus-server",
	Short: "Nexus event-processing server",
	Long:  "Ingests CloudEvents, persists them on a durable stream, and dispatches them to sandboxed functions.",
}

// Execute runs the root command, exiting 1 on a fatal startup error (§6).
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $PWD/config.yaml)")

	serverconfig.SetViperDefaults(viper.GetViper())
	if err := serverconfig.RegisterServerFlags(viper.GetViper(), RootCmd.PersistentFlags()); err != nil {
		log.Fatal(err)
	}
}

func initConfig() {
	cfgFileData, err := config.GetConfigFileData(cfgFile, configFileName)
	if err != nil {
		log.Fatal(err)
	}

	if keys := config.GetKeysWithNullValueFromYAML(cfgFileData, ""); len(keys) > 0 {
		RootCmd.PrintErrln("Error: the following configuration keys are missing values:")
		for _, key := range keys {
			RootCmd.PrintErrln("null value at: " + key)
		}
		os.Exit(1)
	}

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath(".")
	}
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Println("Error reading config file:", err)
		}
	}
}

func readConfig() (*serverconfig.Config, error) {
	return config.ReadConfigFromViper[serverconfig.Config](viper.GetViper())
}
