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

package server

// StreamConfig is the configuration for Nexus's durable event log backend,
// the NATS JetStream subject-partitioned stream described in §4.3.
type StreamConfig struct {
	// URL is the NATS server URL, overridable by the STREAM_URL env var (§6).
	URL string `mapstructure:"url" default:"nats://localhost:4222"`
	// Name is the JetStream stream name.
	Name string `mapstructure:"name" default:"events"`
	// MaxMsgs bounds the stream size; §4.3 default is 100,000.
	MaxMsgs int64 `mapstructure:"max_msgs" default:"100000"`
	// MaxAge bounds the retention window; §4.3 default is 7 days.
	MaxAge string `mapstructure:"max_age" default:"168h"`
	// ConnectRetryAttempts bounds the connect-with-retry schedule (§5).
	ConnectRetryAttempts int `mapstructure:"connect_retry_attempts" default:"5"`
	// ConnectRetryInterval is the delay between connect attempts (§5: 500ms).
	ConnectRetryInterval string `mapstructure:"connect_retry_interval" default:"500ms"`
}
