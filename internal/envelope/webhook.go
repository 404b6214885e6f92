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

package envelope

import "strings"

// WebhookPrefixes lists the path prefixes the webhook ingestion adapter
// recognizes (§4.2). Order doesn't matter; the first matching prefix is
// stripped.
var WebhookPrefixes = []string{"/events/", "/webhook/"}

// UnknownEventType is used when the incoming path matches no known prefix.
const UnknownEventType = "com.nexus.unknown"

// TypePrefix is prepended to every webhook-derived event type.
const TypePrefix = "com.nexus."

// TypeFromWebhookPath derives the event type for a webhook request by
// stripping a configured prefix and replacing '/' with '.', then
// prepending TypePrefix (§4.2). An unrecognized path yields UnknownEventType.
func TypeFromWebhookPath(path string) string {
	for _, prefix := range WebhookPrefixes {
		if strings.HasPrefix(path, prefix) {
			rest := strings.TrimPrefix(path, prefix)
			rest = strings.Trim(rest, "/")
			if rest == "" {
				return UnknownEventType
			}
			return TypePrefix + strings.ReplaceAll(rest, "/", ".")
		}
	}
	return UnknownEventType
}
