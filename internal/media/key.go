/**
* Copyright 2025 The Drivegallery Authors
* Licensed under the Apache License, Version 2.0 (the "License");
* you may not use this file except in compliance with the License.
* You may obtain a copy of the License at
* http://www.apache.org/licenses/LICENSE-2.0
* Unless required by applicable law or agreed to in writing, software
* distributed under the License is distributed on an "AS IS" BASIS,
* WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
* See the License for the specific language governing permissions and
* limitations under the License.
 */

package media

import (
	"fmt"
	"regexp"
)

// Variant identifies which rendition of an object is requested
type Variant int

const (
	// VariantOriginal requests the full original bytes
	VariantOriginal Variant = iota
	// VariantThumbnail requests the derived preview
	VariantThumbnail
)

func (v Variant) String() string {
	if v == VariantThumbnail {
		return "thumbnail"
	}
	return "original"
}

// Key derives the cache key for the provided object id and variant
func (v Variant) Key(id string) string {
	if v == VariantThumbnail {
		return "thumb_" + id
	}
	return "img_" + id
}

var sizeTokenRe = regexp.MustCompile(`=s\d+`)

// NormalizeSizeToken rewrites any embedded =s<n> size token in a thumbnail
// URL to the canonical size, so cache keys and visual results are
// deterministic regardless of what the upstream happened to return. URLs
// without a size token get one appended.
func NormalizeSizeToken(rawURL string, size int) string {
	canonical := fmt.Sprintf("=s%d", size)
	if sizeTokenRe.MatchString(rawURL) {
		return sizeTokenRe.ReplaceAllString(rawURL, canonical)
	}
	return rawURL + canonical
}
