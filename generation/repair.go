// Copyright 2025 Poiesic Systems
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


package generation

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	bareKeyPattern       = regexp.MustCompile(`([{,])\s*([\w\x{4e00}-\x{9fa5}]+)\s*:`)
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// repairJSON fixes the formatting mistakes models commonly make when asked
// for JSON: single quotes, keys missing one or both quotes, raw line breaks
// and trailing commas. The result is not guaranteed to parse.
func repairJSON(s string) string {
	s = strings.ReplaceAll(s, "'", `"`)
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	s = quoteHalfQuotedKeys(s)
	s = bareKeyPattern.ReplaceAllString(s, `$1"$2":`)
	s = trailingCommaPattern.ReplaceAllString(s, "$1")
	return s
}

// quoteHalfQuotedKeys adds the missing opening quote to keys written as
// `, type":` or `{ name":`.
func quoteHalfQuotedKeys(s string) string {
	in := []rune(s)
	out := make([]rune, 0, len(in)+16)

	i := 0
	for i < len(in) {
		ch := in[i]
		out = append(out, ch)
		i++
		if ch != '{' && ch != ',' {
			continue
		}

		for i < len(in) && unicode.IsSpace(in[i]) {
			out = append(out, in[i])
			i++
		}
		if i >= len(in) || !isKeyRune(in[i]) {
			continue
		}

		keyStart := i
		for i < len(in) && isKeyRune(in[i]) {
			i++
		}
		if i+1 < len(in) && in[i] == '"' && in[i+1] == ':' {
			out = append(out, '"')
		}
		out = append(out, in[keyStart:i]...)
	}
	return string(out)
}

func isKeyRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
