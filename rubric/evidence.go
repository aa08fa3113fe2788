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

package rubric

import (
	"fmt"
	"sort"
	"strings"

	"github.com/poiesic/itemforge/core"
)

// EvidenceMap maps evidence-statement codes like "2.e" to their full canonical
// text.
type EvidenceMap map[string]string

// DefaultEvidenceMap returns the authoritative code-to-text mapping for the
// contracts exam blueprint.
func DefaultEvidenceMap() EvidenceMap {
	return EvidenceMap{
		"1.a": "Understand what expectation damages are and what function they serve.",
		"1.b": "Understand the purpose of expectation damages.",
		"1.c": "Calculate expectation damages in a given scenario.",
		"2.a": "Apply the legal test for consideration, including both elements of legal value and bargained-for-exchange.",
		"2.b": "Understand what is meant by 'legal value' and 'bargained-for-exchange.'",
		"2.c": "Identify the legal detriment to the promisee and/or legal benefit to the promisor in a given fact pattern.",
		"2.d": "Identify what is meant by the term 'consideration' in the context of contracts and gifts.",
		"2.e": "Understand the concept of adequacy of consideration and the principle of 'freedom of contract.'",
		"2.f": "Understand why courts, as a general rule, do not inquire into the adequacy of consideration.",
		"3.a": "Distinguish between a gratuitous promise and a contract supported by consideration.",
		"3.b": "Identify elements that make a promise gratuitous.",
		"4.a": "Identify past consideration and explain why it does not support a contract.",
		"4.b": "Distinguish past consideration from valid consideration.",
		"5.a": "Identify an illusory promise and explain why it cannot serve as consideration.",
		"5.b": "Distinguish between illusory and non-illusory promises.",
		"6.a": "Apply the objective theory of contracts to determine mutual assent.",
		"6.b": "Distinguish between objective and subjective intent.",
		"7.a": "Identify the elements of a valid offer.",
		"7.b": "Distinguish between bilateral and unilateral contracts.",
		"8.a": "Identify valid acceptance of an offer.",
		"8.b": "Apply the mailbox rule to determine when acceptance is effective.",
		"9.a": "Apply promissory estoppel to enforce a promise lacking consideration.",
		"9.b": "Identify the elements required for promissory estoppel.",
	}
}

// Expand converts an evidence reference to its full "code: text" form.
//
// Accepted inputs: a bare code ("2.e"), a code with text already attached
// ("2.e: Understand..."), or full text that is not code-shaped (returned
// unchanged). A bare code that is not in the map is an error.
func (m EvidenceMap) Expand(ref string) (string, error) {
	ref = strings.TrimSpace(ref)

	if idx := strings.Index(ref, ":"); idx >= 0 {
		code := strings.TrimSpace(ref[:idx])
		if _, ok := m[code]; ok {
			// Already expanded. Rewrite against the canonical text.
			return code + ": " + m[code], nil
		}
		return ref, nil
	}

	if !looksLikeCode(ref) {
		return ref, nil
	}

	text, ok := m[ref]
	if !ok {
		return "", fmt.Errorf("%w: %q", core.ErrUnknownEvidenceCode, ref)
	}
	return ref + ": " + text, nil
}

// ExpandAll expands every reference in the slice, failing on the first
// unrecognized code.
func (m EvidenceMap) ExpandAll(refs []string) ([]string, error) {
	expanded := make([]string, 0, len(refs))
	for _, ref := range refs {
		full, err := m.Expand(ref)
		if err != nil {
			return nil, err
		}
		expanded = append(expanded, full)
	}
	return expanded, nil
}

// ForTopic returns the expanded evidence statements whose codes belong to the
// given topic, in code order, capped at limit (0 means no cap).
//
// Topic codes are accepted as "TP.2" or bare "2".
func (m EvidenceMap) ForTopic(topic string, limit int) []string {
	suffix := TopicNumber(topic)
	if suffix == "" {
		return nil
	}

	var codes []string
	for code := range m {
		if strings.HasPrefix(code, suffix+".") {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}

	statements := make([]string, 0, len(codes))
	for _, code := range codes {
		statements = append(statements, code+": "+m[code])
	}
	return statements
}

// TopicNumber extracts the numeric part of a topic code.
// "TP.2" and "2" both yield "2".
func TopicNumber(topic string) string {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return ""
	}
	if idx := strings.LastIndex(topic, "."); idx >= 0 {
		return strings.TrimLeft(topic[idx+1:], "0")
	}
	return topic
}

// looksLikeCode reports whether ref has the "<digits>.<letter>" shape of an
// evidence code.
func looksLikeCode(ref string) bool {
	idx := strings.Index(ref, ".")
	if idx <= 0 || idx != len(ref)-2 {
		return false
	}
	for _, r := range ref[:idx] {
		if r < '0' || r > '9' {
			return false
		}
	}
	last := ref[len(ref)-1]
	return last >= 'a' && last <= 'z'
}
