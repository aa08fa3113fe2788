// Package ai defines the contracts for the external model services the
// pipeline delegates to: item drafting, quality scoring and text embedding.
// Production implementations live in ai/openai; test doubles in ai/mock.
package ai
