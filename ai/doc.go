// Package ai provides abstractions for the embedding services used in FileSeekr.
//
// Every modality is embedded into its own space. A Space has a fixed dimension,
// a fixed distance metric and a model version; vectors from different spaces are
// never compared. The Registry binds each Space to the embedder that produces it.
//
// # Design Principles
//
// The package is designed around three key interfaces:
//   - Embedder: Generates vector embeddings from text
//   - ImageEmbedder: Generates perceptual embeddings from decoded images
//   - AIProvider: Aggregates a text embedder with its space descriptor
//
// # Implementation Packages
//
//   - ai/openai: OpenAI-compatible embedding APIs via langchaingo
//   - ai/fastembed: local ONNX models (requires cgo)
//   - ai/hashing: deterministic feature-hashing embedder, no external services
//   - ai/visual: perceptual image embedder
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public provider constructors return ai.AIProvider. Test utility constructors
// (mock.NewMockEmbedder) return concrete types so tests can inject behavior and
// assert on call counts.
//
// # Usage Example
//
//	provider, err := openai.NewProvider(ai.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	registry := ai.NewRegistry()
//	err = registry.RegisterText(provider.Space(core.SpaceText), provider.Embedder())
package ai
