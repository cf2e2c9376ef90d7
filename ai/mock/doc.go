// Package mock provides test doubles for the ai package interfaces.
//
// # Usage
//
//	// Default deterministic behavior
//	mockProvider := mock.NewMockProvider(8)
//	embeddings, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Custom behavior injection
//	mockEmbedder := mock.NewMockEmbedder(3).
//	    WithEmbedTextFunc(func(ctx context.Context, text string) ([]float32, error) {
//	        return []float32{0.1, 0.2, 0.3}, nil
//	    })
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockImageEmbedder: Returns deterministic unit vectors based on image bounds and corner colors
//   - MockProvider: Wraps a MockEmbedder
//
// All mocks are safe for concurrent use.
package mock
