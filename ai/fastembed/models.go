// Package fastembed provides a local ONNX text embedder via fastembed-go.
// It requires cgo; builds without cgo get a provider that always fails.
package fastembed

import "errors"

// ErrNotAvailable is returned when the binary was built without cgo.
var ErrNotAvailable = errors.New("fastembed: not available (binary built without cgo support)")

// ErrUnsupportedModel is returned for model names without a known dimension.
var ErrUnsupportedModel = errors.New("fastembed: unsupported model")

// modelDimensions maps accepted model names to their embedding dimensions.
var modelDimensions = map[string]int{
	"BAAI/bge-small-en-v1.5":                 384,
	"BAAI/bge-small-en":                      384,
	"BAAI/bge-base-en-v1.5":                  768,
	"BAAI/bge-base-en":                       768,
	"sentence-transformers/all-MiniLM-L6-v2": 384,
	"fast-bge-small-en-v1.5":                 384,
	"fast-bge-small-en":                      384,
	"fast-bge-base-en-v1.5":                  768,
	"fast-bge-base-en":                       768,
	"fast-all-MiniLM-L6-v2":                  384,
}

// ModelDimension returns the dimension of a supported model.
func ModelDimension(model string) (int, bool) {
	dim, ok := modelDimensions[model]
	return dim, ok
}
