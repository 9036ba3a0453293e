package assets

import (
	"errors"
	"fmt"
)

// ErrAssetLoad matches every *LoadError via errors.Is.
var ErrAssetLoad = errors.New("asset load failure")

// Kind identifies what was being loaded.
type Kind int

// Asset kinds.
const (
	KindModel Kind = iota
	KindTexture
	KindEnvironment
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindModel:
		return "model"
	case KindTexture:
		return "texture"
	case KindEnvironment:
		return "environment"
	default:
		return "file"
	}
}

// LoadError reports a failed or timed-out asset load.
type LoadError struct {
	Kind Kind
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%v: %s %s: %v", ErrAssetLoad, e.Kind, e.Path, e.Err)
}

// Is reports whether target is ErrAssetLoad.
func (e *LoadError) Is(target error) bool {
	return target == ErrAssetLoad
}

// Unwrap returns the underlying cause.
func (e *LoadError) Unwrap() error {
	return e.Err
}
