package shortener

import "github.com/jaevor/go-nanoid"

// DefaultCodeLength is the number of characters in a generated code.
const DefaultCodeLength = 6

// CodeGenerator generates short codes.
type CodeGenerator func() string

// NewCodeGenerator returns a nanoid generator over the URL-safe alphabet A-Za-z0-9_-.
func NewCodeGenerator(length int) (CodeGenerator, error) {
	if length <= 0 {
		length = DefaultCodeLength
	}

	gen, err := nanoid.Standard(length)
	if err != nil {
		return nil, err
	}

	return CodeGenerator(gen), nil
}
