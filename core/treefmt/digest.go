package treefmt

import (
	"fmt"

	"github.com/aledsdavies/treelang/core/tree"
	"golang.org/x/crypto/blake2b"
)

// Digest returns "blake2b:<hex>" over the S-expression form of t. Trees that
// are Equal have the same digest.
func Digest(t *tree.Tree) (string, error) {
	hasher, err := blake2b.New256(nil)
	if err != nil {
		return "", fmt.Errorf("create hasher: %w", err)
	}
	if err := Write(hasher, t); err != nil {
		return "", err
	}
	return fmt.Sprintf("blake2b:%x", hasher.Sum(nil)), nil
}
