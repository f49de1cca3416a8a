package treefmt

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/aledsdavies/treelang/core/tree"
)

// EncodeCBOR encodes t as canonical CBOR, so equal trees encode to identical
// bytes.
func EncodeCBOR(t *tree.Tree) ([]byte, error) {
	env, err := toArena(t)
	if err != nil {
		return nil, err
	}

	encMode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR encoder: %w", err)
	}
	data, err := encMode.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("CBOR encoding failed: %w", err)
	}
	return data, nil
}

// DecodeCBOR decodes a document written by EncodeCBOR. Unknown fields,
// duplicate keys and a different major version are rejected.
func DecodeCBOR(data []byte) (*tree.Tree, error) {
	decMode, err := cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxArrayElements:  1 << 24,
	}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("create CBOR decoder: %w", err)
	}

	var env envelope
	if err := decMode.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("CBOR decoding failed: %w", err)
	}
	return fromArena(&env)
}
