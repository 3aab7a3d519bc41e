// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
package model

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
)

// ctyToNative converts an evaluated literal into the Go value handed to the
// deployment action: string, bool, *big.Int for numbers, or []any for lists
// and tuples. Non-integer numbers, maps and objects are rejected.
func ctyToNative(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, fmt.Errorf("null is not a valid constructor argument")
	}
	if !val.IsWhollyKnown() {
		return nil, fmt.Errorf("value is not known at load time")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if !bf.IsInt() {
			return nil, fmt.Errorf("number %s is not an integer", bf.Text('f', -1))
		}
		bi, _ := bf.Int(nil)
		return bi, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, elem := it.Element()
			native, err := ctyToNative(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, native)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("values of type %s are not supported as constructor arguments", ty.FriendlyName())
	}
}
