package chain

import (
	"fmt"
	"math/big"
	"reflect"
	"strconv"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
)

// ArgumentError reports a constructor argument that does not fit its ABI
// type.
type ArgumentError struct {
	Index int
	Name  string
	Type  string
	Err   error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("constructor argument %d (%s %s): %v", e.Index, e.Type, e.Name, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }

var bigIntType = reflect.TypeOf(&big.Int{})

// coerceArgs converts resolved unit arguments into the Go values the ABI
// packer expects for inputs.
func coerceArgs(inputs abi.Arguments, args []any) ([]any, error) {
	if len(inputs) != len(args) {
		return nil, fmt.Errorf("constructor takes %d arguments, got %d", len(inputs), len(args))
	}
	out := make([]any, len(args))
	for i, in := range inputs {
		v, err := coerce(in.Type, args[i])
		if err != nil {
			return nil, &ArgumentError{Index: i, Name: in.Name, Type: in.Type.String(), Err: err}
		}
		out[i] = v
	}
	return out, nil
}

func coerce(t abi.Type, v any) (any, error) {
	switch t.T {
	case abi.AddressTy:
		switch x := v.(type) {
		case common.Address:
			return x, nil
		case string:
			if !common.IsHexAddress(x) {
				return nil, fmt.Errorf("%q is not a hex address", x)
			}
			return common.HexToAddress(x), nil
		}

	case abi.UintTy, abi.IntTy:
		n, err := toBigInt(v)
		if err != nil {
			return nil, err
		}
		if err := checkRange(t, n); err != nil {
			return nil, err
		}
		rt := t.GetType()
		if rt == bigIntType {
			return n, nil
		}
		rv := reflect.New(rt).Elem()
		if t.T == abi.UintTy {
			rv.SetUint(n.Uint64())
		} else {
			rv.SetInt(n.Int64())
		}
		return rv.Interface(), nil

	case abi.BoolTy:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			b, err := strconv.ParseBool(x)
			if err != nil {
				return nil, fmt.Errorf("%q is not a boolean", x)
			}
			return b, nil
		}

	case abi.StringTy:
		if s, ok := v.(string); ok {
			return s, nil
		}

	case abi.BytesTy:
		return toBytes(v)

	case abi.FixedBytesTy:
		b, err := toBytes(v)
		if err != nil {
			return nil, err
		}
		if len(b) != t.Size {
			return nil, fmt.Errorf("expected %d bytes, got %d", t.Size, len(b))
		}
		rv := reflect.New(t.GetType()).Elem()
		reflect.Copy(rv.Slice(0, t.Size), reflect.ValueOf(b))
		return rv.Interface(), nil

	case abi.SliceTy, abi.ArrayTy:
		list, ok := v.([]any)
		if !ok {
			break
		}
		if t.T == abi.ArrayTy && len(list) != t.Size {
			return nil, fmt.Errorf("expected %d elements, got %d", t.Size, len(list))
		}
		var rv reflect.Value
		if t.T == abi.SliceTy {
			rv = reflect.MakeSlice(t.GetType(), len(list), len(list))
		} else {
			rv = reflect.New(t.GetType()).Elem()
		}
		for i, elem := range list {
			ev, err := coerce(*t.Elem, elem)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			rv.Index(i).Set(reflect.ValueOf(ev))
		}
		return rv.Interface(), nil

	default:
		return nil, fmt.Errorf("ABI type %s is not supported", t.String())
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t.String())
}

func toBigInt(v any) (*big.Int, error) {
	switch x := v.(type) {
	case *big.Int:
		if x == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case int8:
		return big.NewInt(int64(x)), nil
	case int16:
		return big.NewInt(int64(x)), nil
	case int32:
		return big.NewInt(int64(x)), nil
	case int64:
		return big.NewInt(x), nil
	case uint:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), nil
	case uint64:
		return new(big.Int).SetUint64(x), nil
	case string:
		n, ok := math.ParseBig256(x)
		if !ok {
			return nil, fmt.Errorf("%q is not an integer", x)
		}
		return n, nil
	}
	return nil, fmt.Errorf("cannot use %T as an integer", v)
}

func checkRange(t abi.Type, n *big.Int) error {
	if t.T == abi.UintTy {
		if n.Sign() < 0 || n.BitLen() > t.Size {
			return fmt.Errorf("%s does not fit in uint%d", n, t.Size)
		}
		return nil
	}
	limit := new(big.Int).Lsh(big.NewInt(1), uint(t.Size-1))
	minimum := new(big.Int).Neg(limit)
	if n.Cmp(minimum) < 0 || n.Cmp(limit) >= 0 {
		return fmt.Errorf("%s does not fit in int%d", n, t.Size)
	}
	return nil
}

func toBytes(v any) ([]byte, error) {
	switch x := v.(type) {
	case []byte:
		return x, nil
	case string:
		b, err := hexutil.Decode(x)
		if err != nil {
			return nil, fmt.Errorf("%q is not 0x-prefixed hex: %w", x, err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("cannot use %T as bytes", v)
}
