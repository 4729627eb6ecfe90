package record

import (
	"fmt"
	"math"
	"reflect"

	"gonum.org/v1/gonum/mat"
)

// UnsupportedTypeError is returned by ToJSON for a value it has no JSON form
// for.
type UnsupportedTypeError struct {
	Type reflect.Type
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("record: object of type %v is not JSON serializable", e.Type)
}

func number(f float64) interface{} {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return f
}

// unsigned keeps values above math.MaxInt64 as uint64.
func unsigned(x uint64) interface{} {
	if x > math.MaxInt64 {
		return x
	}
	return int64(x)
}

// ToJSON converts v to a value encoding/json writes natively. Integers
// become int64 (unsigned values beyond its range stay uint64), floats become float64 (nil when not finite), and vectors and
// matrices become slices in element order. Anything else is an
// *UnsupportedTypeError.
func ToJSON(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool, string:
		return x, nil
	case int:
		return int64(x), nil
	case int8:
		return int64(x), nil
	case int16:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case int64:
		return x, nil
	case uint:
		return unsigned(uint64(x)), nil
	case uint8:
		return int64(x), nil
	case uint16:
		return int64(x), nil
	case uint32:
		return int64(x), nil
	case uint64:
		return unsigned(x), nil
	case float32:
		return number(float64(x)), nil
	case float64:
		return number(x), nil
	case []int:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = int64(e)
		}
		return out, nil
	case []int64:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = e
		}
		return out, nil
	case []float64:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = number(e)
		}
		return out, nil
	case mat.Vector:
		out := make([]interface{}, x.Len())
		for i := range out {
			out[i] = number(x.AtVec(i))
		}
		return out, nil
	case mat.Matrix:
		r, c := x.Dims()
		out := make([]interface{}, r)
		for i := 0; i < r; i++ {
			row := make([]interface{}, c)
			for j := range row {
				row[j] = number(x.At(i, j))
			}
			out[i] = row
		}
		return out, nil
	}
	return nil, &UnsupportedTypeError{Type: reflect.TypeOf(v)}
}
