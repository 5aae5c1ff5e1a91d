package frid

import (
	"fmt"
	"math"
	"math/big"
	"time"
)

// FridType identifies the kind of a FridValue.
type FridType uint8

const (
	TypeNull FridType = iota
	TypeBool
	TypeInt
	TypeReal
	TypeText
	TypeBlob
	TypeDateTime
	TypeList
	TypeDict
)

// String returns the frid type name.
func (t FridType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeBool:
		return "bool"
	case TypeInt:
		return "int"
	case TypeReal:
		return "real"
	case TypeText:
		return "text"
	case TypeBlob:
		return "blob"
	case TypeDateTime:
		return "datetime"
	case TypeList:
		return "list"
	case TypeDict:
		return "dict"
	default:
		return "unknown"
	}
}

// FridValue represents a frid value.
type FridValue struct {
	typ FridType

	// Scalar values (only one valid based on typ)
	boolVal bool
	intVal  int64
	bigVal  *big.Int // non-nil only when the integer does not fit int64
	realVal float64
	textVal string
	blobVal []byte
	timeVal time.Time
	naive   bool // datetime carries no timezone offset

	// Container values
	listVal []*FridValue
	dictVal []MapEntry
}

// MapEntry represents a key-value pair in a dict.
type MapEntry struct {
	Key   string
	Value *FridValue
}

// ============================================================
// Constructors
// ============================================================

// Null creates a null value.
func Null() *FridValue {
	return &FridValue{typ: TypeNull}
}

// Bool creates a boolean value.
func Bool(v bool) *FridValue {
	return &FridValue{typ: TypeBool, boolVal: v}
}

// Int creates an integer value.
func Int(v int64) *FridValue {
	return &FridValue{typ: TypeInt, intVal: v}
}

// BigInt creates an integer value of arbitrary precision.
func BigInt(v *big.Int) *FridValue {
	if v.IsInt64() {
		return &FridValue{typ: TypeInt, intVal: v.Int64()}
	}
	return &FridValue{typ: TypeInt, bigVal: new(big.Int).Set(v)}
}

// Real creates a floating-point value.
func Real(v float64) *FridValue {
	return &FridValue{typ: TypeReal, realVal: v}
}

// Text creates a text value.
func Text(v string) *FridValue {
	return &FridValue{typ: TypeText, textVal: v}
}

// Blob creates a binary value.
func Blob(v []byte) *FridValue {
	return &FridValue{typ: TypeBlob, blobVal: v}
}

// DateTime creates a datetime value with a timezone offset.
// The instant is truncated to microsecond resolution.
func DateTime(v time.Time) *FridValue {
	return &FridValue{typ: TypeDateTime, timeVal: v.Round(0).Truncate(time.Microsecond)}
}

// NaiveDateTime creates a datetime value without a timezone offset.
// The wall-clock fields of v are kept as written.
func NaiveDateTime(v time.Time) *FridValue {
	return &FridValue{
		typ:     TypeDateTime,
		timeVal: v.Round(0).Truncate(time.Microsecond),
		naive:   true,
	}
}

// List creates a list value.
func List(values ...*FridValue) *FridValue {
	return &FridValue{typ: TypeList, listVal: values}
}

// Dict creates a dict value from key-value entries.
func Dict(entries ...MapEntry) *FridValue {
	return &FridValue{typ: TypeDict, dictVal: entries}
}

// Entry creates a MapEntry for use in Dict construction.
func Entry(key string, value *FridValue) MapEntry {
	return MapEntry{Key: key, Value: value}
}

// ============================================================
// Accessors
// ============================================================

// Type returns the value type.
func (v *FridValue) Type() FridType {
	if v == nil {
		return TypeNull
	}
	return v.typ
}

// IsNull returns true if this is a null value.
func (v *FridValue) IsNull() bool {
	return v == nil || v.typ == TypeNull
}

// AsBool returns the boolean value.
func (v *FridValue) AsBool() (bool, error) {
	if v == nil {
		return false, fmt.Errorf("frid: nil value")
	}
	if v.typ != TypeBool {
		return false, fmt.Errorf("frid: expected bool, got %s", v.typ)
	}
	return v.boolVal, nil
}

// AsInt returns the integer value. It fails if the value does not
// fit in an int64; use AsBigInt for the full range.
func (v *FridValue) AsInt() (int64, error) {
	if v == nil {
		return 0, fmt.Errorf("frid: nil value")
	}
	if v.typ != TypeInt {
		return 0, fmt.Errorf("frid: expected int, got %s", v.typ)
	}
	if v.bigVal != nil {
		return 0, fmt.Errorf("frid: int value out of int64 range")
	}
	return v.intVal, nil
}

// AsBigInt returns the integer value at arbitrary precision.
// The returned value is a copy and may be mutated freely.
func (v *FridValue) AsBigInt() (*big.Int, error) {
	if v == nil {
		return nil, fmt.Errorf("frid: nil value")
	}
	if v.typ != TypeInt {
		return nil, fmt.Errorf("frid: expected int, got %s", v.typ)
	}
	if v.bigVal != nil {
		return new(big.Int).Set(v.bigVal), nil
	}
	return big.NewInt(v.intVal), nil
}

// AsReal returns the floating-point value.
func (v *FridValue) AsReal() (float64, error) {
	if v == nil {
		return 0, fmt.Errorf("frid: nil value")
	}
	if v.typ != TypeReal {
		return 0, fmt.Errorf("frid: expected real, got %s", v.typ)
	}
	return v.realVal, nil
}

// AsText returns the text value.
func (v *FridValue) AsText() (string, error) {
	if v == nil {
		return "", fmt.Errorf("frid: nil value")
	}
	if v.typ != TypeText {
		return "", fmt.Errorf("frid: expected text, got %s", v.typ)
	}
	return v.textVal, nil
}

// AsBlob returns the binary value.
func (v *FridValue) AsBlob() ([]byte, error) {
	if v == nil {
		return nil, fmt.Errorf("frid: nil value")
	}
	if v.typ != TypeBlob {
		return nil, fmt.Errorf("frid: expected blob, got %s", v.typ)
	}
	return v.blobVal, nil
}

// AsDateTime returns the datetime value.
func (v *FridValue) AsDateTime() (time.Time, error) {
	if v == nil {
		return time.Time{}, fmt.Errorf("frid: nil value")
	}
	if v.typ != TypeDateTime {
		return time.Time{}, fmt.Errorf("frid: expected datetime, got %s", v.typ)
	}
	return v.timeVal, nil
}

// IsNaiveDateTime returns true for a datetime without a timezone offset.
func (v *FridValue) IsNaiveDateTime() bool {
	return v != nil && v.typ == TypeDateTime && v.naive
}

// AsList returns the list elements.
func (v *FridValue) AsList() ([]*FridValue, error) {
	if v == nil {
		return nil, fmt.Errorf("frid: nil value")
	}
	if v.typ != TypeList {
		return nil, fmt.Errorf("frid: expected list, got %s", v.typ)
	}
	return v.listVal, nil
}

// AsDict returns the dict entries in insertion order.
func (v *FridValue) AsDict() ([]MapEntry, error) {
	if v == nil {
		return nil, fmt.Errorf("frid: nil value")
	}
	if v.typ != TypeDict {
		return nil, fmt.Errorf("frid: expected dict, got %s", v.typ)
	}
	return v.dictVal, nil
}

// Len returns the length of a list, dict, text, or blob.
func (v *FridValue) Len() int {
	if v == nil {
		return 0
	}
	switch v.typ {
	case TypeList:
		return len(v.listVal)
	case TypeDict:
		return len(v.dictVal)
	case TypeText:
		return len(v.textVal)
	case TypeBlob:
		return len(v.blobVal)
	default:
		return 0
	}
}

// Get returns a dict entry value by key, or nil if absent.
func (v *FridValue) Get(key string) *FridValue {
	if v == nil || v.typ != TypeDict {
		return nil
	}
	for _, e := range v.dictVal {
		if e.Key == key {
			return e.Value
		}
	}
	return nil
}

// Index returns the i-th element of a list.
func (v *FridValue) Index(i int) (*FridValue, error) {
	if v == nil || v.typ != TypeList {
		return nil, fmt.Errorf("frid: not a list")
	}
	if i < 0 || i >= len(v.listVal) {
		return nil, fmt.Errorf("frid: index %d out of bounds (len=%d)", i, len(v.listVal))
	}
	return v.listVal[i], nil
}

// ============================================================
// Mutators
// ============================================================

// Set sets a dict entry, replacing an existing key in place.
func (v *FridValue) Set(key string, val *FridValue) {
	if v.typ != TypeDict {
		panic("frid: cannot set on non-dict")
	}
	for i := range v.dictVal {
		if v.dictVal[i].Key == key {
			v.dictVal[i].Value = val
			return
		}
	}
	v.dictVal = append(v.dictVal, MapEntry{Key: key, Value: val})
}

// Append adds a value to a list.
func (v *FridValue) Append(val *FridValue) {
	if v.typ != TypeList {
		panic("frid: cannot append to non-list")
	}
	v.listVal = append(v.listVal, val)
}

// ============================================================
// Numeric Coercion Helpers
// ============================================================

// Number returns a numeric value as float64 if int or real.
func (v *FridValue) Number() (float64, bool) {
	if v == nil {
		return 0, false
	}
	switch v.typ {
	case TypeInt:
		if v.bigVal != nil {
			f, _ := new(big.Float).SetInt(v.bigVal).Float64()
			return f, true
		}
		return float64(v.intVal), true
	case TypeReal:
		return v.realVal, true
	default:
		return 0, false
	}
}

// IsNumeric returns true if int or real.
func (v *FridValue) IsNumeric() bool {
	return v != nil && (v.typ == TypeInt || v.typ == TypeReal)
}

// ============================================================
// Equality
// ============================================================

// Equal reports value equality between two trees. Dicts compare as
// mappings regardless of entry order; zoned datetimes compare as
// instants; NaN equals NaN of the same sign so round-tripped trees
// stay equal to their sources.
func Equal(a, b *FridValue) bool {
	if a == nil || b == nil {
		return a.IsNull() && b.IsNull()
	}
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case TypeNull:
		return true
	case TypeBool:
		return a.boolVal == b.boolVal
	case TypeInt:
		if a.bigVal != nil || b.bigVal != nil {
			ai, _ := a.AsBigInt()
			bi, _ := b.AsBigInt()
			return ai.Cmp(bi) == 0
		}
		return a.intVal == b.intVal
	case TypeReal:
		if math.IsNaN(a.realVal) && math.IsNaN(b.realVal) {
			return math.Signbit(a.realVal) == math.Signbit(b.realVal)
		}
		return a.realVal == b.realVal
	case TypeText:
		return a.textVal == b.textVal
	case TypeBlob:
		if len(a.blobVal) != len(b.blobVal) {
			return false
		}
		for i := range a.blobVal {
			if a.blobVal[i] != b.blobVal[i] {
				return false
			}
		}
		return true
	case TypeDateTime:
		if a.naive != b.naive {
			return false
		}
		if a.naive {
			return a.timeVal.Year() == b.timeVal.Year() &&
				a.timeVal.Month() == b.timeVal.Month() &&
				a.timeVal.Day() == b.timeVal.Day() &&
				a.timeVal.Hour() == b.timeVal.Hour() &&
				a.timeVal.Minute() == b.timeVal.Minute() &&
				a.timeVal.Second() == b.timeVal.Second() &&
				a.timeVal.Nanosecond() == b.timeVal.Nanosecond()
		}
		return a.timeVal.Equal(b.timeVal)
	case TypeList:
		if len(a.listVal) != len(b.listVal) {
			return false
		}
		for i := range a.listVal {
			if !Equal(a.listVal[i], b.listVal[i]) {
				return false
			}
		}
		return true
	case TypeDict:
		if len(a.dictVal) != len(b.dictVal) {
			return false
		}
		for _, e := range a.dictVal {
			if !Equal(e.Value, b.Get(e.Key)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String returns the canonical text form, for debugging.
func (v *FridValue) String() string {
	return Dump(v)
}
