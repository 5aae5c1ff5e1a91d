package frid

import (
	"math"
	"math/big"
	"strings"
	"testing"
	"time"
)

func TestValueTypes(t *testing.T) {
	tests := []struct {
		name string
		v    *FridValue
		want FridType
	}{
		{"null", Null(), TypeNull},
		{"bool", Bool(true), TypeBool},
		{"int", Int(1), TypeInt},
		{"big int", BigInt(big.NewInt(1)), TypeInt},
		{"real", Real(1.5), TypeReal},
		{"text", Text("x"), TypeText},
		{"blob", Blob([]byte{1}), TypeBlob},
		{"datetime", DateTime(time.Unix(0, 0)), TypeDateTime},
		{"naive datetime", NaiveDateTime(time.Unix(0, 0)), TypeDateTime},
		{"list", List(), TypeList},
		{"dict", Dict(), TypeDict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Type(); got != tt.want {
				t.Errorf("Type() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := (*FridValue)(nil).Type(); got != TypeNull {
		t.Errorf("nil Type() = %v, want %v", got, TypeNull)
	}
}

func TestIsNull(t *testing.T) {
	if !Null().IsNull() {
		t.Error("Null().IsNull() = false")
	}
	if !(*FridValue)(nil).IsNull() {
		t.Error("nil.IsNull() = false")
	}
	if Int(0).IsNull() {
		t.Error("Int(0).IsNull() = true")
	}
	if Text("").IsNull() {
		t.Error("Text(\"\").IsNull() = true")
	}
}

func TestAccessorMismatch(t *testing.T) {
	v := Int(1)
	if _, err := v.AsBool(); err == nil || !strings.Contains(err.Error(), "expected bool, got int") {
		t.Errorf("AsBool on int = %v", err)
	}
	if _, err := v.AsText(); err == nil || !strings.Contains(err.Error(), "expected text, got int") {
		t.Errorf("AsText on int = %v", err)
	}
	if _, err := Text("x").AsInt(); err == nil || !strings.Contains(err.Error(), "expected int, got text") {
		t.Errorf("AsInt on text = %v", err)
	}
	if _, err := List().AsDict(); err == nil || !strings.Contains(err.Error(), "expected dict, got list") {
		t.Errorf("AsDict on list = %v", err)
	}
	if _, err := (*FridValue)(nil).AsReal(); err == nil || !strings.Contains(err.Error(), "nil value") {
		t.Errorf("AsReal on nil = %v", err)
	}
}

func TestBigIntNormalization(t *testing.T) {
	// Values fitting int64 are stored small regardless of constructor.
	small := BigInt(big.NewInt(42))
	n, err := small.AsInt()
	if err != nil {
		t.Fatalf("AsInt error: %v", err)
	}
	if n != 42 {
		t.Errorf("AsInt = %d, want 42", n)
	}
	if !Equal(small, Int(42)) {
		t.Error("BigInt(42) != Int(42)")
	}

	huge := new(big.Int).Lsh(big.NewInt(1), 100)
	v := BigInt(huge)
	if _, err := v.AsInt(); err == nil || !strings.Contains(err.Error(), "out of int64 range") {
		t.Errorf("AsInt on big = %v, want range error", err)
	}
	got, err := v.AsBigInt()
	if err != nil {
		t.Fatalf("AsBigInt error: %v", err)
	}
	if got.Cmp(huge) != 0 {
		t.Errorf("AsBigInt = %v, want %v", got, huge)
	}

	// The returned integer is a copy; mutating it leaves the value alone.
	got.SetInt64(0)
	again, _ := v.AsBigInt()
	if again.Cmp(huge) != 0 {
		t.Error("mutating the AsBigInt result changed the value")
	}

	// The constructor copies its argument too.
	huge.SetInt64(7)
	final, _ := v.AsBigInt()
	if final.Cmp(new(big.Int).Lsh(big.NewInt(1), 100)) != 0 {
		t.Error("mutating the constructor argument changed the value")
	}
}

func TestDateTimeResolution(t *testing.T) {
	in := time.Date(2024, 1, 15, 10, 30, 0, 123456789, time.UTC)
	v := DateTime(in)
	got, err := v.AsDateTime()
	if err != nil {
		t.Fatalf("AsDateTime error: %v", err)
	}
	if got.Nanosecond() != 123456000 {
		t.Errorf("Nanosecond = %d, want truncation to 123456000", got.Nanosecond())
	}
	if v.IsNaiveDateTime() {
		t.Error("DateTime reported naive")
	}
	if !NaiveDateTime(in).IsNaiveDateTime() {
		t.Error("NaiveDateTime not reported naive")
	}
	if Int(1).IsNaiveDateTime() {
		t.Error("Int reported naive datetime")
	}
}

func TestDictOps(t *testing.T) {
	v := Dict(Entry("a", Int(1)), Entry("b", Int(2)))
	if got := v.Get("a"); !Equal(got, Int(1)) {
		t.Errorf("Get(a) = %v, want 1", got)
	}
	if got := v.Get("missing"); got != nil {
		t.Errorf("Get(missing) = %v, want nil", got)
	}

	// Replacing keeps the entry position; new keys append.
	v.Set("a", Int(10))
	v.Set("c", Int(3))
	entries, _ := v.AsDict()
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	if entries[0].Key != "a" || !Equal(entries[0].Value, Int(10)) {
		t.Errorf("entries[0] = %s:%v, want a:10", entries[0].Key, entries[0].Value)
	}
	if entries[2].Key != "c" {
		t.Errorf("entries[2].Key = %q, want c", entries[2].Key)
	}
	if v.Len() != 3 {
		t.Errorf("Len() = %d, want 3", v.Len())
	}

	if Int(1).Get("a") != nil {
		t.Error("Get on non-dict = non-nil")
	}
}

func TestListOps(t *testing.T) {
	v := List(Int(1), Int(2))
	v.Append(Int(3))
	if v.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", v.Len())
	}
	e, err := v.Index(2)
	if err != nil {
		t.Fatalf("Index(2) error: %v", err)
	}
	if !Equal(e, Int(3)) {
		t.Errorf("Index(2) = %v, want 3", e)
	}
	if _, err := v.Index(3); err == nil {
		t.Error("Index(3) expected error, got none")
	}
	if _, err := v.Index(-1); err == nil {
		t.Error("Index(-1) expected error, got none")
	}
	if _, err := Int(1).Index(0); err == nil {
		t.Error("Index on non-list expected error, got none")
	}
}

func TestLen(t *testing.T) {
	tests := []struct {
		name string
		v    *FridValue
		want int
	}{
		{"text bytes", Text("héllo"), 6},
		{"blob", Blob([]byte{1, 2, 3}), 3},
		{"list", List(Int(1)), 1},
		{"dict", Dict(Entry("a", Int(1))), 1},
		{"scalar", Int(7), 0},
		{"nil", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Len(); got != tt.want {
				t.Errorf("Len() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestNumber(t *testing.T) {
	if f, ok := Int(3).Number(); !ok || f != 3 {
		t.Errorf("Int(3).Number() = %v, %v", f, ok)
	}
	if f, ok := Real(0.5).Number(); !ok || f != 0.5 {
		t.Errorf("Real(0.5).Number() = %v, %v", f, ok)
	}
	big100 := BigInt(new(big.Int).Lsh(big.NewInt(1), 100))
	if f, ok := big100.Number(); !ok || f != math.Ldexp(1, 100) {
		t.Errorf("2^100.Number() = %v, %v", f, ok)
	}
	if _, ok := Text("3").Number(); ok {
		t.Error("Text.Number() = ok")
	}
	if !Int(1).IsNumeric() || !Real(1).IsNumeric() || Text("1").IsNumeric() {
		t.Error("IsNumeric misclassified")
	}
}

func TestEqual(t *testing.T) {
	sameInstant := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	otherZone := sameInstant.In(time.FixedZone("", 5*3600+30*60))

	equal := []struct {
		name string
		a, b *FridValue
	}{
		{"nulls", Null(), Null()},
		{"nil and null", nil, Null()},
		{"ints", Int(5), Int(5)},
		{"int forms", Int(5), BigInt(big.NewInt(5))},
		{"nan", Real(math.NaN()), Real(math.NaN())},
		{"zoned instants", DateTime(sameInstant), DateTime(otherZone)},
		{"dict order", Dict(Entry("a", Int(1)), Entry("b", Int(2))),
			Dict(Entry("b", Int(2)), Entry("a", Int(1)))},
		{"nested", List(Dict(Entry("k", List(Int(1))))), List(Dict(Entry("k", List(Int(1)))))},
		{"empty blobs", Blob(nil), Blob([]byte{})},
	}
	for _, tt := range equal {
		t.Run("equal "+tt.name, func(t *testing.T) {
			if !Equal(tt.a, tt.b) {
				t.Errorf("Equal(%v, %v) = false, want true", tt.a, tt.b)
			}
		})
	}

	different := []struct {
		name string
		a, b *FridValue
	}{
		{"nil and int", nil, Int(0)},
		{"int and real", Int(1), Real(1)},
		{"nan signs", Real(math.NaN()), Real(math.Copysign(math.NaN(), -1))},
		{"bool", Bool(true), Bool(false)},
		{"text case", Text("a"), Text("A")},
		{"blob", Blob([]byte{1}), Blob([]byte{2})},
		{"naive and zoned", NaiveDateTime(sameInstant), DateTime(sameInstant)},
		{"list length", List(Int(1)), List(Int(1), Int(2))},
		{"dict keys", Dict(Entry("a", Int(1))), Dict(Entry("b", Int(1)))},
		{"dict values", Dict(Entry("a", Int(1))), Dict(Entry("a", Int(2)))},
	}
	for _, tt := range different {
		t.Run("different "+tt.name, func(t *testing.T) {
			if Equal(tt.a, tt.b) {
				t.Errorf("Equal(%v, %v) = true, want false", tt.a, tt.b)
			}
		})
	}
}
