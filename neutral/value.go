// Package neutral implements the Value Bridge: conversion between the
// embedded Lua VM's native values and a host-neutral tagged value that can
// be safely deep-copied across goroutine/VM boundaries.
//
// Snapshots crossing threads must never carry script-native references —
// two independent gopher-lua states are not safe to share tables between,
// and even a single-VM handoff would let a producer mutate state a
// consumer already observed. NeutralValue makes that boundary explicit:
// it owns its data outright, rejects cycles instead of silently looping
// forever, and is cheap to reason about in tests.
package neutral

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	lua "github.com/yuin/gopher-lua"
)

var (
	ErrUnsupportedKind = errors.New("value bridge: unsupported script value kind")
	ErrCyclic          = errors.New("value bridge: cyclic value")
	ErrDepthExceeded   = errors.New("value bridge: maximum nesting depth exceeded")
)

// DefaultMaxDepth bounds how deeply nested a value may be before conversion
// is rejected. Chosen well above any reasonable game-state document; the
// real purpose is to convert unbounded recursion into a returned error.
const DefaultMaxDepth = 32

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindArray
	KindMap
	KindBytes
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindBytes:
		return "bytes"
	default:
		return "unknown"
	}
}

// Value is the host-neutral dynamic value: a tagged variant capable of
// representing anything a script table can carry, minus callables,
// userdata, and threads.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Bytes []byte
	Array []Value
	Map   map[string]Value
}

// Null returns the null neutral value.
func Null() Value { return Value{Kind: KindNull} }

// FromBool, FromInt, FromFloat, FromString, FromBytes are convenience
// constructors used by host bindings and tests.
func FromBool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func FromInt(i int64) Value      { return Value{Kind: KindInt, Int: i} }
func FromFloat(f float64) Value  { return Value{Kind: KindFloat, Float: f} }
func FromString(s string) Value  { return Value{Kind: KindString, Str: s} }
func FromBytes(b []byte) Value   { return Value{Kind: KindBytes, Bytes: append([]byte(nil), b...)} }
func FromArray(a []Value) Value  { return Value{Kind: KindArray, Array: a} }
func FromMap(m map[string]Value) Value { return Value{Kind: KindMap, Map: m} }

// Clone returns a fully independent deep copy of v. The shared snapshot
// store uses Clone on every publish and every read so no two goroutines
// ever observe (let alone mutate) the same backing array or map.
func Clone(v Value) Value {
	switch v.Kind {
	case KindArray:
		out := make([]Value, len(v.Array))
		for i, e := range v.Array {
			out[i] = Clone(e)
		}
		return Value{Kind: KindArray, Array: out}
	case KindMap:
		out := make(map[string]Value, len(v.Map))
		for k, e := range v.Map {
			out[k] = Clone(e)
		}
		return Value{Kind: KindMap, Map: out}
	case KindBytes:
		return Value{Kind: KindBytes, Bytes: append([]byte(nil), v.Bytes...)}
	default:
		return v
	}
}

// ToNeutral recursively copies a script value into a NeutralValue. Tables
// with non-string, non-contiguous-integer keys are coerced to a Map with
// canonically stringified numeric keys. Callables, userdata, and threads
// are rejected with ErrUnsupportedKind. Cycles are detected via an
// identity set kept for the current recursion path and rejected with
// ErrCyclic; depth beyond DefaultMaxDepth is rejected with
// ErrDepthExceeded.
func ToNeutral(v lua.LValue) (Value, error) {
	return toNeutral(v, 0, make(map[*lua.LTable]struct{}))
}

func toNeutral(v lua.LValue, depth int, visiting map[*lua.LTable]struct{}) (Value, error) {
	if depth > DefaultMaxDepth {
		return Value{}, ErrDepthExceeded
	}

	switch t := v.(type) {
	case *lua.LNilType:
		return Null(), nil
	case lua.LBool:
		return FromBool(bool(t)), nil
	case lua.LNumber:
		f := float64(t)
		if f == math.Trunc(f) && !math.IsInf(f, 0) && withinInt64(f) {
			return FromInt(int64(f)), nil
		}
		return FromFloat(f), nil
	case lua.LString:
		return FromString(string(t)), nil
	case *lua.LTable:
		return tableToNeutral(t, depth, visiting)
	case *lua.LUserData:
		return Value{}, fmt.Errorf("%w: userdata", ErrUnsupportedKind)
	default:
		switch v.Type() {
		case lua.LTFunction:
			return Value{}, fmt.Errorf("%w: function", ErrUnsupportedKind)
		case lua.LTThread:
			return Value{}, fmt.Errorf("%w: thread", ErrUnsupportedKind)
		}
		return Value{}, fmt.Errorf("%w: %s", ErrUnsupportedKind, v.Type().String())
	}
}

func withinInt64(f float64) bool {
	return f >= -9.223372036854776e18 && f < 9.223372036854776e18
}

type tableEntry struct {
	key lua.LValue
	val lua.LValue
}

func tableToNeutral(t *lua.LTable, depth int, visiting map[*lua.LTable]struct{}) (Value, error) {
	if _, ok := visiting[t]; ok {
		return Value{}, ErrCyclic
	}
	visiting[t] = struct{}{}
	defer delete(visiting, t)

	var entries []tableEntry
	t.ForEach(func(k, val lua.LValue) {
		entries = append(entries, tableEntry{key: k, val: val})
	})

	// Determine whether this table is a dense, 1-based integer-keyed
	// array: every key is an integer key in [1, n] with n == len(entries)
	// and no duplicates.
	intKeys := make(map[int64]lua.LValue, len(entries))
	isArray := true
	for _, e := range entries {
		n, ok := e.key.(lua.LNumber)
		if !ok {
			isArray = false
			continue
		}
		f := float64(n)
		if f != math.Trunc(f) {
			isArray = false
			continue
		}
		i := int64(f)
		if i < 1 {
			isArray = false
			continue
		}
		if _, dup := intKeys[i]; dup {
			isArray = false
		}
		intKeys[i] = e.val
	}
	if isArray {
		n := int64(len(entries))
		for i := int64(1); i <= n; i++ {
			if _, ok := intKeys[i]; !ok {
				isArray = false
				break
			}
		}
	}

	if isArray {
		out := make([]Value, len(entries))
		for i := int64(1); i <= int64(len(entries)); i++ {
			nv, err := toNeutral(intKeys[i], depth+1, visiting)
			if err != nil {
				return Value{}, err
			}
			out[i-1] = nv
		}
		return Value{Kind: KindArray, Array: out}, nil
	}

	out := make(map[string]Value, len(entries))
	for _, e := range entries {
		key, err := stringifyKey(e.key)
		if err != nil {
			return Value{}, err
		}
		nv, err := toNeutral(e.val, depth+1, visiting)
		if err != nil {
			return Value{}, err
		}
		out[key] = nv
	}
	return Value{Kind: KindMap, Map: out}, nil
}

// stringifyKey canonicalizes a table key for use as a Map key: numeric
// keys become decimal strings with no leading zeros and no exponent
// notation for integral values; string keys pass through unchanged.
func stringifyKey(k lua.LValue) (string, error) {
	switch t := k.(type) {
	case lua.LString:
		return string(t), nil
	case lua.LNumber:
		f := float64(t)
		if f == math.Trunc(f) && withinInt64(f) {
			return strconv.FormatInt(int64(f), 10), nil
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: non-string, non-numeric table key %s", ErrUnsupportedKind, k.Type().String())
	}
}

// FromNeutral produces a fresh script-side value in L for v. Every call
// allocates new tables; the result shares no state with any prior
// conversion or with the value that produced v. Map keys are used
// verbatim as Lua string keys — the numeric-key stringification applied
// by ToNeutral is not reversed, so a round trip through a Map with
// numeric-looking keys yields string keys on the way back. This is
// intentional and documented: the boundary is lossy in one direction.
func FromNeutral(L *lua.LState, v Value) lua.LValue {
	switch v.Kind {
	case KindNull:
		return lua.LNil
	case KindBool:
		return lua.LBool(v.Bool)
	case KindInt:
		return lua.LNumber(v.Int)
	case KindFloat:
		return lua.LNumber(v.Float)
	case KindString:
		return lua.LString(v.Str)
	case KindBytes:
		return lua.LString(string(v.Bytes))
	case KindArray:
		tbl := L.CreateTable(len(v.Array), 0)
		for i, e := range v.Array {
			tbl.RawSetInt(i+1, FromNeutral(L, e))
		}
		return tbl
	case KindMap:
		tbl := L.CreateTable(0, len(v.Map))
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys) // deterministic field iteration for test harnesses
		for _, k := range keys {
			tbl.RawSetString(k, FromNeutral(L, v.Map[k]))
		}
		return tbl
	default:
		return lua.LNil
	}
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindInt:
		return a.Int == b.Int
	case KindFloat:
		return a.Float == b.Float
	case KindString:
		return a.Str == b.Str
	case KindBytes:
		return string(a.Bytes) == string(b.Bytes)
	case KindArray:
		if len(a.Array) != len(b.Array) {
			return false
		}
		for i := range a.Array {
			if !Equal(a.Array[i], b.Array[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(a.Map) != len(b.Map) {
			return false
		}
		for k, av := range a.Map {
			bv, ok := b.Map[k]
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// Hash returns a structural hash of v suitable for test harnesses that
// want to compare snapshots without a full Equal call, e.g. detecting
// whether a published value actually changed between two frames.
func Hash(v Value) uint64 {
	h := fnvOffset
	hashInto(&h, v)
	return h
}

const (
	fnvOffset = uint64(14695981039346656037)
	fnvPrime  = uint64(1099511628211)
)

func fnvWrite(h *uint64, b []byte) {
	for _, c := range b {
		*h ^= uint64(c)
		*h *= fnvPrime
	}
}

func hashInto(h *uint64, v Value) {
	fnvWrite(h, []byte{byte(v.Kind)})
	switch v.Kind {
	case KindBool:
		if v.Bool {
			fnvWrite(h, []byte{1})
		} else {
			fnvWrite(h, []byte{0})
		}
	case KindInt:
		fnvWrite(h, []byte(strconv.FormatInt(v.Int, 10)))
	case KindFloat:
		fnvWrite(h, []byte(strconv.FormatFloat(v.Float, 'g', -1, 64)))
	case KindString:
		fnvWrite(h, []byte(v.Str))
	case KindBytes:
		fnvWrite(h, v.Bytes)
	case KindArray:
		for _, e := range v.Array {
			hashInto(h, e)
		}
	case KindMap:
		keys := make([]string, 0, len(v.Map))
		for k := range v.Map {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fnvWrite(h, []byte(k))
			hashInto(h, v.Map[k])
		}
	}
}
