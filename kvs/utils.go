package kvs

import (
	"strings"

	"github.com/frid-format/frid/frid"
)

// ============================================================
// Keys
// ============================================================

// Multi-part keys are joined with a TAB. Control characters inside a
// part are escaped with a DEL lead byte so a part containing a TAB
// cannot collide with the separator: DEL c stands for the control
// character c-0x40 (caret style), and DEL ? stands for DEL itself.

// JoinKey flattens a multi-part key into a single store key.
func JoinKey(parts ...string) string {
	escaped := make([]string, len(parts))
	for i, p := range parts {
		escaped[i] = escapeControl(p)
	}
	return strings.Join(escaped, "\t")
}

// SplitKey recovers the parts of a key built by JoinKey.
func SplitKey(key string) []string {
	raw := strings.Split(key, "\t")
	parts := make([]string, len(raw))
	for i, p := range raw {
		parts[i] = reviveControl(p)
	}
	return parts
}

func escapeControl(s string) string {
	plain := true
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] == 0x7f {
			plain = false
			break
		}
	}
	if plain {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case c < 0x20:
			sb.WriteByte(0x7f)
			sb.WriteByte(c + 0x40)
		case c == 0x7f:
			sb.WriteByte(0x7f)
			sb.WriteByte('?')
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func reviveControl(s string) string {
	if !strings.ContainsRune(s, 0x7f) {
		return s
	}
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != 0x7f || i+1 >= len(s) {
			sb.WriteByte(c)
			continue
		}
		i++
		if s[i] == '?' {
			sb.WriteByte(0x7f)
		} else {
			sb.WriteByte(s[i] - 0x40)
		}
	}
	return sb.String()
}

// ============================================================
// Selector Application
// ============================================================

// applySelector narrows val per sel. The second result is false when
// the selection lands on nothing (out-of-bounds index, absent field).
func applySelector(val *frid.FridValue, sel Selector) (*frid.FridValue, bool, error) {
	if sel == nil {
		return val, true, nil
	}
	switch s := sel.(type) {
	case Index:
		list, err := val.AsList()
		if err != nil {
			return nil, false, badSelector(sel, val.Type())
		}
		i := int(s)
		if i < 0 {
			i += len(list)
		}
		if i < 0 || i >= len(list) {
			return nil, false, nil
		}
		return list[i], true, nil
	case Range:
		list, err := val.AsList()
		if err != nil {
			return nil, false, badSelector(sel, val.Type())
		}
		start, end := fixRange(s, len(list))
		out := make([]*frid.FridValue, end-start)
		copy(out, list[start:end])
		return frid.List(out...), true, nil
	case Field:
		if val.Type() != frid.TypeDict {
			return nil, false, badSelector(sel, val.Type())
		}
		v := val.Get(string(s))
		if v == nil {
			return nil, false, nil
		}
		return v, true, nil
	case Fields:
		if val.Type() != frid.TypeDict {
			return nil, false, badSelector(sel, val.Type())
		}
		var entries []frid.MapEntry
		for _, k := range s {
			if v := val.Get(k); v != nil {
				entries = append(entries, frid.Entry(k, v))
			}
		}
		return frid.Dict(entries...), true, nil
	default:
		return nil, false, badSelector(sel, val.Type())
	}
}

// deleteSelector removes the selected part of val, returning the
// updated value and the number of elements removed. Zero removals mean
// the value is unchanged; the key itself is never deleted here, so an
// emptied container stays in the store.
func deleteSelector(val *frid.FridValue, sel Selector) (*frid.FridValue, int, error) {
	switch s := sel.(type) {
	case Index:
		list, err := val.AsList()
		if err != nil {
			return nil, 0, badSelector(sel, val.Type())
		}
		i := int(s)
		if i < 0 {
			i += len(list)
		}
		if i < 0 || i >= len(list) {
			return val, 0, nil
		}
		out := make([]*frid.FridValue, 0, len(list)-1)
		out = append(out, list[:i]...)
		out = append(out, list[i+1:]...)
		return frid.List(out...), 1, nil
	case Range:
		list, err := val.AsList()
		if err != nil {
			return nil, 0, badSelector(sel, val.Type())
		}
		start, end := fixRange(s, len(list))
		if start >= end {
			return val, 0, nil
		}
		out := make([]*frid.FridValue, 0, len(list)-(end-start))
		out = append(out, list[:start]...)
		out = append(out, list[end:]...)
		return frid.List(out...), end - start, nil
	case Field:
		return deleteFields(val, sel, []string{string(s)})
	case Fields:
		return deleteFields(val, sel, s)
	default:
		return nil, 0, badSelector(sel, val.Type())
	}
}

func deleteFields(val *frid.FridValue, sel Selector, keys []string) (*frid.FridValue, int, error) {
	entries, err := val.AsDict()
	if err != nil {
		return nil, 0, badSelector(sel, val.Type())
	}
	drop := make(map[string]bool, len(keys))
	for _, k := range keys {
		drop[k] = true
	}
	out := make([]frid.MapEntry, 0, len(entries))
	count := 0
	for _, e := range entries {
		if drop[e.Key] {
			count++
			continue
		}
		out = append(out, e)
	}
	if count == 0 {
		return val, 0, nil
	}
	return frid.Dict(out...), count, nil
}

// fixRange resolves negative bounds against length n and clamps the
// result to [0, n]. An End of zero means the end of the list.
func fixRange(r Range, n int) (int, int) {
	start, end := r.Start, r.End
	if start < 0 {
		start += n
		if start < 0 {
			start = 0
		}
	}
	if end <= 0 {
		end += n
		if end < 0 {
			end = 0
		}
	}
	if start > n {
		start = n
	}
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return start, end
}

// ============================================================
// Merging and Copying
// ============================================================

// mergeValues combines a stored value with a new one for KeepBoth
// puts. Same-type text, blob and lists concatenate, dicts update entry
// by entry, and everything else is replaced by the new value. A nil
// old value yields the new value unchanged.
func mergeValues(old, val *frid.FridValue) *frid.FridValue {
	if old == nil || old.Type() != val.Type() {
		return val
	}
	switch old.Type() {
	case frid.TypeText:
		a, _ := old.AsText()
		b, _ := val.AsText()
		return frid.Text(a + b)
	case frid.TypeBlob:
		a, _ := old.AsBlob()
		b, _ := val.AsBlob()
		out := make([]byte, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		return frid.Blob(out)
	case frid.TypeList:
		a, _ := old.AsList()
		b, _ := val.AsList()
		out := make([]*frid.FridValue, 0, len(a)+len(b))
		out = append(out, a...)
		out = append(out, b...)
		return frid.List(out...)
	case frid.TypeDict:
		a, _ := old.AsDict()
		b, _ := val.AsDict()
		out := frid.Dict(append([]frid.MapEntry(nil), a...)...)
		for _, e := range b {
			out.Set(e.Key, e.Value)
		}
		return out
	default:
		return val
	}
}

// cloneValue copies val deeply enough that no mutation through either
// handle can reach the other. Scalars are immutable through the value
// API and are shared.
func cloneValue(v *frid.FridValue) *frid.FridValue {
	if v == nil {
		return nil
	}
	switch v.Type() {
	case frid.TypeBlob:
		b, _ := v.AsBlob()
		return frid.Blob(append([]byte(nil), b...))
	case frid.TypeList:
		list, _ := v.AsList()
		out := make([]*frid.FridValue, len(list))
		for i, e := range list {
			out[i] = cloneValue(e)
		}
		return frid.List(out...)
	case frid.TypeDict:
		entries, _ := v.AsDict()
		out := make([]frid.MapEntry, len(entries))
		for i, e := range entries {
			out[i] = frid.Entry(e.Key, cloneValue(e.Value))
		}
		return frid.Dict(out...)
	default:
		return v
	}
}
