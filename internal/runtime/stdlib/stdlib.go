// Package stdlib implements A0's pure standard library: deterministic
// functions that take a record of arguments and return a value or a
// typed error, with no I/O. The evaluator maps a failure here to
// E_FN. Functions that must resolve a user-defined function by name
// (map, reduce, predicate-form filter) are deliberately NOT here —
// per the contract in SPEC_FULL.md §4.6 they live inside the
// evaluator, which is the only component with access to the
// program's function table.
package stdlib

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/a0-lang/a0/internal/runtime/values"
)

// Func is a single stdlib function: args in, value or error out.
type Func func(args *values.Record) (values.Value, error)

// Registry is the name -> implementation table injected into the
// evaluator.
type Registry map[string]Func

// FnError is the typed error stdlib functions raise on failure; the
// evaluator wraps it as E_FN.
type FnError struct {
	Name    string
	Message string
}

func (e *FnError) Error() string { return fmt.Sprintf("%s: %s", e.Name, e.Message) }

func errf(name, format string, args ...interface{}) error {
	return &FnError{Name: name, Message: fmt.Sprintf(format, args...)}
}

// Default returns the canonical stdlib registry.
func Default() Registry {
	r := Registry{}

	// --- data ---
	r["parse.json"] = fnParseJSON
	r["get"] = fnGet
	r["put"] = fnPut
	r["patch"] = fnPatch

	// --- predicates ---
	r["eq"] = fnEq
	r["contains"] = fnContains
	r["not"] = fnNot
	r["and"] = fnAnd
	r["or"] = fnOr
	r["coalesce"] = fnCoalesce
	r["typeof"] = fnTypeof

	// --- lists ---
	r["len"] = fnLen
	r["append"] = fnAppend
	r["concat"] = fnConcat
	r["sort"] = fnSort
	r["find"] = fnFind
	r["range"] = fnRange
	r["join"] = fnJoin
	r["unique"] = fnUnique
	r["pluck"] = fnPluck
	r["flat"] = fnFlat

	// --- strings ---
	r["str.concat"] = fnStrConcat
	r["str.split"] = fnStrSplit
	r["str.starts"] = fnStrStarts
	r["str.ends"] = fnStrEnds
	r["str.replace"] = fnStrReplace
	r["str.template"] = fnStrTemplate

	// --- records ---
	r["keys"] = fnKeys
	r["values"] = fnValues
	r["merge"] = fnMerge
	r["entries"] = fnEntries

	// --- math ---
	r["math.max"] = fnMathMax
	r["math.min"] = fnMathMin

	// --- misc ---
	r["uuid.v4"] = fnUUIDv4

	return r
}

// Names returns every stdlib function name, including the
// evaluator-resolved ones (map, reduce) that are reserved even though
// they are not registered here — a user-defined fn with one of these
// names is a validation error (E_FN_DUP).
func Names() []string {
	names := []string{"map", "reduce"}
	for n := range Default() {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func arg(args *values.Record, name string) (values.Value, bool) {
	if args == nil {
		return values.Null, false
	}
	return args.Get(name)
}

func requireString(args *values.Record, fn, name string) (string, error) {
	v, ok := arg(args, name)
	if !ok || v.Kind != values.KString {
		return "", errf(fn, "expected string argument %q", name)
	}
	return v.S, nil
}

func requireList(args *values.Record, fn, name string) ([]values.Value, error) {
	v, ok := arg(args, name)
	if !ok || v.Kind != values.KList {
		return nil, errf(fn, "expected list argument %q", name)
	}
	return v.L, nil
}

func requireNumber(args *values.Record, fn, name string) (float64, error) {
	v, ok := arg(args, name)
	if !ok || v.Kind != values.KNumber {
		return 0, errf(fn, "expected number argument %q", name)
	}
	return v.N, nil
}

func fnParseJSON(args *values.Record) (values.Value, error) {
	s, err := requireString(args, "parse.json", "text")
	if err != nil {
		return values.Null, err
	}
	var decoded interface{}
	if err := json.Unmarshal([]byte(s), &decoded); err != nil {
		return values.Null, errf("parse.json", "invalid JSON: %v", err)
	}
	return values.FromGo(decoded), nil
}

func fnGet(args *values.Record) (values.Value, error) {
	in, ok := arg(args, "in")
	if !ok {
		return values.Null, errf("get", "missing argument 'in'")
	}
	path, err := requireString(args, "get", "path")
	if err != nil {
		return values.Null, err
	}
	cur := in
	for _, seg := range strings.Split(path, ".") {
		if cur.Kind != values.KRecord {
			return values.Null, nil
		}
		v, ok := cur.R.Get(seg)
		if !ok {
			return values.Null, nil
		}
		cur = v
	}
	return cur, nil
}

func fnPut(args *values.Record) (values.Value, error) {
	in, ok := arg(args, "in")
	if !ok || in.Kind != values.KRecord {
		return values.Null, errf("put", "expected record argument 'in'")
	}
	path, err := requireString(args, "put", "path")
	if err != nil {
		return values.Null, err
	}
	val, ok := arg(args, "value")
	if !ok {
		return values.Null, errf("put", "missing argument 'value'")
	}
	return putPath(in, strings.Split(path, "."), val)
}

func putPath(rec values.Value, path []string, val values.Value) (values.Value, error) {
	if rec.Kind != values.KRecord {
		return values.Null, errf("put", "path segment does not address a record")
	}
	clone := rec.R.Clone()
	if len(path) == 1 {
		clone.Set(path[0], val)
		return values.RecordVal(clone), nil
	}
	child, ok := clone.Get(path[0])
	if !ok {
		child = values.RecordVal(values.NewRecord())
	}
	updated, err := putPath(child, path[1:], val)
	if err != nil {
		return values.Null, err
	}
	clone.Set(path[0], updated)
	return values.RecordVal(clone), nil
}

// fnPatch applies a minimal RFC-6902 JSON Patch: add, remove, replace,
// and test operations against path-addressed record fields.
func fnPatch(args *values.Record) (values.Value, error) {
	in, ok := arg(args, "in")
	if !ok {
		return values.Null, errf("patch", "missing argument 'in'")
	}
	ops, err := requireList(args, "patch", "ops")
	if err != nil {
		return values.Null, err
	}
	cur := in
	for _, opV := range ops {
		if opV.Kind != values.KRecord {
			return values.Null, errf("patch", "each op must be a record")
		}
		opName, err := requireString(opV.R, "patch", "op")
		if err != nil {
			return values.Null, err
		}
		path, err := requireString(opV.R, "patch", "path")
		if err != nil {
			return values.Null, err
		}
		segs := strings.Split(strings.TrimPrefix(path, "/"), "/")
		switch opName {
		case "add", "replace":
			val, _ := arg(opV.R, "value")
			cur, err = putPath(cur, segs, val)
			if err != nil {
				return values.Null, err
			}
		case "remove":
			cur, err = removePath(cur, segs)
			if err != nil {
				return values.Null, err
			}
		case "test":
			val, _ := arg(opV.R, "value")
			existing, err := fnGet(recordOf("in", cur, "path", values.String(strings.Join(segs, "."))))
			if err != nil {
				return values.Null, err
			}
			if !values.Equal(existing, val) {
				return values.Null, errf("patch", "test failed at %s", path)
			}
		default:
			return values.Null, errf("patch", "unknown op %q", opName)
		}
	}
	return cur, nil
}

func removePath(rec values.Value, path []string) (values.Value, error) {
	if rec.Kind != values.KRecord {
		return values.Null, errf("patch", "path segment does not address a record")
	}
	clone := rec.R.Clone()
	if len(path) == 1 {
		keys := clone.Keys()
		newRec := values.NewRecord()
		for _, k := range keys {
			if k == path[0] {
				continue
			}
			v, _ := clone.Get(k)
			newRec.Set(k, v)
		}
		return values.RecordVal(newRec), nil
	}
	child, ok := clone.Get(path[0])
	if !ok {
		return rec, nil
	}
	updated, err := removePath(child, path[1:])
	if err != nil {
		return values.Null, err
	}
	clone.Set(path[0], updated)
	return values.RecordVal(clone), nil
}

func recordOf(pairs ...interface{}) *values.Record {
	r := values.NewRecord()
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i].(string), pairs[i+1].(values.Value))
	}
	return r
}

func fnEq(args *values.Record) (values.Value, error) {
	a, _ := arg(args, "a")
	b, _ := arg(args, "b")
	return values.Bool(values.Equal(a, b)), nil
}

func fnContains(args *values.Record) (values.Value, error) {
	in, ok := arg(args, "in")
	if !ok {
		return values.Null, errf("contains", "missing argument 'in'")
	}
	item, _ := arg(args, "item")
	switch in.Kind {
	case values.KList:
		for _, e := range in.L {
			if values.Equal(e, item) {
				return values.Bool(true), nil
			}
		}
		return values.Bool(false), nil
	case values.KString:
		if item.Kind != values.KString {
			return values.Null, errf("contains", "item must be a string when 'in' is a string")
		}
		return values.Bool(strings.Contains(in.S, item.S)), nil
	case values.KRecord:
		if item.Kind != values.KString {
			return values.Null, errf("contains", "item must be a string key when 'in' is a record")
		}
		return values.Bool(in.R.Has(item.S)), nil
	default:
		return values.Null, errf("contains", "'in' must be a list, string, or record")
	}
}

func fnNot(args *values.Record) (values.Value, error) {
	v, _ := arg(args, "value")
	return values.Bool(!v.Truthy()), nil
}

func fnAnd(args *values.Record) (values.Value, error) {
	a, _ := arg(args, "a")
	b, _ := arg(args, "b")
	return values.Bool(a.Truthy() && b.Truthy()), nil
}

func fnOr(args *values.Record) (values.Value, error) {
	a, _ := arg(args, "a")
	b, _ := arg(args, "b")
	return values.Bool(a.Truthy() || b.Truthy()), nil
}

func fnCoalesce(args *values.Record) (values.Value, error) {
	a, _ := arg(args, "a")
	if a.Kind != values.KNull {
		return a, nil
	}
	b, _ := arg(args, "b")
	return b, nil
}

func fnTypeof(args *values.Record) (values.Value, error) {
	v, _ := arg(args, "value")
	return values.String(v.TypeName()), nil
}

func fnLen(args *values.Record) (values.Value, error) {
	v, ok := arg(args, "value")
	if !ok {
		return values.Null, errf("len", "missing argument 'value'")
	}
	switch v.Kind {
	case values.KList:
		return values.Number(float64(len(v.L))), nil
	case values.KString:
		return values.Number(float64(len([]rune(v.S)))), nil
	case values.KRecord:
		return values.Number(float64(v.R.Len())), nil
	default:
		return values.Null, errf("len", "'value' must be a list, string, or record")
	}
}

func fnAppend(args *values.Record) (values.Value, error) {
	list, err := requireList(args, "append", "in")
	if err != nil {
		return values.Null, err
	}
	item, _ := arg(args, "item")
	out := make([]values.Value, len(list)+1)
	copy(out, list)
	out[len(list)] = item
	return values.List(out), nil
}

func fnConcat(args *values.Record) (values.Value, error) {
	a, err := requireList(args, "concat", "a")
	if err != nil {
		return values.Null, err
	}
	b, err := requireList(args, "concat", "b")
	if err != nil {
		return values.Null, err
	}
	out := make([]values.Value, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	return values.List(out), nil
}

func fnSort(args *values.Record) (values.Value, error) {
	list, err := requireList(args, "sort", "in")
	if err != nil {
		return values.Null, err
	}
	out := make([]values.Value, len(list))
	copy(out, list)

	var keys []string
	if byVal, ok := arg(args, "by"); ok {
		switch byVal.Kind {
		case values.KString:
			keys = []string{byVal.S}
		case values.KList:
			for _, k := range byVal.L {
				keys = append(keys, k.S)
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lessByKeys(out[i], out[j], keys)
	})
	return values.List(out), nil
}

func lessByKeys(a, b values.Value, keys []string) bool {
	if len(keys) == 0 {
		return lessValue(a, b)
	}
	for _, k := range keys {
		av, _ := a.R.Get(k)
		bv, _ := b.R.Get(k)
		if values.Equal(av, bv) {
			continue
		}
		return lessValue(av, bv)
	}
	return false
}

func lessValue(a, b values.Value) bool {
	if a.Kind == values.KNumber && b.Kind == values.KNumber {
		return a.N < b.N
	}
	return a.String() < b.String()
}

func fnFind(args *values.Record) (values.Value, error) {
	list, err := requireList(args, "find", "in")
	if err != nil {
		return values.Null, err
	}
	key, hasKey := arg(args, "by")
	val, _ := arg(args, "value")
	for _, e := range list {
		if hasKey && e.Kind == values.KRecord {
			ev, ok := e.R.Get(key.S)
			if ok && values.Equal(ev, val) {
				return e, nil
			}
		}
	}
	return values.Null, nil
}

func fnRange(args *values.Record) (values.Value, error) {
	from, err := requireNumber(args, "range", "from")
	if err != nil {
		return values.Null, err
	}
	to, err := requireNumber(args, "range", "to")
	if err != nil {
		return values.Null, err
	}
	var out []values.Value
	for i := from; i < to; i++ {
		out = append(out, values.Number(i))
	}
	return values.List(out), nil
}

func fnJoin(args *values.Record) (values.Value, error) {
	list, err := requireList(args, "join", "in")
	if err != nil {
		return values.Null, err
	}
	sep, err := requireString(args, "join", "sep")
	if err != nil {
		return values.Null, err
	}
	parts := make([]string, len(list))
	for i, e := range list {
		if e.Kind != values.KString {
			return values.Null, errf("join", "all elements must be strings")
		}
		parts[i] = e.S
	}
	return values.String(strings.Join(parts, sep)), nil
}

func fnUnique(args *values.Record) (values.Value, error) {
	list, err := requireList(args, "unique", "in")
	if err != nil {
		return values.Null, err
	}
	var out []values.Value
	for _, e := range list {
		dup := false
		for _, seen := range out {
			if values.Equal(seen, e) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	return values.List(out), nil
}

func fnPluck(args *values.Record) (values.Value, error) {
	list, err := requireList(args, "pluck", "in")
	if err != nil {
		return values.Null, err
	}
	key, err := requireString(args, "pluck", "key")
	if err != nil {
		return values.Null, err
	}
	out := make([]values.Value, len(list))
	for i, e := range list {
		if e.Kind != values.KRecord {
			out[i] = values.Null
			continue
		}
		v, _ := e.R.Get(key)
		out[i] = v
	}
	return values.List(out), nil
}

func fnFlat(args *values.Record) (values.Value, error) {
	list, err := requireList(args, "flat", "in")
	if err != nil {
		return values.Null, err
	}
	var out []values.Value
	for _, e := range list {
		if e.Kind == values.KList {
			out = append(out, e.L...)
		} else {
			out = append(out, e)
		}
	}
	return values.List(out), nil
}

func fnStrConcat(args *values.Record) (values.Value, error) {
	parts, err := requireList(args, "str.concat", "parts")
	if err != nil {
		return values.Null, err
	}
	var sb strings.Builder
	for _, p := range parts {
		if p.Kind != values.KString {
			return values.Null, errf("str.concat", "all parts must be strings")
		}
		sb.WriteString(p.S)
	}
	return values.String(sb.String()), nil
}

func fnStrSplit(args *values.Record) (values.Value, error) {
	s, err := requireString(args, "str.split", "value")
	if err != nil {
		return values.Null, err
	}
	sep, err := requireString(args, "str.split", "sep")
	if err != nil {
		return values.Null, err
	}
	parts := strings.Split(s, sep)
	out := make([]values.Value, len(parts))
	for i, p := range parts {
		out[i] = values.String(p)
	}
	return values.List(out), nil
}

func fnStrStarts(args *values.Record) (values.Value, error) {
	s, err := requireString(args, "str.starts", "value")
	if err != nil {
		return values.Null, err
	}
	prefix, err := requireString(args, "str.starts", "prefix")
	if err != nil {
		return values.Null, err
	}
	return values.Bool(strings.HasPrefix(s, prefix)), nil
}

func fnStrEnds(args *values.Record) (values.Value, error) {
	s, err := requireString(args, "str.ends", "value")
	if err != nil {
		return values.Null, err
	}
	suffix, err := requireString(args, "str.ends", "suffix")
	if err != nil {
		return values.Null, err
	}
	return values.Bool(strings.HasSuffix(s, suffix)), nil
}

func fnStrReplace(args *values.Record) (values.Value, error) {
	s, err := requireString(args, "str.replace", "value")
	if err != nil {
		return values.Null, err
	}
	old, err := requireString(args, "str.replace", "old")
	if err != nil {
		return values.Null, err
	}
	replacement, err := requireString(args, "str.replace", "new")
	if err != nil {
		return values.Null, err
	}
	return values.String(strings.ReplaceAll(s, old, replacement)), nil
}

func fnStrTemplate(args *values.Record) (values.Value, error) {
	tmpl, err := requireString(args, "str.template", "value")
	if err != nil {
		return values.Null, err
	}
	with, ok := arg(args, "with")
	if !ok || with.Kind != values.KRecord {
		return values.Null, errf("str.template", "expected record argument 'with'")
	}
	var sb strings.Builder
	i := 0
	for i < len(tmpl) {
		if tmpl[i] == '{' {
			end := strings.IndexByte(tmpl[i:], '}')
			if end == -1 {
				return values.Null, errf("str.template", "unterminated placeholder")
			}
			name := tmpl[i+1 : i+end]
			v, ok := with.R.Get(name)
			if !ok {
				return values.Null, errf("str.template", "missing placeholder %q", name)
			}
			sb.WriteString(v.String())
			i += end + 1
			continue
		}
		sb.WriteByte(tmpl[i])
		i++
	}
	return values.String(sb.String()), nil
}

func fnKeys(args *values.Record) (values.Value, error) {
	v, ok := arg(args, "value")
	if !ok || v.Kind != values.KRecord {
		return values.Null, errf("keys", "expected record argument 'value'")
	}
	ks := v.R.Keys()
	out := make([]values.Value, len(ks))
	for i, k := range ks {
		out[i] = values.String(k)
	}
	return values.List(out), nil
}

func fnValues(args *values.Record) (values.Value, error) {
	v, ok := arg(args, "value")
	if !ok || v.Kind != values.KRecord {
		return values.Null, errf("values", "expected record argument 'value'")
	}
	var out []values.Value
	v.R.Each(func(_ string, val values.Value) { out = append(out, val) })
	return values.List(out), nil
}

func fnMerge(args *values.Record) (values.Value, error) {
	a, ok := arg(args, "a")
	if !ok || a.Kind != values.KRecord {
		return values.Null, errf("merge", "expected record argument 'a'")
	}
	b, ok := arg(args, "b")
	if !ok || b.Kind != values.KRecord {
		return values.Null, errf("merge", "expected record argument 'b'")
	}
	out := a.R.Clone()
	b.R.Each(func(k string, v values.Value) { out.Set(k, v) })
	return values.RecordVal(out), nil
}

func fnEntries(args *values.Record) (values.Value, error) {
	v, ok := arg(args, "value")
	if !ok || v.Kind != values.KRecord {
		return values.Null, errf("entries", "expected record argument 'value'")
	}
	var out []values.Value
	v.R.Each(func(k string, val values.Value) {
		e := values.NewRecord()
		e.Set("key", values.String(k))
		e.Set("value", val)
		out = append(out, values.RecordVal(e))
	})
	return values.List(out), nil
}

func fnMathMax(args *values.Record) (values.Value, error) {
	a, err := requireNumber(args, "math.max", "a")
	if err != nil {
		return values.Null, err
	}
	b, err := requireNumber(args, "math.max", "b")
	if err != nil {
		return values.Null, err
	}
	if a > b {
		return values.Number(a), nil
	}
	return values.Number(b), nil
}

func fnMathMin(args *values.Record) (values.Value, error) {
	a, err := requireNumber(args, "math.min", "a")
	if err != nil {
		return values.Null, err
	}
	b, err := requireNumber(args, "math.min", "b")
	if err != nil {
		return values.Null, err
	}
	if a < b {
		return values.Number(a), nil
	}
	return values.Number(b), nil
}

func fnUUIDv4(args *values.Record) (values.Value, error) {
	return values.String(uuid.NewString()), nil
}
