// Package stdlibdoc provides a static registry of A0 standard library
// functions, grouped for `a0 help stdlib` and `a0 help <fn>`. It is
// documentation only; the executable implementation and argument
// names live in internal/runtime/stdlib and must be kept in sync with
// this registry by hand.
package stdlibdoc

import "sort"

// FunctionDef describes one stdlib (or evaluator-resident) callable.
type FunctionDef struct {
	Name        string
	Signature   string
	Description string
}

// Registry groups every callable A0 program can reference by name,
// by the informal category it falls under in internal/runtime/stdlib's
// Default().
var Registry = map[string][]FunctionDef{
	"data": {
		{Name: "parse.json", Signature: "parse.json(text: string!) -> any!", Description: "Parses a JSON string into an A0 value"},
		{Name: "get", Signature: "get(in: any!, path: string!) -> any?", Description: "Reads a dotted path out of nested records, returning null if any segment is missing or is not a record"},
		{Name: "put", Signature: "put(in: record!, path: string!, value: any!) -> record!", Description: "Returns a copy of in with value set at the dotted path, creating intermediate records as needed"},
		{Name: "patch", Signature: "patch(in: any!, ops: list!) -> any!", Description: "Applies JSON Patch ops (add, remove, replace, test) to record fields addressed by /-separated paths"},
	},
	"predicates": {
		{Name: "eq", Signature: "eq(a: any!, b: any!) -> bool!", Description: "Deep-equality comparison, ignoring record key order"},
		{Name: "contains", Signature: "contains(in: list!|string!|record!, item: any!) -> bool!", Description: "Checks whether a list contains item, a string contains item as a substring, or a record has item as a key"},
		{Name: "not", Signature: "not(value: any!) -> bool!", Description: "Boolean negation of value's truthiness"},
		{Name: "and", Signature: "and(a: any!, b: any!) -> bool!", Description: "Truthy AND of two values"},
		{Name: "or", Signature: "or(a: any!, b: any!) -> bool!", Description: "Truthy OR of two values"},
		{Name: "coalesce", Signature: "coalesce(a: any!, b: any!) -> any!", Description: "Returns a unless it is null, else b"},
		{Name: "typeof", Signature: "typeof(value: any!) -> string!", Description: "Returns the runtime type name of value"},
	},
	"lists": {
		{Name: "len", Signature: "len(value: list!|string!|record!) -> number!", Description: "Returns the element/character/field count of value"},
		{Name: "append", Signature: "append(in: list!, item: any!) -> list!", Description: "Returns a copy of in with item appended"},
		{Name: "concat", Signature: "concat(a: list!, b: list!) -> list!", Description: "Returns the concatenation of two lists"},
		{Name: "sort", Signature: "sort(in: list!) -> list!", Description: "Returns a sorted copy of a list of comparable values"},
		{Name: "find", Signature: "find(in: list!, by: string!, value: any!) -> any?", Description: "Returns the first record whose field by is deep-equal to value, or null; non-record elements are skipped"},
		{Name: "range", Signature: "range(from: number!, to: number!) -> list!", Description: "Returns a list of integers from from up to (exclusive) to"},
		{Name: "join", Signature: "join(in: list!, sep: string!) -> string!", Description: "Joins a list of strings with a separator"},
		{Name: "unique", Signature: "unique(in: list!) -> list!", Description: "Returns in with duplicate elements removed, preserving first occurrence"},
		{Name: "pluck", Signature: "pluck(in: list!, key: string!) -> list!", Description: "Returns the value of key from each record in a list"},
		{Name: "flat", Signature: "flat(in: list!) -> list!", Description: "Flattens one level of nested lists"},
	},
	"strings": {
		{Name: "str.concat", Signature: "str.concat(parts: list!) -> string!", Description: "Concatenates a list of strings"},
		{Name: "str.split", Signature: "str.split(value: string!, sep: string!) -> list!", Description: "Splits a string on a separator"},
		{Name: "str.starts", Signature: "str.starts(value: string!, prefix: string!) -> bool!", Description: "Checks whether value starts with prefix"},
		{Name: "str.ends", Signature: "str.ends(value: string!, suffix: string!) -> bool!", Description: "Checks whether value ends with suffix"},
		{Name: "str.replace", Signature: "str.replace(value: string!, old: string!, new: string!) -> string!", Description: "Replaces all occurrences of old with new"},
		{Name: "str.template", Signature: "str.template(value: string!, with: record!) -> string!", Description: "Substitutes {name} placeholders in value from with"},
	},
	"records": {
		{Name: "keys", Signature: "keys(value: record!) -> list!", Description: "Returns a record's field names in declaration order"},
		{Name: "values", Signature: "values(value: record!) -> list!", Description: "Returns a record's field values in declaration order"},
		{Name: "merge", Signature: "merge(a: record!, b: record!) -> record!", Description: "Returns a with b's fields overlaid, b winning on key conflicts"},
		{Name: "entries", Signature: "entries(value: record!) -> list!", Description: "Returns a list of {key, value} records, one per field"},
	},
	"math": {
		{Name: "math.max", Signature: "math.max(a: number!, b: number!) -> number!", Description: "Returns the larger of two numbers"},
		{Name: "math.min", Signature: "math.min(a: number!, b: number!) -> number!", Description: "Returns the smaller of two numbers"},
	},
	"misc": {
		{Name: "uuid.v4", Signature: "uuid.v4() -> string!", Description: "Generates a new random v4 UUID"},
	},
	"evaluator": {
		{Name: "map", Signature: "map(in: list!, fn: fn!) -> list!", Description: "Calls fn with {item, index} for each element, collecting the results; fn is a user-defined function, resolved by name, not a stdlib entry"},
		{Name: "reduce", Signature: "reduce(in: list!, fn: fn!, init: any!) -> any!", Description: "Calls fn with {acc, item, index} for each element, threading the accumulator; fn is a user-defined function"},
		{Name: "filter", Signature: "filter(in: list!, fn: fn!) -> list!", Description: "Calls fn with {item, index} for each element, keeping elements for which fn returns truthy; fn is a user-defined function"},
	},
}

// GetNamespaces returns a sorted list of the registry's categories.
func GetNamespaces() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetFunctions returns the functions registered under namespace, or
// nil if it doesn't exist.
func GetFunctions(namespace string) []FunctionDef {
	return Registry[namespace]
}

// GetAllFunctions returns the whole registry.
func GetAllFunctions() map[string][]FunctionDef {
	return Registry
}

// Find looks up a single function by its full name (e.g. "str.split")
// across every category.
func Find(name string) (FunctionDef, bool) {
	for _, fns := range Registry {
		for _, fn := range fns {
			if fn.Name == name {
				return fn, true
			}
		}
	}
	return FunctionDef{}, false
}

// TotalFunctionCount returns the total number of documented callables.
func TotalFunctionCount() int {
	total := 0
	for _, fns := range Registry {
		total += len(fns)
	}
	return total
}
