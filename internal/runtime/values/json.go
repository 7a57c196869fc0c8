package values

import (
	"bytes"
	"fmt"
	"strconv"
)

// MarshalJSON serializes v to its canonical JSON form. Records are
// serialized in insertion order — json.Marshal on a plain Go map
// would sort keys and silently break that guarantee, which is why
// this package ships its own encoder instead of implementing
// json.Marshaler via map[string]interface{}.
func MarshalJSON(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.Kind {
	case KNull:
		buf.WriteString("null")
	case KBool:
		if v.B {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KNumber:
		buf.WriteString(strconv.FormatFloat(v.N, 'g', -1, 64))
	case KString:
		writeJSONString(buf, v.S)
	case KList:
		buf.WriteByte('[')
		for i, e := range v.L {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KRecord:
		buf.WriteByte('{')
		first := true
		var err error
		v.R.Each(func(k string, val Value) {
			if err != nil {
				return
			}
			if !first {
				buf.WriteByte(',')
			}
			first = false
			writeJSONString(buf, k)
			buf.WriteByte(':')
			err = writeJSON(buf, val)
		})
		if err != nil {
			return err
		}
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot marshal value of unknown kind")
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '\r':
			buf.WriteString(`\r`)
		default:
			if r < 0x20 {
				buf.WriteString(fmt.Sprintf(`\u%04x`, r))
			} else {
				buf.WriteRune(r)
			}
		}
	}
	buf.WriteByte('"')
}

// FromGo converts a generic Go value (as produced by encoding/json's
// Unmarshal into interface{}, for stdlib functions like parse.json)
// into an A0 Value. Go maps become Records with keys sorted, since a
// Go map has no ordering to preserve; callers that need a genuine
// ordered decode should use a streaming json.Decoder instead.
func FromGo(v interface{}) Value {
	switch x := v.(type) {
	case nil:
		return Null
	case bool:
		return Bool(x)
	case float64:
		return Number(x)
	case string:
		return String(x)
	case []interface{}:
		out := make([]Value, len(x))
		for i, e := range x {
			out[i] = FromGo(e)
		}
		return List(out)
	case map[string]interface{}:
		rec := NewRecord()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sortStrings(keys)
		for _, k := range keys {
			rec.Set(k, FromGo(x[k]))
		}
		return RecordVal(rec)
	default:
		return Null
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
