package output

import (
	"bytes"
	"encoding"
	"encoding/json"
	"reflect"
	"strings"
)

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

// DeterministicEncode produces byte-identical JSON output
// - Stable key ordering (sorted alphabetically)
// - Float formatting: max 6 decimal places, no trailing zeros
// - Null/empty fields omitted entirely
// - Types with their own MarshalJSON or MarshalText keep that encoding
func DeterministicEncode(v interface{}) ([]byte, error) {
	normalized, err := normalizeValue(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(normalized); err != nil {
		return nil, err
	}

	// Remove the trailing newline added by Encode
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// DeterministicEncodeIndented produces indented byte-identical JSON output
func DeterministicEncodeIndented(v interface{}, indent string) ([]byte, error) {
	normalized, err := normalizeValue(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", indent)
	if err := encoder.Encode(normalized); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte{'\n'}), nil
}

// Normalize converts v into plain maps, slices and scalars with the same
// rules DeterministicEncode applies. YAML and table renderers use it so that
// every output format shows the same field names.
func Normalize(v interface{}) (interface{}, error) {
	return normalizeValue(v)
}

// normalizeValue recursively normalizes a value for deterministic encoding
func normalizeValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}

	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr && val.IsNil() {
		return nil, nil
	}

	if val.Type().Implements(jsonMarshalerType) {
		return normalizeMarshaled(v.(json.Marshaler))
	}
	if val.Type().Implements(textMarshalerType) {
		text, err := v.(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return nil, err
		}
		return string(text), nil
	}

	// Dereference pointers
	for val.Kind() == reflect.Ptr {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
	}

	switch val.Kind() {
	case reflect.Map:
		return normalizeMap(val)
	case reflect.Slice, reflect.Array:
		return normalizeSlice(val)
	case reflect.Struct:
		return normalizeStruct(val)
	case reflect.Float32, reflect.Float64:
		return RoundFloat(val.Float()), nil
	case reflect.Interface:
		if val.IsNil() {
			return nil, nil
		}
		return normalizeValue(val.Interface())
	default:
		return val.Interface(), nil
	}
}

// normalizeMarshaled round-trips a json.Marshaler through a generic value so
// its object keys are sorted like everything else.
func normalizeMarshaled(m json.Marshaler) (interface{}, error) {
	raw, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic interface{}
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return normalizeValue(generic)
}

// normalizeMap converts a map to an ordered map for deterministic JSON output
func normalizeMap(val reflect.Value) (interface{}, error) {
	if val.IsNil() {
		return nil, nil
	}

	result := make(map[string]interface{})
	iter := val.MapRange()
	for iter.Next() {
		key, err := mapKey(iter.Key())
		if err != nil {
			return nil, err
		}
		value, err := normalizeValue(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		if value != nil {
			result[key] = value
		}
	}

	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

func mapKey(k reflect.Value) (string, error) {
	if k.Type().Implements(textMarshalerType) {
		text, err := k.Interface().(encoding.TextMarshaler).MarshalText()
		return string(text), err
	}
	if k.Kind() == reflect.String {
		return k.String(), nil
	}
	b, err := json.Marshal(k.Interface())
	return strings.Trim(string(b), `"`), err
}

// normalizeSlice normalizes a slice or array
func normalizeSlice(val reflect.Value) (interface{}, error) {
	if val.Kind() == reflect.Slice && val.IsNil() {
		return nil, nil
	}

	length := val.Len()
	if length == 0 {
		return nil, nil
	}

	result := make([]interface{}, length)
	for i := 0; i < length; i++ {
		item, err := normalizeValue(val.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		result[i] = item
	}
	return result, nil
}

// normalizeStruct converts a struct to a map for deterministic JSON output
func normalizeStruct(val reflect.Value) (interface{}, error) {
	result := make(map[string]interface{})
	var promoted []map[string]interface{}
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		tagName, omitEmpty := parseJSONTag(jsonTag)
		if tagName == "" {
			tagName = field.Name
		}

		normalized, err := normalizeValue(val.Field(i).Interface())
		if err != nil {
			return nil, err
		}

		// Untagged embedded structs are flattened like encoding/json does.
		if field.Anonymous && jsonTag == "" {
			if m, ok := normalized.(map[string]interface{}); ok {
				promoted = append(promoted, m)
				continue
			}
		}

		if omitEmpty && isZeroValue(normalized) {
			continue
		}
		if normalized != nil {
			result[tagName] = normalized
		}
	}

	// Outer fields win over promoted ones.
	for _, m := range promoted {
		for k, v := range m {
			if _, taken := result[k]; !taken {
				result[k] = v
			}
		}
	}

	if len(result) == 0 {
		return nil, nil
	}
	return result, nil
}

// parseJSONTag parses a JSON struct tag
func parseJSONTag(tag string) (name string, omitEmpty bool) {
	if tag == "" {
		return "", false
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return parts[0], omitEmpty
}

// isZeroValue checks if a normalized value is zero/empty
func isZeroValue(v interface{}) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case json.Number:
		return val == "0"
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.String:
		return rv.IsZero()
	}
	return false
}
