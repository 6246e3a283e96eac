// Package output provides deterministic encoding for chart responses.
//
// Identical inputs must produce byte-identical JSON so that chart snapshots
// can be cached by content and compared in tests.
//
// # JSON Encoding Rules
//
// The DeterministicEncode function produces byte-identical outputs by:
//
//  1. Stable key ordering: Object keys are sorted alphabetically
//  2. Float formatting: Rounded to max 6 decimal places, no trailing zeros
//  3. Null handling: Nil and empty fields are omitted entirely
//  4. Custom encodings: json.Marshaler and encoding.TextMarshaler values keep
//     their own representation (stems and branches encode as glyphs)
//
// # Snapshot Testing
//
// CompareSnapshots ignores time-varying fields such as createdAt and
// meta.computedAt.
//
//	json1, _ := json.Marshal(chart1)
//	json2, _ := json.Marshal(chart2)
//	equal, msg := output.CompareSnapshots(json1, json2)
package output
