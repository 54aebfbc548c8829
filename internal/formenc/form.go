package formenc

import "strings"

type pair struct {
	key   string
	value string
}

// Form is an ordered list of key/value pairs. The zero value is empty and
// ready to use.
type Form struct {
	pairs []pair
}

// Add appends a pair, even if the key already exists.
func (f *Form) Add(key, value string) {
	f.pairs = append(f.pairs, pair{key: key, value: value})
}

// Set replaces the value of the first pair with the given key, keeping its
// position, or appends a new pair.
func (f *Form) Set(key, value string) {
	for i := range f.pairs {
		if f.pairs[i].key == key {
			f.pairs[i].value = value
			return
		}
	}
	f.Add(key, value)
}

// Keys returns the keys in insertion order.
func (f *Form) Keys() []string {
	keys := make([]string, len(f.pairs))
	for i, p := range f.pairs {
		keys[i] = p.key
	}
	return keys
}

// Encode serializes the form as key=value pairs joined by '&'. Values are
// percent-encoded; keys are written as-is.
func (f *Form) Encode() string {
	var b strings.Builder
	for i, p := range f.pairs {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(Encode(p.value))
	}
	return b.String()
}

// Bytes returns Encode as a byte slice, ready to be sent as a request body.
func (f *Form) Bytes() []byte {
	return []byte(f.Encode())
}
