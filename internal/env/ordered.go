package env

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Ordered is an insertion-ordered variable mapping with normalized keys.
// Overwriting a key keeps its original position. The zero value is ready to use.
type Ordered struct {
	keys   []string
	values map[string]string
}

// NewOrdered builds an Ordered mapping from alternating key, value pairs.
func NewOrdered(pairs ...string) *Ordered {
	o := &Ordered{}
	for i := 0; i+1 < len(pairs); i += 2 {
		o.Set(pairs[i], pairs[i+1])
	}
	return o
}

// FromVars converts unordered Vars into an Ordered mapping sorted by key.
func FromVars(v Vars) *Ordered {
	o := &Ordered{}
	o.MergeVars(v)
	return o
}

// Set stores value under the normalized key. Empty keys are ignored.
func (o *Ordered) Set(key, value string) {
	key = NormalizeKey(key)
	if key == "" {
		return
	}
	if o.values == nil {
		o.values = make(map[string]string)
	}
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

// Get returns the value stored under the normalized key.
func (o *Ordered) Get(key string) (string, bool) {
	if o == nil || o.values == nil {
		return "", false
	}
	v, ok := o.values[NormalizeKey(key)]
	return v, ok
}

// Has reports whether the normalized key is present.
func (o *Ordered) Has(key string) bool {
	_, ok := o.Get(key)
	return ok
}

// Len returns the number of entries.
func (o *Ordered) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// Keys returns a copy of the keys in insertion order.
func (o *Ordered) Keys() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.keys...)
}

// Merge copies every entry of other into o, other winning on collisions.
func (o *Ordered) Merge(other *Ordered) {
	if other == nil {
		return
	}
	for _, k := range other.keys {
		o.Set(k, other.values[k])
	}
}

// MergeVars copies v into o in sorted key order, v winning on collisions.
func (o *Ordered) MergeVars(v Vars) {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		o.Set(k, v[k])
	}
}

// UnmarshalYAML decodes a mapping of scalars in document order. A null node leaves o empty.
func (o *Ordered) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: env must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, value := n.Content[i], n.Content[i+1]
		if value.Kind != yaml.ScalarNode {
			return fmt.Errorf("line %d: env var %q must be a scalar", value.Line, key.Value)
		}
		if value.ShortTag() == "!!null" {
			o.Set(key.Value, "")
			continue
		}
		o.Set(key.Value, value.Value)
	}
	return nil
}

// Vars returns an unordered copy of the mapping.
func (o *Ordered) Vars() Vars {
	out := make(Vars, o.Len())
	if o == nil {
		return out
	}
	for _, k := range o.keys {
		out[k] = o.values[k]
	}
	return out
}

// Clone returns a deep copy.
func (o *Ordered) Clone() *Ordered {
	c := &Ordered{}
	c.Merge(o)
	return c
}

// Marshal renders the mapping as .env lines in insertion order.
func (o *Ordered) Marshal() (string, error) {
	var buf strings.Builder
	if o == nil {
		return "", nil
	}
	for _, k := range o.keys {
		line, err := marshalLine(k, o.values[k])
		if err != nil {
			return "", fmt.Errorf("marshal env var %q: %w", k, err)
		}
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return buf.String(), nil
}

// marshalLine escapes a single entry with godotenv. godotenv rewrites integer-looking
// values through strconv, so non-canonical ones ("007", "+1") are quoted as-is.
func marshalLine(key, value string) (string, error) {
	if n, err := strconv.Atoi(value); err == nil && strconv.Itoa(n) != value {
		return fmt.Sprintf("%s=%q", key, value), nil
	}
	return godotenv.Marshal(map[string]string{key: value})
}

// LoadOrderedFile reads a .env file preserving the order in which keys appear.
func LoadOrderedFile(path string) (*Ordered, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseOrdered(raw)
}

// ParseOrdered parses .env content with godotenv and restores the file order of its keys.
func ParseOrdered(raw []byte) (*Ordered, error) {
	values, err := godotenv.Unmarshal(string(raw))
	if err != nil {
		return nil, err
	}

	out := &Ordered{}
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		idx := strings.IndexAny(line, "=:")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if v, ok := values[key]; ok && !out.Has(key) {
			out.Set(key, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	// Multi-line values can hide keys from the line scan; keep them in sorted order.
	rest := make(Vars)
	for k, v := range values {
		if !out.Has(k) {
			rest[k] = v
		}
	}
	out.MergeVars(rest)
	return out, nil
}
