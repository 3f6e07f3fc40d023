package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Scope restricts where an assignment applies, e.g. {"department": "Computer Science"}.
// An empty scope means the assignment applies everywhere.
type Scope map[string]string

// Value implements driver.Valuer, storing the scope as a JSON object.
func (s Scope) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}

	b, err := json.Marshal(map[string]string(s))
	if err != nil {
		return nil, err
	}

	return string(b), nil
}

// Scan implements sql.Scanner.
func (s *Scope) Scan(value any) error {
	var raw []byte

	switch v := value.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scope: unsupported type %T", value)
	}

	if len(raw) == 0 {
		*s = nil
		return nil
	}

	m := map[string]string{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return err
	}

	*s = m

	return nil
}

// IsEmpty reports whether the scope carries no attributes.
func (s Scope) IsEmpty() bool {
	return len(s) == 0
}

// Matches reports whether an assignment scoped by s may act in the context scope ctx.
// Every attribute of s must be present in ctx with exactly the same value.
// An unscoped assignment matches every context.
func (s Scope) Matches(ctx Scope) bool {
	for k, v := range s {
		if cv, ok := ctx[k]; !ok || cv != v {
			return false
		}
	}

	return true
}

// Equal reports whether both scopes carry the same attributes.
func (s Scope) Equal(other Scope) bool {
	if len(s) != len(other) {
		return false
	}

	return s.Matches(other)
}

// String renders the scope as sorted key=value pairs.
func (s Scope) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+s[k])
	}

	return strings.Join(parts, ",")
}

// ParseScope parses "key=value,key=value" into a Scope.
func ParseScope(in string) (Scope, error) {
	in = strings.TrimSpace(in)
	if in == "" {
		return nil, nil
	}

	s := Scope{}

	for _, part := range strings.Split(in, ",") {
		k, v, ok := strings.Cut(part, "=")
		k, v = strings.TrimSpace(k), strings.TrimSpace(v)

		if !ok || k == "" || v == "" {
			return nil, fmt.Errorf("scope: malformed attribute %q", part)
		}

		s[k] = v
	}

	return s, nil
}
