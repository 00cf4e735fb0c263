package types

import (
	"fmt"
	"strings"
)

// StructTag is a parsed Move struct type such as 0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>.
type StructTag struct {
	Address  Address
	Module   string
	Name     string
	TypeArgs []string // normalized type tags
}

// ParseStructTag parses addr::module::Name with optional generic arguments.
func ParseStructTag(s string) (StructTag, error) {
	var tag StructTag
	s = strings.TrimSpace(s)

	base, generics := s, ""
	if i := strings.IndexByte(s, '<'); i >= 0 {
		if !strings.HasSuffix(s, ">") {
			return tag, fmt.Errorf("invalid struct tag %q: unbalanced generics", s)
		}
		base, generics = s[:i], s[i+1:len(s)-1]
	}

	parts := strings.Split(base, "::")
	if len(parts) != 3 || parts[1] == "" || parts[2] == "" {
		return tag, fmt.Errorf("invalid struct tag %q", s)
	}
	addr, err := ParseAddress(parts[0])
	if err != nil {
		return tag, fmt.Errorf("invalid struct tag %q: %w", s, err)
	}
	tag.Address = addr
	tag.Module = parts[1]
	tag.Name = parts[2]

	if generics != "" {
		args, err := SplitTypeArgs(generics)
		if err != nil {
			return tag, fmt.Errorf("invalid struct tag %q: %w", s, err)
		}
		for _, a := range args {
			tag.TypeArgs = append(tag.TypeArgs, NormalizeTypeTag(a))
		}
	}
	return tag, nil
}

// String renders the tag with long-form addresses.
func (t StructTag) String() string {
	var b strings.Builder
	b.WriteString(t.Address.String())
	b.WriteString("::")
	b.WriteString(t.Module)
	b.WriteString("::")
	b.WriteString(t.Name)
	if len(t.TypeArgs) > 0 {
		b.WriteByte('<')
		b.WriteString(strings.Join(t.TypeArgs, ", "))
		b.WriteByte('>')
	}
	return b.String()
}

// SplitTypeArgs splits a generic argument list on top-level commas.
func SplitTypeArgs(s string) ([]string, error) {
	var out []string
	depth, start := 0, 0
	for i, r := range s {
		switch r {
		case '<':
			depth++
		case '>':
			depth--
			if depth < 0 {
				return nil, fmt.Errorf("unbalanced generics in %q", s)
			}
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced generics in %q", s)
	}
	if last := strings.TrimSpace(s[start:]); last != "" {
		out = append(out, last)
	}
	return out, nil
}

// NormalizeTypeTag rewrites struct tags with long-form addresses so equal types compare equal.
// Primitive types and unparsable strings are returned trimmed.
func NormalizeTypeTag(s string) string {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, "::") {
		return s
	}
	tag, err := ParseStructTag(s)
	if err != nil {
		return s
	}
	return tag.String()
}

// SameType compares two type tags after normalization.
func SameType(a, b string) bool {
	return NormalizeTypeTag(a) == NormalizeTypeTag(b)
}

// NormalizeAssetType normalizes either a coin type tag or a fungible asset
// metadata address.
func NormalizeAssetType(s string) string {
	if strings.Contains(s, "::") {
		return NormalizeTypeTag(s)
	}
	return NormalizeAddress(s)
}
