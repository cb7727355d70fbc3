package friends

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Flags selects friend relationships. The bit layout matches the native
// client exactly and must not change.
type Flags uint16

const (
	FlagNone                 Flags = 0x00
	FlagBlocked              Flags = 0x01
	FlagFriendshipRequested  Flags = 0x02
	FlagImmediate            Flags = 0x04
	FlagClanMember           Flags = 0x08
	FlagOnGameServer         Flags = 0x10
	FlagRequestingFriendship Flags = 0x80
	FlagRequestingInfo       Flags = 0x100
	FlagAll                  Flags = 0xFFFF
)

// namedFlags lists the individual flags in bit order.
var namedFlags = []struct {
	name string
	flag Flags
}{
	{"Blocked", FlagBlocked},
	{"FriendshipRequested", FlagFriendshipRequested},
	{"Immediate", FlagImmediate},
	{"ClanMember", FlagClanMember},
	{"OnGameServer", FlagOnGameServer},
	{"RequestingFriendship", FlagRequestingFriendship},
	{"RequestingInfo", FlagRequestingInfo},
}

// FlagsFromInt converts a host bitmask to Flags. Bits beyond the native
// 16-bit width are dropped, never rejected.
func FlagsFromInt(v int32) Flags {
	return Flags(uint16(v)) & FlagAll
}

// Has reports whether every bit of o is set in f.
func (f Flags) Has(o Flags) bool {
	return f&o == o
}

// Any reports whether f and o share at least one bit.
func (f Flags) Any(o Flags) bool {
	return f&o != 0
}

// String joins the names of the set flags with "|".
// Unnamed bits are rendered as a trailing hex value.
func (f Flags) String() string {
	switch f {
	case FlagNone:
		return "None"
	case FlagAll:
		return "All"
	}

	var parts []string
	rest := f
	for _, nf := range namedFlags {
		if f.Has(nf.flag) {
			parts = append(parts, nf.name)
			rest &^= nf.flag
		}
	}

	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%X", uint16(rest)))
	}

	return strings.Join(parts, "|")
}

// FlagTable returns every exported flag name with its wire value, including
// None and All.
func FlagTable() map[string]Flags {
	table := make(map[string]Flags, len(namedFlags)+2)
	table["None"] = FlagNone
	table["All"] = FlagAll
	for _, nf := range namedFlags {
		table[nf.name] = nf.flag
	}

	return table
}

// FlagNames returns the flag table names sorted by value.
func FlagNames() []string {
	table := FlagTable()
	names := make([]string, 0, len(table))
	for name := range table {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		return table[names[i]] < table[names[j]]
	})

	return names
}

// ParseFlags reads a "|" or "," separated list of flag names (case
// insensitive) or numbers (decimal or 0x hex). Numbers are truncated like
// FlagsFromInt; unknown names are an error since they are a typo rather than
// a native bit.
func ParseFlags(s string) (Flags, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FlagNone, nil
	}

	table := FlagTable()
	var out Flags

	for _, tok := range strings.FieldsFunc(s, func(r rune) bool { return r == '|' || r == ',' }) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		if n, err := strconv.ParseInt(tok, 0, 64); err == nil {
			out |= FlagsFromInt(int32(n))
			continue
		}

		matched := false
		for name, flag := range table {
			if strings.EqualFold(name, tok) {
				out |= flag
				matched = true
				break
			}
		}

		if !matched {
			return FlagNone, fmt.Errorf("unknown friend flag %q (valid: %s)", tok, strings.Join(FlagNames(), ", "))
		}
	}

	return out, nil
}
