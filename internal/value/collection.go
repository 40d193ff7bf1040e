package value

import "strings"

// elemEqual is element equality for membership tests. Text folds under
// CaseInsensitive and numbers of different kinds meet through CmpNumeric.
func elemEqual(a, b Value, mode CaseMode) bool {
	if mode == CaseInsensitive {
		if eq, ok := TextEq(a, b, CaseInsensitive); ok {
			return eq
		}
	}
	if Equal(a, b) {
		return true
	}
	if IsNumeric(a) && IsNumeric(b) {
		c, ok := CmpNumeric(a, b)
		return ok && c == 0
	}
	return false
}

// asList views a receiver as a list; scalars become singleton lists.
// None has no list view.
func asList(v Value) (List, bool) {
	switch x := v.(type) {
	case nil, None, Unit, Unsupported:
		return nil, false
	case List:
		return x, true
	}
	return List{v}, true
}

func listHas(l List, needle Value, mode CaseMode) bool {
	for _, e := range l {
		if elemEqual(e, needle, mode) {
			return true
		}
	}
	return false
}

// Contains reports whether recv contains needle. Text and Blob receivers match
// substrings, lists match elements and any other scalar matches itself.
func Contains(recv, needle Value, mode CaseMode) (match, ok bool) {
	switch x := recv.(type) {
	case Text:
		if _, isText := needle.(Text); isText {
			return TextContains(x, needle, mode)
		}
	case Blob:
		if y, isBlob := needle.(Blob); isBlob {
			return strings.Contains(x.b, y.b), true
		}
	}
	l, ok := asList(recv)
	if !ok {
		return false, false
	}
	return listHas(l, needle, mode), true
}

// ContainsAny reports whether recv holds at least one of needles.
// An empty needle list never matches.
func ContainsAny(recv Value, needles List, mode CaseMode) (match, ok bool) {
	l, ok := asList(recv)
	if !ok {
		return false, false
	}
	for _, n := range needles {
		if listHas(l, n, mode) {
			return true, true
		}
	}
	return false, true
}

// ContainsAll reports whether recv holds every needle.
// An empty needle list always matches. A scalar receiver can hold at most one
// distinct needle, so more than one never matches.
func ContainsAll(recv Value, needles List, mode CaseMode) (match, ok bool) {
	l, ok := asList(recv)
	if !ok {
		return false, false
	}
	if len(needles) == 0 {
		return true, true
	}
	if _, isList := recv.(List); !isList && len(needles) > 1 {
		return false, true
	}
	for _, n := range needles {
		if !listHas(l, n, mode) {
			return false, true
		}
	}
	return true, true
}

// InList reports whether v equals any element of list.
func InList(v Value, list List, mode CaseMode) (match, ok bool) {
	if v == nil {
		return false, false
	}
	return listHas(list, v, mode), true
}

// IsMap reports whether v is a List made only of two-element Lists.
func IsMap(v Value) bool {
	_, ok := mapEntries(v)
	return ok
}

func mapEntries(v Value) ([]List, bool) {
	l, ok := v.(List)
	if !ok {
		return nil, false
	}
	out := make([]List, 0, len(l))
	for _, e := range l {
		pair, ok := e.(List)
		if !ok || len(pair) != 2 {
			return nil, false
		}
		out = append(out, pair)
	}
	return out, true
}

// MapContainsKey reports whether the map-shaped recv has key.
func MapContainsKey(recv, key Value, mode CaseMode) (match, ok bool) {
	entries, ok := mapEntries(recv)
	if !ok {
		return false, false
	}
	for _, e := range entries {
		if elemEqual(e[0], key, mode) {
			return true, true
		}
	}
	return false, true
}

// MapContainsValue reports whether any entry of the map-shaped recv holds val.
func MapContainsValue(recv, val Value, mode CaseMode) (match, ok bool) {
	entries, ok := mapEntries(recv)
	if !ok {
		return false, false
	}
	for _, e := range entries {
		if elemEqual(e[1], val, mode) {
			return true, true
		}
	}
	return false, true
}

// MapContainsEntry reports whether recv has the exact key/value pair. entry
// must be a two-element List.
func MapContainsEntry(recv, entry Value, mode CaseMode) (match, ok bool) {
	pair, isList := entry.(List)
	if !isList || len(pair) != 2 {
		return false, false
	}
	entries, ok := mapEntries(recv)
	if !ok {
		return false, false
	}
	for _, e := range entries {
		if elemEqual(e[0], pair[0], mode) && elemEqual(e[1], pair[1], mode) {
			return true, true
		}
	}
	return false, true
}
