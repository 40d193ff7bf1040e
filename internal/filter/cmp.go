package filter

import (
	"fmt"

	"github.com/roach88/kvquery/internal/value"
)

// Cmp is a clause comparator.
type Cmp uint8

const (
	CmpEq Cmp = iota
	CmpNe
	CmpLt
	CmpLte
	CmpGt
	CmpGte
	CmpEqCi
	CmpNeCi
	CmpIn
	CmpNotIn
	CmpInCi
	CmpAnyIn
	CmpAllIn
	CmpAnyInCi
	CmpAllInCi
	CmpContains
	CmpContainsCi
	CmpStartsWith
	CmpEndsWith
	CmpStartsWithCi
	CmpEndsWithCi
	CmpIsNone
	CmpIsSome
	CmpIsEmpty
	CmpIsNotEmpty
	CmpMapContainsKey
	CmpMapNotContainsKey
	CmpMapContainsValue
	CmpMapNotContainsValue
	CmpMapContainsEntry
	CmpMapNotContainsEntry
)

// Family groups comparators that share a right-hand-side contract.
type Family uint8

const (
	FamilyOrdering Family = iota
	FamilyEquality
	FamilyEqualityCi
	FamilyTextPattern
	FamilyTextPatternCi
	FamilyContainment
	FamilyMembership
	FamilyMembershipCi
	FamilyPresence
	FamilyMap
	FamilyMapEntry
)

type cmpInfo struct {
	name   string
	symbol string
	family Family
}

var cmpTable = [...]cmpInfo{
	CmpEq:                  {"eq", "=", FamilyEquality},
	CmpNe:                  {"ne", "!=", FamilyEquality},
	CmpLt:                  {"lt", "<", FamilyOrdering},
	CmpLte:                 {"lte", "<=", FamilyOrdering},
	CmpGt:                  {"gt", ">", FamilyOrdering},
	CmpGte:                 {"gte", ">=", FamilyOrdering},
	CmpEqCi:                {"eq_ci", "=~", FamilyEqualityCi},
	CmpNeCi:                {"ne_ci", "!=~", FamilyEqualityCi},
	CmpIn:                  {"in", "IN", FamilyMembership},
	CmpNotIn:               {"not_in", "NOT IN", FamilyMembership},
	CmpInCi:                {"in_ci", "IN~", FamilyMembershipCi},
	CmpAnyIn:               {"any_in", "ANY IN", FamilyMembership},
	CmpAllIn:               {"all_in", "ALL IN", FamilyMembership},
	CmpAnyInCi:             {"any_in_ci", "ANY IN~", FamilyMembershipCi},
	CmpAllInCi:             {"all_in_ci", "ALL IN~", FamilyMembershipCi},
	CmpContains:            {"contains", "CONTAINS", FamilyContainment},
	CmpContainsCi:          {"contains_ci", "CONTAINS~", FamilyTextPatternCi},
	CmpStartsWith:          {"starts_with", "STARTS WITH", FamilyTextPattern},
	CmpEndsWith:            {"ends_with", "ENDS WITH", FamilyTextPattern},
	CmpStartsWithCi:        {"starts_with_ci", "STARTS WITH~", FamilyTextPatternCi},
	CmpEndsWithCi:          {"ends_with_ci", "ENDS WITH~", FamilyTextPatternCi},
	CmpIsNone:              {"is_none", "IS NONE", FamilyPresence},
	CmpIsSome:              {"is_some", "IS SOME", FamilyPresence},
	CmpIsEmpty:             {"is_empty", "IS EMPTY", FamilyPresence},
	CmpIsNotEmpty:          {"is_not_empty", "IS NOT EMPTY", FamilyPresence},
	CmpMapContainsKey:      {"map_contains_key", "HAS KEY", FamilyMap},
	CmpMapNotContainsKey:   {"map_not_contains_key", "LACKS KEY", FamilyMap},
	CmpMapContainsValue:    {"map_contains_value", "HAS VALUE", FamilyMap},
	CmpMapNotContainsValue: {"map_not_contains_value", "LACKS VALUE", FamilyMap},
	CmpMapContainsEntry:    {"map_contains_entry", "HAS ENTRY", FamilyMapEntry},
	CmpMapNotContainsEntry: {"map_not_contains_entry", "LACKS ENTRY", FamilyMapEntry},
}

func (c Cmp) info() cmpInfo {
	if c.Valid() {
		return cmpTable[c]
	}
	return cmpInfo{name: fmt.Sprintf("cmp(%d)", uint8(c)), symbol: "?", family: FamilyEquality}
}

// String returns the document name of the comparator, such as "starts_with".
func (c Cmp) String() string { return c.info().name }

// Symbol returns the infix form used by String(Expr).
func (c Cmp) Symbol() string { return c.info().symbol }

// Family returns the comparator's right-hand-side family.
func (c Cmp) Family() Family { return c.info().family }

// Valid reports whether c is a declared comparator.
func (c Cmp) Valid() bool { return int(c) < len(cmpTable) }

// ParseCmp resolves a document comparator name.
func ParseCmp(name string) (Cmp, error) {
	for i, info := range cmpTable {
		if info.name == name {
			return Cmp(i), nil
		}
	}
	return 0, fmt.Errorf("unknown comparator %q", name)
}

// Mode is the text matching mode the comparator implies.
func (c Cmp) Mode() value.CaseMode {
	switch c {
	case CmpEqCi, CmpNeCi, CmpInCi, CmpAnyInCi, CmpAllInCi, CmpContainsCi, CmpStartsWithCi, CmpEndsWithCi:
		return value.CaseInsensitive
	}
	return value.CaseSensitive
}

// NewClause builds a clause.
func NewClause(field string, cmp Cmp, v value.Value) Clause {
	return Clause{Field: field, Cmp: cmp, Value: v}
}

// Clause constructors for query builders.

func Eq(field string, v value.Value) Clause  { return NewClause(field, CmpEq, v) }
func Ne(field string, v value.Value) Clause  { return NewClause(field, CmpNe, v) }
func Lt(field string, v value.Value) Clause  { return NewClause(field, CmpLt, v) }
func Lte(field string, v value.Value) Clause { return NewClause(field, CmpLte, v) }
func Gt(field string, v value.Value) Clause  { return NewClause(field, CmpGt, v) }
func Gte(field string, v value.Value) Clause { return NewClause(field, CmpGte, v) }

func EqCi(field, s string) Clause         { return NewClause(field, CmpEqCi, value.Text(s)) }
func NeCi(field, s string) Clause         { return NewClause(field, CmpNeCi, value.Text(s)) }
func ContainsCi(field, s string) Clause   { return NewClause(field, CmpContainsCi, value.Text(s)) }
func StartsWith(field, s string) Clause   { return NewClause(field, CmpStartsWith, value.Text(s)) }
func EndsWith(field, s string) Clause     { return NewClause(field, CmpEndsWith, value.Text(s)) }
func StartsWithCi(field, s string) Clause { return NewClause(field, CmpStartsWithCi, value.Text(s)) }
func EndsWithCi(field, s string) Clause   { return NewClause(field, CmpEndsWithCi, value.Text(s)) }

func Contains(field string, v value.Value) Clause { return NewClause(field, CmpContains, v) }

func In(field string, vs ...value.Value) Clause      { return NewClause(field, CmpIn, value.List(vs)) }
func NotIn(field string, vs ...value.Value) Clause   { return NewClause(field, CmpNotIn, value.List(vs)) }
func InCi(field string, vs ...value.Value) Clause    { return NewClause(field, CmpInCi, value.List(vs)) }
func AnyIn(field string, vs ...value.Value) Clause   { return NewClause(field, CmpAnyIn, value.List(vs)) }
func AllIn(field string, vs ...value.Value) Clause   { return NewClause(field, CmpAllIn, value.List(vs)) }
func AnyInCi(field string, vs ...value.Value) Clause { return NewClause(field, CmpAnyInCi, value.List(vs)) }
func AllInCi(field string, vs ...value.Value) Clause { return NewClause(field, CmpAllInCi, value.List(vs)) }

func IsNone(field string) Clause     { return NewClause(field, CmpIsNone, value.Unit{}) }
func IsSome(field string) Clause     { return NewClause(field, CmpIsSome, value.Unit{}) }
func IsEmpty(field string) Clause    { return NewClause(field, CmpIsEmpty, value.Unit{}) }
func IsNotEmpty(field string) Clause { return NewClause(field, CmpIsNotEmpty, value.Unit{}) }

func MapContainsKey(field string, k value.Value) Clause {
	return NewClause(field, CmpMapContainsKey, k)
}

func MapNotContainsKey(field string, k value.Value) Clause {
	return NewClause(field, CmpMapNotContainsKey, k)
}

func MapContainsValue(field string, v value.Value) Clause {
	return NewClause(field, CmpMapContainsValue, v)
}

func MapNotContainsValue(field string, v value.Value) Clause {
	return NewClause(field, CmpMapNotContainsValue, v)
}

func MapContainsEntry(field string, k, v value.Value) Clause {
	return NewClause(field, CmpMapContainsEntry, value.MapEntry(k, v))
}

func MapNotContainsEntry(field string, k, v value.Value) Clause {
	return NewClause(field, CmpMapNotContainsEntry, value.MapEntry(k, v))
}
