package filter

import (
	"errors"
	"fmt"

	"github.com/roach88/kvquery/internal/value"
)

// ValidationErrorCode categorizes filter validation failures.
type ValidationErrorCode string

const (
	// ErrCodeInvalidField indicates a clause names a field the schema does not
	// declare, or one whose kind cannot be filtered.
	ErrCodeInvalidField ValidationErrorCode = "INVALID_FILTER_FIELD"

	// ErrCodeInvalidValue indicates the comparator's family does not accept the
	// right-hand-side value.
	ErrCodeInvalidValue ValidationErrorCode = "INVALID_FILTER_VALUE"
)

// ValidationError is returned by Validate. It is always recoverable: the
// caller rejects the query.
type ValidationError struct {
	Code    ValidationErrorCode
	Field   string
	Cmp     Cmp
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (field=%s, cmp=%s)", e.Code, e.Message, e.Field, e.Cmp)
}

// IsInvalidField reports whether err is an invalid-field validation error.
// Uses errors.As to handle wrapped errors.
func IsInvalidField(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrCodeInvalidField
	}
	return false
}

// IsInvalidValue reports whether err is an invalid-value validation error.
// Uses errors.As to handle wrapped errors.
func IsInvalidValue(err error) bool {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code == ErrCodeInvalidValue
	}
	return false
}

// FieldSet is the part of a schema the validator needs.
// *schema.Schema implements it.
type FieldSet interface {
	HasField(name string) bool
	Filterable(name string) bool
}

// Validate checks e against the schema's declared fields.
//
// Every clause must name a declared, filterable field, and its comparator
// family must accept the right-hand-side kind. The walk stops at the first
// failure. Validate is pure: it never touches storage and must run before
// any plan does.
func Validate(e Expr, fields FieldSet) error {
	switch x := e.(type) {
	case nil, True, False:
		return nil
	case Clause:
		return validateClause(x, fields)
	case Not:
		return Validate(x.Inner, fields)
	case And:
		for _, c := range x.Exprs {
			if err := Validate(c, fields); err != nil {
				return err
			}
		}
		return nil
	case Or:
		for _, c := range x.Exprs {
			if err := Validate(c, fields); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("filter: unknown expression %T", e)
}

func validateClause(c Clause, fields FieldSet) error {
	if !fields.HasField(c.Field) {
		return &ValidationError{Code: ErrCodeInvalidField, Field: c.Field, Cmp: c.Cmp, Message: "unknown field"}
	}
	if !fields.Filterable(c.Field) {
		return &ValidationError{Code: ErrCodeInvalidField, Field: c.Field, Cmp: c.Cmp, Message: "field kind cannot be filtered"}
	}
	if !c.Cmp.Valid() {
		return &ValidationError{Code: ErrCodeInvalidValue, Field: c.Field, Cmp: c.Cmp, Message: "unknown comparator"}
	}
	if c.Value == nil || !Accepts(c.Cmp.Family(), c.Value) {
		kind := "nil"
		if c.Value != nil {
			kind = c.Value.Kind().String()
		}
		return &ValidationError{
			Code:    ErrCodeInvalidValue,
			Field:   c.Field,
			Cmp:     c.Cmp,
			Message: fmt.Sprintf("%s does not accept a %s value", c.Cmp, kind),
		}
	}
	return nil
}

// Accepts reports whether a comparator family accepts v as its right-hand side.
//
//	ordering          any scalar except None, Unit, Unsupported
//	equality          anything except Unit, Unsupported
//	equality ci       Text
//	text pattern (ci) Text
//	containment       any scalar except None, Unit, Unsupported
//	membership (ci)   List
//	presence          Unit
//	map               any scalar except Unit, Unsupported
//	map entry         List of exactly two elements
func Accepts(f Family, v value.Value) bool {
	k := v.Kind()
	scalar := k != value.KindList && k != value.KindUnit && k != value.KindUnsupported
	switch f {
	case FamilyOrdering, FamilyContainment:
		return scalar && k != value.KindNone
	case FamilyEquality:
		return k != value.KindUnit && k != value.KindUnsupported
	case FamilyEqualityCi, FamilyTextPattern, FamilyTextPatternCi:
		return k == value.KindText
	case FamilyMembership, FamilyMembershipCi:
		return k == value.KindList
	case FamilyPresence:
		return k == value.KindUnit
	case FamilyMap:
		return scalar
	case FamilyMapEntry:
		l, ok := v.(value.List)
		return ok && len(l) == 2
	}
	return false
}
