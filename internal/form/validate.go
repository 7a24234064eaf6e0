// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package form

import (
	"errors"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/olegiv/mediasite-go/internal/schema"
)

// Validation error codes double as translation keys.
const (
	CodeRequired = "validation.required"
	CodeNumber   = "validation.number"
	CodeOption   = "validation.option"
)

var (
	errRequired = validation.NewError(CodeRequired, "is required")
	errNumber   = validation.NewError(CodeNumber, "must be a number")
	errOption   = validation.NewError(CodeOption, "must be one of the listed options")
)

func numberRule(value any) error {
	s, _ := value.(string)
	if _, err := parseNumber(s); err != nil {
		return errNumber
	}
	return nil
}

func fieldRules(f schema.Field) []validation.Rule {
	var rules []validation.Rule
	if f.Required {
		rules = append(rules, validation.Required.ErrorObject(errRequired))
	}
	switch f.Kind {
	case schema.KindNumber:
		rules = append(rules, validation.By(numberRule))
	case schema.KindSelect, schema.KindStatus:
		allowed := make([]any, 0, len(f.Options))
		for _, o := range f.Options {
			allowed = append(allowed, o.Value)
		}
		rules = append(rules, validation.In(allowed...).ErrorObject(errOption))
	}
	return rules
}

// validate runs the declarative rules of every active field. Keys of the
// result are field names, or "field[i].sub" for repeater rows.
func (m *Modal) validate() validation.Errors {
	errs := validation.Errors{}
	group := m.ActiveGroup()

	for _, f := range m.schema.Fields {
		if !f.Active(group) {
			continue
		}
		switch f.Kind {
		case schema.KindImage:
			if f.Required && m.images[f.Name].Empty() {
				errs[f.Name] = errRequired
			}
		case schema.KindRepeater:
			for i, r := range m.Rows(f.Name) {
				if r.blank(f.Fields) {
					continue
				}
				for _, sub := range f.Fields {
					if sub.Kind != schema.KindNumber {
						continue
					}
					if err := validation.Validate(strings.TrimSpace(r.Values[sub.Name]), validation.By(numberRule)); err != nil {
						errs[fmt.Sprintf("%s[%d].%s", f.Name, i, sub.Name)] = err
					}
				}
			}
		default:
			if err := validation.Validate(strings.TrimSpace(m.values[f.Name]), fieldRules(f)...); err != nil {
				errs[f.Name] = err
			}
		}
	}
	return errs
}

func (m *Modal) valid() bool {
	return len(m.validate()) == 0
}

// CanSubmit reports whether the submit action is enabled.
func (m *Modal) CanSubmit() bool {
	return !m.closed && !m.submitting && m.valid()
}

// Errors returns the error codes of touched fields. Row errors are reported
// once their repeater field is touched.
func (m *Modal) Errors() map[string]string {
	out := make(map[string]string)
	for key, err := range m.validate() {
		field := key
		if i := strings.IndexByte(key, '['); i >= 0 {
			field = key[:i]
		}
		if !m.touched[field] {
			continue
		}
		out[key] = errorCode(err)
	}
	return out
}

func errorCode(err error) string {
	var verr validation.Error
	if errors.As(err, &verr) {
		return verr.Code()
	}
	return CodeRequired
}
