package domain

import (
	"net/url"
	"strconv"
	"strings"
)

// Query holds the OData system query options of a GET.
type Query struct {
	Filter string
	Select []string
	Expand []string
	Top    int
}

// Encode renders the options in a fixed order with spaces as %20.
func (q Query) Encode() string {
	parts := make([]string, 0, 4)
	if q.Filter != "" {
		parts = append(parts, "$filter="+escape(q.Filter))
	}
	if len(q.Select) > 0 {
		parts = append(parts, "$select="+escape(strings.Join(q.Select, ",")))
	}
	if len(q.Expand) > 0 {
		parts = append(parts, "$expand="+escape(strings.Join(q.Expand, ",")))
	}
	if q.Top > 0 {
		parts = append(parts, "$top="+strconv.Itoa(q.Top))
	}
	return strings.Join(parts, "&")
}

func escape(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// Literal quotes s as an OData string literal, doubling embedded quotes.
func Literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// GUID renders an OData guid literal.
func GUID(id string) string {
	return "guid" + Literal(id)
}

// RecordPath addresses one record of resource for PUT.
func RecordPath(resource, id string) string {
	return resource + "(" + GUID(id) + ")"
}

func Eq(field, literal string) string {
	return field + " eq " + literal
}

// TrimEq matches a space-padded ERP code exactly.
func TrimEq(field, value string) string {
	return "trim(" + field + ") eq " + Literal(value)
}

// StartsWithTrim matches the start of a space-padded ERP field.
func StartsWithTrim(field, prefix string) string {
	return "startswith(trim(" + field + ")," + Literal(prefix) + ") eq true"
}

func And(clauses ...string) string {
	kept := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if strings.TrimSpace(c) != "" {
			kept = append(kept, c)
		}
	}
	return strings.Join(kept, " and ")
}

// StartsWithLower matches the start of field case-insensitively; prefix must be lower case.
func StartsWithLower(field, prefix string) string {
	return "startswith(tolower(" + field + ")," + Literal(prefix) + ") eq true"
}

// Contains tests whether field contains needle, compared with want.
func Contains(field, needle string, want bool) string {
	return "substringof(" + Literal(needle) + "," + field + ") eq " + strconv.FormatBool(want)
}

func IsNull(field string) string {
	return field + " eq null"
}

// Or joins clauses, parenthesizing each one.
func Or(clauses ...string) string {
	kept := make([]string, 0, len(clauses))
	for _, c := range clauses {
		if strings.TrimSpace(c) != "" {
			kept = append(kept, "("+c+")")
		}
	}
	return strings.Join(kept, " or ")
}
