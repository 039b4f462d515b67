package table

import (
	"fmt"
	"sort"
)

// Role is a recognized semantic column.
type Role string

const (
	RoleDate     Role = "date"
	RoleProduct  Role = "product"
	RolePrice    Role = "price"
	RoleUnits    Role = "units"
	RoleCustomer Role = "customer"
	RoleTotal    Role = "total"
)

// Roles lists every recognized role
var Roles = []Role{RoleDate, RoleProduct, RolePrice, RoleUnits, RoleCustomer, RoleTotal}

// Schema binds roles to concrete column names. An unbound role is treated the
// same as a bound role whose column is absent.
type Schema map[Role]string

// DefaultSchema binds the English column names.
func DefaultSchema() Schema {
	return Schema{
		RoleDate:     "date",
		RoleProduct:  "product",
		RolePrice:    "price",
		RoleUnits:    "units",
		RoleCustomer: "customer_id",
		RoleTotal:    "total_amount",
	}
}

// SpanishSchema binds the column names used by ventas.csv exports.
func SpanishSchema() Schema {
	return Schema{
		RoleDate:     "fecha",
		RoleProduct:  "producto",
		RolePrice:    "precio",
		RoleUnits:    "unidades",
		RoleCustomer: "cliente_id",
		RoleTotal:    "importe_total",
	}
}

// SchemaByName returns a preset schema
func SchemaByName(name string) (Schema, error) {
	switch name {
	case "", "english":
		return DefaultSchema(), nil
	case "spanish":
		return SpanishSchema(), nil
	default:
		return nil, fmt.Errorf("unknown schema preset %q", name)
	}
}

// Name returns the column name bound to role, or "" when unbound.
func (s Schema) Name(role Role) string {
	return s[role]
}

// Resolve returns the bound column name only if t has that column.
func (s Schema) Resolve(t *Table, role Role) (string, bool) {
	name, ok := s[role]
	if !ok || name == "" || !t.Has(name) {
		return "", false
	}
	return name, true
}

// ResolveColumn is Resolve plus a kind check.
func (s Schema) ResolveColumn(t *Table, role Role, kind Kind) (*Column, bool) {
	name, ok := s.Resolve(t, role)
	if !ok {
		return nil, false
	}
	col, _ := t.Column(name)
	if col.Kind != kind {
		return nil, false
	}
	return col, true
}

// With returns a copy of s with overrides applied. Unknown role keys are rejected.
func (s Schema) With(overrides map[string]string) (Schema, error) {
	out := make(Schema, len(s))
	for k, v := range s {
		out[k] = v
	}
	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		role := Role(k)
		if !role.valid() {
			return nil, fmt.Errorf("unknown column role %q", k)
		}
		out[role] = overrides[k]
	}
	return out, nil
}

func (r Role) valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}
