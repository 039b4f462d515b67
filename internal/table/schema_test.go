package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchema_Resolve(t *testing.T) {
	tbl := MustNew(
		NewText("product", []string{"tv"}, nil),
		NewText("price", []string{"ten"}, nil),
	)
	s := DefaultSchema()

	name, ok := s.Resolve(tbl, RoleProduct)
	assert.True(t, ok)
	assert.Equal(t, "product", name)

	_, ok = s.Resolve(tbl, RoleDate)
	assert.False(t, ok, "absent column")

	_, ok = Schema{}.Resolve(tbl, RoleProduct)
	assert.False(t, ok, "unbound role")

	_, ok = s.ResolveColumn(tbl, RolePrice, KindNumber)
	assert.False(t, ok, "text price is not usable as a number")
	col, ok := s.ResolveColumn(tbl, RolePrice, KindText)
	require.True(t, ok)
	assert.Equal(t, "price", col.Name)
}

func TestSchemaByName(t *testing.T) {
	tests := []struct {
		preset    string
		wantDate  string
		wantError bool
	}{
		{preset: "", wantDate: "date"},
		{preset: "english", wantDate: "date"},
		{preset: "spanish", wantDate: "fecha"},
		{preset: "klingon", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.preset, func(t *testing.T) {
			s, err := SchemaByName(tt.preset)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDate, s.Name(RoleDate))
		})
	}
}

func TestSchema_With(t *testing.T) {
	base := DefaultSchema()

	s, err := base.With(map[string]string{"date": "order_date", "customer": "client"})
	require.NoError(t, err)
	assert.Equal(t, "order_date", s.Name(RoleDate))
	assert.Equal(t, "client", s.Name(RoleCustomer))
	assert.Equal(t, "date", base.Name(RoleDate), "base is not modified")

	_, err = base.With(map[string]string{"colour": "x"})
	assert.Error(t, err)
}
