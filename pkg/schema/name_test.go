package schema_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/marketplace/pkg/schema"
)

func TestValidateName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"simple", "techstore", nil},
		{"with digits and underscore", "shop_42", nil},
		{"max length", "a" + strings.Repeat("b", 62), nil},
		{"empty", "", schema.ErrInvalidName},
		{"too long", strings.Repeat("a", 64), schema.ErrInvalidName},
		{"uppercase", "TechStore", schema.ErrInvalidName},
		{"leading digit", "1shop", schema.ErrInvalidName},
		{"hyphen", "tech-store", schema.ErrInvalidName},
		{"space", "tech store", schema.ErrInvalidName},
		{"quote", `tech"store`, schema.ErrInvalidName},
		{"public", "public", schema.ErrReservedName},
		{"information schema", "information_schema", schema.ErrReservedName},
		{"pg prefix", "pg_catalog", schema.ErrReservedName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := schema.ValidateName(tt.input)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIsPublic(t *testing.T) {
	t.Parallel()

	assert.True(t, schema.IsPublic(""))
	assert.True(t, schema.IsPublic(schema.Public))
	assert.False(t, schema.IsPublic("techstore"))
}
