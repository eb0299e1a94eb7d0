package aspect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		in          string
		want        string
		expectError bool
	}{
		{name: "canonical", in: "3:4", want: "3:4"},
		{name: "inner spaces", in: "3 : 4", want: "3:4"},
		{name: "surrounding spaces", in: "  16:9  ", want: "16:9"},
		{name: "empty clears override", in: "", want: ""},
		{name: "not a ratio", in: "abc", expectError: true},
		{name: "missing height", in: "3:", expectError: true},
		{name: "zero width", in: "0:4", expectError: true},
		{name: "negative height", in: "3:-4", expectError: true},
		{name: "float parts", in: "1.5:2", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "1:1", Resolve("1:1", "3:4"))
	assert.Equal(t, "3:4", Resolve("", "3:4"))
}
