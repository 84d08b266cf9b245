package theme

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestForeground(t *testing.T) {
	tests := []struct {
		hex  string
		want string
	}{
		{"#ffffff", "#000000"},
		{"#000000", "#ffffff"},
		{"ffffff", "#000000"},
		{"#112233", "#ffffff"},
		{"#0ea5e9", "#ffffff"},
		{"#f59e0b", "#000000"},
		{"#8c8c8c", "#000000"}, // yiq 140, right at the threshold
		{"#8b8b8b", "#ffffff"}, // yiq 139, just under
		{" #112233", "#ffffff"},
		{"#ffffff\t", "#000000"},
		{"not-a-color", "#000000"},
		{"#12345", "#000000"},
		{"", "#000000"},
	}

	for _, tt := range tests {
		t.Run(tt.hex, func(t *testing.T) {
			assert.Equal(t, tt.want, Foreground(tt.hex))
		})
	}
}

func TestDerive(t *testing.T) {
	t.Run("defaults fill empty values", func(t *testing.T) {
		vars := Derive("", "")
		assert.Equal(t, DefaultPrimary, vars.Primary)
		assert.Equal(t, DefaultAccent, vars.Accent)
		assert.Equal(t, "#ffffff", vars.PrimaryForeground)
		assert.Equal(t, "#000000", vars.AccentForeground)
	})

	t.Run("custom colors", func(t *testing.T) {
		vars := Derive("#112233", "#eeeeee")
		assert.Equal(t, "#112233", vars.Primary)
		assert.Equal(t, "#ffffff", vars.PrimaryForeground)
		assert.Equal(t, "#eeeeee", vars.Accent)
		assert.Equal(t, "#000000", vars.AccentForeground)
	})
}

func TestApplierFunc(t *testing.T) {
	var got Vars
	ApplierFunc(func(v Vars) { got = v }).Apply(Vars{Primary: "#112233"})
	assert.Equal(t, "#112233", got.Primary)

	Nop.Apply(Vars{}) // must not panic
}
