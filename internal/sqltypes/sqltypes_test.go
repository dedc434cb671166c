package sqltypes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSONStringSliceValue(t *testing.T) {
	a := assert.New(t)

	v, err := JSONStringSlice(nil).Value()
	a.NoError(err)
	a.Equal("[]", v)

	v, err = JSONStringSlice{"rock_o", "punk_c"}.Value()
	a.NoError(err)
	a.Equal(`["rock_o","punk_c"]`, v)

	// HTML-special characters are stored literally so the quoted token can
	// be found with instr.
	v, err = JSONStringSlice{"r&b_o", "<x>_c"}.Value()
	a.NoError(err)
	a.Equal(`["r&b_o","<x>_c"]`, v)
}

func TestJSONStringSliceScan(t *testing.T) {
	a := assert.New(t)

	var s JSONStringSlice

	a.NoError(s.Scan(nil))
	a.Nil([]string(s))

	a.NoError(s.Scan([]byte(`["rock_o"]`)))
	a.Equal(JSONStringSlice{"rock_o"}, s)

	a.NoError(s.Scan(`["r&b_o","ska_c"]`))
	a.Equal(JSONStringSlice{"r&b_o", "ska_c"}, s)

	a.Error(s.Scan(42))
}
