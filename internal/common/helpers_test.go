package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPluralizeRupees(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "рупий"},
		{1, "рупия"},
		{2, "рупии"},
		{4, "рупии"},
		{5, "рупий"},
		{11, "рупий"},
		{12, "рупий"},
		{14, "рупий"},
		{21, "рупия"},
		{22, "рупии"},
		{25, "рупий"},
		{100, "рупий"},
		{101, "рупия"},
		{111, "рупий"},
		{112, "рупий"},
		{121, "рупия"},
		{-1, "рупия"},
		{-5, "рупий"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, PluralizeRupees(c.n), "n=%d", c.n)
	}
}

func TestFormatBalance(t *testing.T) {
	assert.Equal(t, "150 рупий", FormatBalance(150))
	assert.Equal(t, "1 рупия", FormatBalance(1))
	assert.Equal(t, "42 рупии", FormatBalance(42))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "+100 рупий", FormatAmount(100))
	assert.Equal(t, "-50 рупий", FormatAmount(-50))
	assert.Equal(t, "+0 рупий", FormatAmount(0))
}
