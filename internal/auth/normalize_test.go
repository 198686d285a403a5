package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	n := Normalizer{CountryCode: "972", TrunkPrefix: "0"}

	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "international with plus", in: "+972541234567", want: "972541234567"},
		{name: "international bare", in: "972541234567", want: "972541234567"},
		{name: "local with trunk zero", in: "0541234567", want: "972541234567"},
		{name: "local without trunk zero", in: "541234567", want: "972541234567"},
		{name: "country code behind trunk zero", in: "0972541234567", want: "972541234567"},
		{name: "separators dropped", in: "+972 54-123 4567", want: "972541234567"},
		{name: "parentheses dropped", in: "(054) 123-4567", want: "972541234567"},
		{name: "empty input", in: "", want: ""},
		{name: "no digits at all", in: "+-() ", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.in))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	n := Normalizer{CountryCode: "972", TrunkPrefix: "0"}

	inputs := []string{
		"+972541234567",
		"972541234567",
		"0541234567",
		"0972541234567",
		"541234567",
		"+1 202 555 0175",
		"",
	}
	for _, in := range inputs {
		once := n.Normalize(in)
		assert.Equal(t, once, n.Normalize(once), "normalize(normalize(%q))", in)
	}
}
