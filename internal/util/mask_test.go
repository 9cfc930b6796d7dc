package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"dev@acme.com":       "d…@a….com",
		" Ops@Mail.Acme.io ": "o…@m….acme.io",
		"a@b.co":             "a@b.co",
		"":                   "",
		"abc":                "***",
		"not-an-email":       "n…l",
	}
	for in, want := range tests {
		assert.Equal(t, want, MaskEmail(in), "input %q", in)
	}
}

func TestMaskSecret(t *testing.T) {
	assert.Equal(t, "", MaskSecret(""))
	assert.Equal(t, "***", MaskSecret("abc"))
	assert.Equal(t, "s…t", MaskSecret("s3cr3t"))
}
