package sez

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSayer_Say(t *testing.T) {
	var out, errOut bytes.Buffer
	s := New(&out, &errOut)

	s.Say("(uv) ", "Downloading installer...")

	assert.Equal(t, "TENJIN SEZ: (uv) Downloading installer...\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestSayer_Warn(t *testing.T) {
	var out, errOut bytes.Buffer
	s := New(&out, &errOut)

	s.Warn("", "no bubblewrap")

	assert.Empty(t, out.String())
	assert.Equal(t, "TENJIN SEZ: no bubblewrap\n", errOut.String())
}

func TestSayer_For(t *testing.T) {
	var out bytes.Buffer
	s := New(&out, &bytes.Buffer{})

	say := s.For("(cmake) ")
	say("This will take %s...", "a minute")

	assert.Equal(t, "TENJIN SEZ: (cmake) This will take a minute...\n", out.String())
}
