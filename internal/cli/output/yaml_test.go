package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintYAML(t *testing.T) {
	data := struct {
		Component string `yaml:"component"`
		Tracked   int    `yaml:"tracked"`
	}{
		Component: "daemon",
		Tracked:   42,
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "component: daemon")
	assert.Contains(t, output, "tracked: 42")
}

func TestPrintYAMLArray(t *testing.T) {
	data := []struct {
		Component string `yaml:"component"`
	}{
		{Component: "daemon"},
		{Component: "object store"},
	}

	var buf bytes.Buffer
	err := PrintYAML(&buf, data)
	require.NoError(t, err)

	output := buf.String()
	assert.Contains(t, output, "- component: daemon")
	assert.Contains(t, output, "- component: object store")
}
