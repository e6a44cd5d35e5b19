package embedurl

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanAppendsNavParam(t *testing.T) {
	got := Clean("https://app.powerbi.com/view?r=abc123")
	assert.Contains(t, got, "navContentPaneEnabled=false")
	assert.Contains(t, got, "r=abc123")
}

func TestCleanOverridesExistingNavParam(t *testing.T) {
	got := Clean("https://app.powerbi.com/view?navContentPaneEnabled=true")
	assert.Contains(t, got, "navContentPaneEnabled=false")
	assert.NotContains(t, got, "navContentPaneEnabled=true")
}

func TestCleanPassesThroughUnparseable(t *testing.T) {
	assert.Equal(t, "", Clean(""))
	assert.Equal(t, "://bad", Clean("://bad"))
}
