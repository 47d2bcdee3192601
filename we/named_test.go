package we

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type TestAction struct{}

type TestNamedAction struct{}

func (TestNamedAction) TypeName() string {
	return "test:named"
}

func resolvesExplicitName(t *testing.T) {
	assert.Equal(t, ActionType("test:named"), ActionTypeOf(TestNamedAction{}))
}

func resolvesImplicitName(t *testing.T) {
	assert.Equal(t, ActionType("we:test-action"), ActionTypeOf(TestAction{}))
}

func resolvesPointerName(t *testing.T) {
	assert.Equal(t, ActionType("we:test-action"), ActionTypeOf(&TestAction{}))
}

func resolvesRemoteName(t *testing.T) {
	remote := RemoteAction{ActionType: "we:test-action"}

	assert.Equal(t, ActionType("we:test-action"), ActionTypeOf(remote))
	assert.Equal(t, ActionType("we:test-action"), ActionTypeOf(&remote))
}

func TestActionNames(t *testing.T) {
	t.Run("resolves explicit name", resolvesExplicitName)
	t.Run("resolves implicit name", resolvesImplicitName)
	t.Run("resolves pointer name", resolvesPointerName)
	t.Run("resolves remote name", resolvesRemoteName)
}
