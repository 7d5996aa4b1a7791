package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUserMessageByKind(t *testing.T) {
	cause := errors.New("boom")

	cases := []struct {
		name string
		err  error
		want string
	}{
		{"library", E(KindLibrary, "render", cause), MsgLibrary},
		{"network", E(KindNetwork, "fetch", cause), MsgNetwork},
		{"font", E(KindFont, "embed", cause), MsgFont},
		{"disabled", E(KindDisabled, "issue", cause), MsgDisabled},
		{"untagged", cause, MsgRetry + "boom"},
		{"unexpected", E(KindUnexpected, "render", cause), MsgRetry + "render: boom"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, UserMessage(tc.err))
		})
	}
	assert.Empty(t, UserMessage(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("issue: %w", E(KindFont, "embed", errors.New("bad glyf")))

	assert.Equal(t, KindFont, KindOf(err))
	assert.True(t, Is(err, KindFont))
	assert.False(t, Is(err, KindLibrary))
	assert.Nil(t, E(KindFont, "embed", nil))
}
