package pkg

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want Kind
	}{
		{ErrAlreadyReacted, KindConflict},
		{fmt.Errorf("react: %w", ErrSelfReaction), KindConflict},
		{ErrPostNotFound, KindNotFound},
		{ErrForbidden, KindForbidden},
		{Dependency("insert reaction", errors.New("disk full")), KindDependency},
		{errors.New("boom"), KindDependency},
	}
	for i, c := range cases {
		assert.Equal(t, c.want, KindOf(c.err), "case %d", i)
	}
}

func TestErrorIs_MatchesSentinelThroughWrapping(t *testing.T) {
	err := fmt.Errorf("outer: %w", ErrAlreadyReacted)
	assert.True(t, errors.Is(err, ErrAlreadyReacted))
	assert.False(t, errors.Is(err, ErrSelfReaction))
}

func TestMessageAndDetails(t *testing.T) {
	err := Dependency("ban update failed", errors.New("duplicate column"))
	assert.Equal(t, "ban update failed", Message(err))
	assert.Equal(t, "duplicate column", Details(err))

	assert.Equal(t, "internal server error", Message(errors.New("raw")))
	assert.Equal(t, "raw", Details(errors.New("raw")))
	assert.Equal(t, "", Details(ErrPostNotFound))
	assert.Nil(t, Dependency("noop", nil))
}
