package swap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type scriptedLookup struct {
	answers []string
	errs    []error
	calls   int
}

func (s *scriptedLookup) ReferrerFor(ctx context.Context, address string) (string, error) {
	i := s.calls
	s.calls++
	return s.answers[i], s.errs[i]
}

func TestCachedLookup_PassesThroughAndRemembers(t *testing.T) {
	upstream := &scriptedLookup{
		answers: []string{testReferrer, ""},
		errs:    []error{nil, errors.New("upstream down")},
	}
	lookup := NewCachedLookup(upstream)

	first, err := lookup.ReferrerFor(context.Background(), testAccount)
	require.NoError(t, err)
	require.Equal(t, testReferrer, first)

	// Upstream failure falls back to the cached answer.
	second, err := lookup.ReferrerFor(context.Background(), testAccount)
	require.NoError(t, err)
	require.Equal(t, testReferrer, second)
}

func TestCachedLookup_NoCacheFallsBackToUnreferred(t *testing.T) {
	upstream := &scriptedLookup{
		answers: []string{""},
		errs:    []error{errors.New("upstream down")},
	}
	lookup := NewCachedLookup(upstream)

	referrer, err := lookup.ReferrerFor(context.Background(), testAccount)
	require.NoError(t, err, "a dead referral service must not block the swap")
	require.Empty(t, referrer)
}

func TestCachedLookup_CachesEmptyAnswerToo(t *testing.T) {
	upstream := &scriptedLookup{
		answers: []string{"", ""},
		errs:    []error{nil, errors.New("upstream down")},
	}
	lookup := NewCachedLookup(upstream)

	_, err := lookup.ReferrerFor(context.Background(), testAccount)
	require.NoError(t, err)
	referrer, err := lookup.ReferrerFor(context.Background(), testAccount)
	require.NoError(t, err)
	require.Empty(t, referrer)
}
