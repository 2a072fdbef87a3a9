package lox_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"fareglitch/pkg/lox"
)

func TestMapUniqErr(t *testing.T) {
	errBad := errors.New("bad code")

	upper := func(s string) (string, error) {
		if len(s) != 3 {
			return "", errBad
		}

		return strings.ToUpper(s), nil
	}

	testCases := []struct {
		name    string
		in      []string
		want    []string
		wantErr error
	}{
		{name: "Empty", in: nil, want: []string{}},
		{name: "Repeats dropped", in: []string{"jfk", "LAX", "JFK", "lax", "sfo"}, want: []string{"JFK", "LAX", "SFO"}},
		{name: "First error wins", in: []string{"jfk", "toolong", "x"}, wantErr: errBad},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rq := require.New(t)

			got, err := lox.MapUniqErr(tc.in, upper)
			if tc.wantErr != nil {
				rq.ErrorIs(err, tc.wantErr)
				rq.Nil(got)

				return
			}

			rq.NoError(err)
			rq.Equal(tc.want, got)
		})
	}
}

func TestWindow(t *testing.T) {
	items := []string{"JFK", "LAX", "ORD", "SFO", "SEA"}

	testCases := []struct {
		name  string
		in    []string
		start int
		size  int
		want  []string
	}{
		{name: "Empty collection", in: nil, start: 0, size: 3, want: nil},
		{name: "Zero size", in: items, start: 0, size: 0, want: nil},
		{name: "Head", in: items, start: 0, size: 2, want: []string{"JFK", "LAX"}},
		{name: "Wraps", in: items, start: 4, size: 3, want: []string{"SEA", "JFK", "LAX"}},
		{name: "Size capped", in: items[:2], start: 1, size: 5, want: []string{"LAX", "JFK"}},
		{name: "Start beyond length", in: items, start: 7, size: 1, want: []string{"ORD"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.New(t).Equal(tc.want, lox.Window(tc.in, tc.start, tc.size))
		})
	}
}
