package numbering

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNext(t *testing.T) {
	cases := []struct {
		last string
		want string
	}{
		{"", "DECL-2026-0001"},
		{"DECL-2026-0001", "DECL-2026-0002"},
		{"DECL-2026-0099", "DECL-2026-0100"},
		{"DECL-2026-9999", "DECL-2026-10000"},
		{"DECL-2026-10000", "DECL-2026-10001"},
		{"DECL-2025-0042", "DECL-2026-0001"},
	}
	for _, tc := range cases {
		got, err := Next(2026, tc.last)
		require.NoError(t, err, tc.last)
		require.Equal(t, tc.want, got, tc.last)
	}
}

func TestNextRejectsForeignFormat(t *testing.T) {
	_, err := Next(2026, "INV-2026-0001")
	require.Error(t, err)
	_, err = Next(2026, "DECL-2026-12")
	require.Error(t, err)
}

func TestParse(t *testing.T) {
	y, n, err := Parse("DECL-2031-0420")
	require.NoError(t, err)
	require.Equal(t, 2031, y)
	require.Equal(t, 420, n)
}

func TestPrefix(t *testing.T) {
	require.Equal(t, "DECL-2026-", Prefix(2026))
}
