package lines

import (
	"errors"
	"fmt"
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("L%d", i)
	}
	return out
}

func TestMoveBefore(t *testing.T) {
	got, err := Move(numbered(5), NewRange(3, 5), 1)
	require.NoError(t, err)
	want := []string{"L0", "L3", "L4", "L1", "L2"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Move() mismatch (-want +got):\n%s", diff)
	}
}

func TestMoveAfter(t *testing.T) {
	got, err := Move(numbered(6), NewRange(1, 3), 5)
	require.NoError(t, err)
	want := []string{"L0", "L3", "L4", "L1", "L2", "L5"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Move() mismatch (-want +got):\n%s", diff)
	}

	got, err = Move(numbered(4), NewRange(0, 1), 4)
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2", "L3", "L0"}, got)

	got, err = Move(numbered(4), NewRange(2, 4), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"L2", "L3", "L0", "L1"}, got)
}

func TestMoveRejectsInconsistentDestination(t *testing.T) {
	for _, to := range []int{3, 4, 5} {
		_, err := Move(numbered(6), NewRange(3, 5), to)
		assert.ErrorIs(t, err, ErrBoundary, "to=%d", to)
	}
	_, err := Move(numbered(6), NewRange(3, 5), 9)
	assert.ErrorIs(t, err, ErrBoundary)

	_, err = Move(numbered(4), NewRange(2, 7), 0)
	assert.ErrorIs(t, err, ErrRangePartition)
}

// Every line must survive a reorder exactly once.
func TestMovePreservesLines(t *testing.T) {
	const n = 12
	src := numbered(n)
	for s := 0; s < n; s++ {
		for e := s + 1; e <= n; e++ {
			for to := 0; to <= n; to++ {
				got, err := Move(src, NewRange(s, e), to)
				if err != nil {
					require.ErrorIs(t, err, ErrBoundary)
					continue
				}
				require.Len(t, got, n)
				sorted := append([]string(nil), got...)
				sort.Strings(sorted)
				want := append([]string(nil), src...)
				sort.Strings(want)
				require.Equal(t, want, sorted, "move [%d,%d) -> %d", s, e, to)
			}
		}
	}
}

func TestReorderAppendsRemainder(t *testing.T) {
	got, err := Reorder(numbered(5), []Range{{0, 1}, {1, 3}}, []int{1, 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"L1", "L2", "L0", "L3", "L4"}, got)
}

func TestReorderRejectsBadPartitions(t *testing.T) {
	src := numbered(6)
	cases := []struct {
		name   string
		ranges []Range
		order  []int
	}{
		{"gap", []Range{{0, 2}, {3, 6}}, []int{0, 1}},
		{"overlap", []Range{{0, 3}, {2, 6}}, []int{1, 0}},
		{"inverted", []Range{{0, 2}, {4, 2}}, []int{0, 1}},
		{"past end", []Range{{0, 7}}, []int{0}},
		{"short order", []Range{{0, 2}, {2, 6}}, []int{1}},
		{"duplicate order", []Range{{0, 2}, {2, 6}}, []int{1, 1}},
		{"order out of range", []Range{{0, 2}, {2, 6}}, []int{0, 2}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Reorder(src, tc.ranges, tc.order)
			assert.Nil(t, got)
			assert.True(t, errors.Is(err, ErrRangePartition), "got %v", err)
		})
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate([]Range{{2, 4}, {0, 2}, {4, 4}}, 4))
	assert.NoError(t, Validate(nil, 0))
	err := Validate([]Range{{0, 2}}, 4)
	var pe *PartitionError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Detail, "[2,4)")

	err = Validate([]Range{{0, 3}, {1, 1}, {3, 4}}, 4)
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "range [1,1) overlaps [0,3)", pe.Detail)
}

func TestReplace(t *testing.T) {
	got, err := Replace(numbered(4), NewRange(1, 4), []string{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, []string{"L0", "x", "y"}, got)

	_, err = Replace(numbered(4), NewRange(3, 2), nil)
	assert.ErrorIs(t, err, ErrRangePartition)
}

func TestVerify(t *testing.T) {
	src := []string{"func a() {", "  body()", "}"}
	assert.NoError(t, Verify(src, NewRange(0, 3), "func a() {", "}"))
	assert.NoError(t, Verify(src, NewRange(1, 2), "body()", "  body()  "))
	assert.NoError(t, Verify(src, NewRange(0, 3), "", ""))

	err := Verify(src, NewRange(0, 2), "func a() {", "}")
	var bm *BoundaryMismatch
	require.ErrorAs(t, err, &bm)
	assert.Equal(t, 1, bm.Line)
	assert.Equal(t, "body()", bm.Actual)

	assert.ErrorIs(t, Verify(src, NewRange(1, 1), "body()", ""), ErrBoundary)
	assert.NoError(t, Verify(src, NewRange(1, 1), "", ""))
}

func TestVerifyOutOfRangeIsPartitionError(t *testing.T) {
	src := []string{"a", "b", "c"}
	for _, tt := range []struct {
		name        string
		r           Range
		first, last string
	}{
		{"past end, no expectations", NewRange(2, 9), "", ""},
		{"past end, expect first", NewRange(2, 9), "c", ""},
		{"past end, expect last", NewRange(0, 4), "", "c"},
		{"negative start", NewRange(-1, 2), "a", ""},
		{"inverted", NewRange(2, 1), "", ""},
	} {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(src, tt.r, tt.first, tt.last)
			var pe *PartitionError
			require.ErrorAs(t, err, &pe)
			assert.ErrorIs(t, err, ErrRangePartition)
		})
	}
}

func TestRange(t *testing.T) {
	r := NewRange(2, 5)
	assert.Equal(t, "[2,5)", r.String())
	assert.Equal(t, 3, r.Len())
	assert.True(t, r.Overlaps(NewRange(4, 6)))
	assert.False(t, r.Overlaps(NewRange(5, 6)))
	assert.False(t, NewRange(3, 1).IsValid())
}
