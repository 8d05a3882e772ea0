package chatrooms

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func member(id uuid.UUID, name, role string) VisibleMember {
	return VisibleMember{UserID: id, Username: name, Role: role}
}

func TestMergeVisible_UnionWithoutDuplicates(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	c := uuid.New()

	direct := []VisibleMember{
		member(a, "alice", "OWNER"),
		member(b, "bob", "MEMBER"),
	}
	labeled := []VisibleMember{
		member(b, "bob", "MEMBER"),
		member(c, "carol", "MODERATOR"),
	}

	merged := mergeVisible(direct, labeled)
	require.Len(t, merged, 3)

	seen := make(map[uuid.UUID]int)
	for _, m := range merged {
		seen[m.UserID]++
	}
	require.Equal(t, 1, seen[a])
	require.Equal(t, 1, seen[b])
	require.Equal(t, 1, seen[c])
}

func TestMergeVisible_FirstOccurrenceWins(t *testing.T) {
	id := uuid.New()

	direct := []VisibleMember{member(id, "dana", "OWNER")}
	labeled := []VisibleMember{member(id, "dana", "MEMBER")}

	merged := mergeVisible(direct, labeled)
	require.Len(t, merged, 1)
	require.Equal(t, "OWNER", merged[0].Role)
}

func TestMergeVisible_SortedByUserID(t *testing.T) {
	var direct []VisibleMember
	for i := 0; i < 10; i++ {
		direct = append(direct, member(uuid.New(), "u", "MEMBER"))
	}

	merged := mergeVisible(direct, nil)
	for i := 1; i < len(merged); i++ {
		require.Less(t, merged[i-1].UserID.String(), merged[i].UserID.String())
	}
}

func TestMergeVisible_EmptyInputs(t *testing.T) {
	require.Empty(t, mergeVisible(nil, nil))

	id := uuid.New()
	onlyLabeled := mergeVisible(nil, []VisibleMember{member(id, "eve", "MEMBER")})
	require.Len(t, onlyLabeled, 1)
	require.Equal(t, id, onlyLabeled[0].UserID)
}

func TestMergeVisible_DuplicatesWithinOneSide(t *testing.T) {
	id := uuid.New()
	labeled := []VisibleMember{
		member(id, "frank", "MEMBER"),
		member(id, "frank", "MEMBER"),
	}

	merged := mergeVisible(nil, labeled)
	require.Len(t, merged, 1)
}
