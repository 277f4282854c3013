package tree

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-engine-go/internal/domain"
)

var base = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func parent(id domain.CommentID) *domain.CommentID { return &id }

func pic(s string) *string { return &s }

func customerComment(id domain.CommentID, review domain.ReviewID, votes int64, minute int) CommentRow {
	return CommentRow{
		ID:              id,
		Review:          review,
		ReviewAuthor:    100,
		Author:          domain.UserID(200 + id),
		Username:        "commenter",
		Role:            domain.RoleCustomer,
		CustomerPicture: pic("/c.png"),
		Content:         "text",
		CreatedAt:       base.Add(time.Duration(minute) * time.Minute),
		UpdatedAt:       base.Add(time.Duration(minute) * time.Minute),
		VoteSum:         votes,
	}
}

func ids(trees []CommentTree) []domain.CommentID {
	out := make([]domain.CommentID, len(trees))
	for i, c := range trees {
		out[i] = c.ID
	}
	return out
}

func TestCommentOrdering(t *testing.T) {
	rows := []CommentRow{
		customerComment(1, 1, 3, 2),
		customerComment(2, 1, 3, 1),
		customerComment(3, 1, 5, 10),
		customerComment(4, 1, -1, 0),
	}

	threads, err := BuildCommentThreads(rows)
	require.NoError(t, err)
	assert.Equal(t, []domain.CommentID{3, 2, 1, 4}, ids(threads[1]))
}

func TestCommentOrderingTieBreaksOnID(t *testing.T) {
	rows := []CommentRow{customerComment(9, 1, 0, 0), customerComment(8, 1, 0, 0)}

	threads, err := BuildCommentThreads(rows)
	require.NoError(t, err)
	assert.Equal(t, []domain.CommentID{8, 9}, ids(threads[1]))
}

func TestCommentThreadsPerReview(t *testing.T) {
	reply := customerComment(3, 1, 7, 5)
	reply.Parent = parent(1)
	nested := customerComment(4, 1, 0, 6)
	nested.Parent = parent(3)
	sibling := customerComment(5, 1, 1, 4)
	sibling.Parent = parent(1)

	rows := []CommentRow{
		nested,
		reply,
		customerComment(1, 1, 0, 0),
		customerComment(2, 2, 0, 0),
		sibling,
	}

	threads, err := BuildCommentThreads(rows)
	require.NoError(t, err)
	require.Len(t, threads, 2)

	first := threads[1]
	require.Len(t, first, 1)
	assert.Equal(t, []domain.CommentID{3, 5}, ids(first[0].Replies))
	assert.Equal(t, []domain.CommentID{4}, ids(first[0].Replies[0].Replies))
	assert.Empty(t, first[0].Replies[1].Replies)
	assert.NotNil(t, first[0].Replies[1].Replies)

	assert.Equal(t, []domain.CommentID{2}, ids(threads[2]))
	_, ok := threads[3]
	assert.False(t, ok)
}

func TestCommentOrderIgnoresOwnVote(t *testing.T) {
	like, dislike := domain.Like, domain.Dislike
	a := customerComment(1, 1, 2, 0)
	b := customerComment(2, 1, 2, 1)
	b.OwnVote = &like
	c := customerComment(3, 1, 2, 2)
	c.OwnVote = &dislike

	signedIn, err := BuildCommentThreads([]CommentRow{c, b, a})
	require.NoError(t, err)

	a.OwnVote, b.OwnVote, c.OwnVote = nil, nil, nil
	anonymous, err := BuildCommentThreads([]CommentRow{a, b, c})
	require.NoError(t, err)

	assert.Equal(t, ids(anonymous[1]), ids(signedIn[1]))
	assert.Equal(t, anonymous[1], StripOwnVotes(signedIn[1]))
	require.NotNil(t, signedIn[1][1].OwnVote)
	assert.Equal(t, domain.Like, *signedIn[1][1].OwnVote)
}

func TestCommentRoles(t *testing.T) {
	op := customerComment(1, 1, 3, 0)
	op.Author = 100

	vendor := customerComment(2, 1, 2, 0)
	vendor.Role = domain.RoleVendor
	vendor.Author = 55
	vendor.CustomerPicture = nil
	vendor.VendorPicture = pic("/v.png")

	admin := customerComment(3, 1, 1, 0)
	admin.Role = domain.RoleAdministrator
	admin.CustomerPicture = nil

	other := customerComment(4, 1, 0, 0)

	threads, err := BuildCommentThreads([]CommentRow{op, vendor, admin, other})
	require.NoError(t, err)

	got := threads[1]
	require.Len(t, got, 4)
	assert.Equal(t, CommentRole{Kind: domain.RoleCustomer, OriginalPoster: true}, got[0].Role)
	assert.Equal(t, CommentRole{Kind: domain.RoleVendor, Vendor: 55}, got[1].Role)
	assert.Equal(t, "/v.png", got[1].ProfilePicture.URL())
	assert.Equal(t, CommentRole{Kind: domain.RoleAdministrator}, got[2].Role)
	assert.True(t, got[2].ProfilePicture.IsAdmin())
	assert.Equal(t, CommentRole{Kind: domain.RoleCustomer}, got[3].Role)
}

func TestCommentThreadErrors(t *testing.T) {
	dangling := customerComment(2, 1, 0, 0)
	dangling.Parent = parent(42)

	crossReview := customerComment(3, 2, 0, 0)
	crossReview.Parent = parent(1)

	loopA := customerComment(5, 1, 0, 0)
	loopA.Parent = parent(6)
	loopB := customerComment(6, 1, 0, 0)
	loopB.Parent = parent(5)

	badPicture := customerComment(7, 1, 0, 0)
	badPicture.VendorPicture = pic("/v.png")

	tests := []struct {
		name      string
		rows      []CommentRow
		expectErr error
	}{
		{name: "dangling parent", rows: []CommentRow{customerComment(1, 1, 0, 0), dangling}, expectErr: ErrDanglingParent},
		{name: "cross review reply", rows: []CommentRow{customerComment(1, 1, 0, 0), crossReview}, expectErr: ErrCrossReview},
		{name: "reply cycle", rows: []CommentRow{customerComment(1, 1, 0, 0), loopA, loopB}, expectErr: ErrDanglingParent},
		{name: "duplicate id", rows: []CommentRow{customerComment(1, 1, 0, 0), customerComment(1, 1, 0, 0)}, expectErr: ErrDuplicateID},
		{name: "inconsistent picture", rows: []CommentRow{badPicture}, expectErr: domain.ErrInconsistentProfilePicture},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			threads, err := BuildCommentThreads(tt.rows)
			require.Error(t, err)
			assert.Nil(t, threads)
			assert.ErrorIs(t, err, tt.expectErr)
			assert.True(t, IsConsistency(err))
		})
	}
}
