package tree

import (
	"cmp"
	"slices"
	"time"

	"catalog-engine-go/internal/domain"
)

// CommentRow is one comment as read from storage, joined with its author and
// the author of the review it belongs to. VoteSum is tallied by the query.
type CommentRow struct {
	ID              domain.CommentID
	Parent          *domain.CommentID
	Review          domain.ReviewID
	ReviewAuthor    domain.CustomerID
	Author          domain.UserID
	Username        domain.Username
	Role            domain.Role
	CustomerPicture *string
	VendorPicture   *string
	Content         string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	VoteSum         int64
	OwnVote         *domain.Vote
}

// CommentRole decides which badge a comment author gets. Customers are
// badged when they wrote the review, vendors carry their id so the owner of
// the product can be badged, administrators are always badged.
type CommentRole struct {
	Kind           domain.Role     `json:"kind"`
	OriginalPoster bool            `json:"original_poster,omitempty"`
	Vendor         domain.VendorID `json:"vendor,omitempty"`
}

// CommentTree is a comment with its replies.
type CommentTree struct {
	ID             domain.CommentID      `json:"id"`
	Username       domain.Username       `json:"username"`
	ProfilePicture domain.ProfilePicture `json:"profile_picture"`
	Role           CommentRole           `json:"role"`
	Content        string                `json:"content"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	VoteSum        int64                 `json:"vote_sum"`
	OwnVote        *domain.Vote          `json:"own_vote,omitempty"`
	Replies        []CommentTree         `json:"replies"`
}

// BuildCommentThreads assembles the comments of any number of reviews in one
// pass. Each review maps to its direct comments; reviews without comments are
// absent from the result.
//
// Every level is ordered by vote sum descending, then creation time
// ascending, then id. The order never depends on OwnVote, so anonymous and
// signed-in views agree.
func BuildCommentThreads(rows []CommentRow) (map[domain.ReviewID][]CommentTree, error) {
	byID := make(map[domain.CommentID]*CommentRow, len(rows))
	for i := range rows {
		row := &rows[i]
		if _, dup := byID[row.ID]; dup {
			return nil, &ConsistencyError{Source: "comment", ID: int32(row.ID), Err: ErrDuplicateID}
		}
		byID[row.ID] = row
	}

	roots := make(map[domain.ReviewID][]*CommentRow)
	byParent := make(map[domain.CommentID][]*CommentRow)
	for i := range rows {
		row := &rows[i]
		if row.Parent == nil {
			roots[row.Review] = append(roots[row.Review], row)
			continue
		}
		parent, ok := byID[*row.Parent]
		if !ok {
			return nil, &ConsistencyError{Source: "comment", ID: int32(row.ID), Parent: int32(*row.Parent), Err: ErrDanglingParent}
		}
		if parent.Review != row.Review {
			return nil, &ConsistencyError{Source: "comment", ID: int32(row.ID), Parent: int32(parent.ID), Err: ErrCrossReview}
		}
		byParent[*row.Parent] = append(byParent[*row.Parent], row)
	}

	threads := make(map[domain.ReviewID][]CommentTree, len(roots))
	for review, top := range roots {
		built, err := attachComments(top, byParent)
		if err != nil {
			return nil, err
		}
		threads[review] = built
	}

	if len(byParent) > 0 {
		parents := make([]domain.CommentID, 0, len(byParent))
		for id := range byParent {
			parents = append(parents, id)
		}
		parent := slices.Min(parents)
		return nil, &ConsistencyError{Source: "comment", ID: int32(byParent[parent][0].ID), Parent: int32(parent), Err: ErrDanglingParent}
	}
	return threads, nil
}

func attachComments(rows []*CommentRow, byParent map[domain.CommentID][]*CommentRow) ([]CommentTree, error) {
	out := make([]CommentTree, 0, len(rows))
	for _, row := range rows {
		children := byParent[row.ID]
		delete(byParent, row.ID)

		replies, err := attachComments(children, byParent)
		if err != nil {
			return nil, err
		}
		node, err := newCommentTree(row, replies)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	slices.SortFunc(out, compareComments)
	return out, nil
}

func compareComments(a, b CommentTree) int {
	if c := cmp.Compare(b.VoteSum, a.VoteSum); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

func newCommentTree(row *CommentRow, replies []CommentTree) (CommentTree, error) {
	pic, err := domain.BuildProfilePicture(row.Role, row.CustomerPicture, row.VendorPicture)
	if err != nil {
		return CommentTree{}, &ConsistencyError{Source: "comment", ID: int32(row.ID), Err: err}
	}

	role := CommentRole{Kind: row.Role}
	switch row.Role {
	case domain.RoleCustomer:
		role.OriginalPoster = row.Author == row.ReviewAuthor.User()
	case domain.RoleVendor:
		role.Vendor = domain.VendorID(row.Author)
	}

	return CommentTree{
		ID:             row.ID,
		Username:       row.Username,
		ProfilePicture: pic,
		Role:           role,
		Content:        row.Content,
		CreatedAt:      row.CreatedAt,
		UpdatedAt:      row.UpdatedAt,
		VoteSum:        row.VoteSum,
		OwnVote:        row.OwnVote,
		Replies:        replies,
	}, nil
}

// StripOwnVotes returns a copy of threads without viewer-specific votes.
func StripOwnVotes(threads []CommentTree) []CommentTree {
	out := make([]CommentTree, len(threads))
	for i, c := range threads {
		c.OwnVote = nil
		c.Replies = StripOwnVotes(c.Replies)
		out[i] = c
	}
	return out
}
