package catalog

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"catalog-engine-go/internal/domain"
	"catalog-engine-go/internal/tree"
)

// ReviewRow is a review joined with its author and rating, with the vote
// sum tallied by the query.
type ReviewRow struct {
	ID             domain.ReviewID
	Customer       domain.CustomerID
	Username       domain.Username
	ProfilePicture string
	Rating         int32
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Title          string
	Content        string
	VoteSum        int64
	OwnVote        *domain.Vote
}

// ReviewPage is one page of a product's reviews with every comment on them.
// Own is the viewer's review, kept out of Reviews.
type ReviewPage struct {
	Own      *ReviewRow
	Reviews  []ReviewRow
	Comments []tree.CommentRow
}

// ProductReview is a review with its comment threads.
type ProductReview struct {
	ID             domain.ReviewID       `json:"id"`
	Customer       domain.CustomerID     `json:"customer"`
	Username       domain.Username       `json:"username"`
	ProfilePicture domain.ProfilePicture `json:"profile_picture"`
	Rating         domain.Rating         `json:"rating"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
	Title          string                `json:"title"`
	Content        string                `json:"content"`
	VoteSum        int64                 `json:"vote_sum"`
	OwnVote        *domain.Vote          `json:"own_vote,omitempty"`
	Comments       []tree.CommentTree    `json:"comments"`
}

// OwnReview is the viewer's own review, shown apart from the others.
type OwnReview struct {
	ID        domain.ReviewID    `json:"id"`
	Rating    domain.Rating      `json:"rating"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
	Title     string             `json:"title"`
	Content   string             `json:"content"`
	VoteSum   int64              `json:"vote_sum"`
	Comments  []tree.CommentTree `json:"comments"`
}

// ReviewsView is the signed-in view of a product's reviews.
type ReviewsView struct {
	Own     *OwnReview      `json:"own,omitempty"`
	Reviews []ProductReview `json:"reviews"`
}

// AssembleReviews attaches comment threads to reviews. Reviews are ordered by
// vote sum descending, then creation time. Comments on reviews that are not
// in the list are a consistency error.
func AssembleReviews(reviews []ReviewRow, comments []tree.CommentRow) ([]ProductReview, error) {
	threads, err := tree.BuildCommentThreads(comments)
	if err != nil {
		return nil, err
	}
	out, err := attachThreads(reviews, threads)
	if err != nil {
		return nil, err
	}
	if err := checkOrphanThreads(threads); err != nil {
		return nil, err
	}
	return out, nil
}

// AssembleReviewsAs builds the signed-in view. own may be nil when the viewer
// has not reviewed the product; others must not contain it.
func AssembleReviewsAs(own *ReviewRow, others []ReviewRow, comments []tree.CommentRow) (ReviewsView, error) {
	threads, err := tree.BuildCommentThreads(comments)
	if err != nil {
		return ReviewsView{}, err
	}

	var view ReviewsView
	if own != nil {
		rating, err := reviewRating(*own)
		if err != nil {
			return ReviewsView{}, err
		}
		view.Own = &OwnReview{
			ID:        own.ID,
			Rating:    rating,
			CreatedAt: own.CreatedAt,
			UpdatedAt: own.UpdatedAt,
			Title:     own.Title,
			Content:   own.Content,
			VoteSum:   own.VoteSum,
			Comments:  threadsOf(threads, own.ID),
		}
		delete(threads, own.ID)
	}

	view.Reviews, err = attachThreads(others, threads)
	if err != nil {
		return ReviewsView{}, err
	}
	if err := checkOrphanThreads(threads); err != nil {
		return ReviewsView{}, err
	}
	return view, nil
}

// attachThreads consumes the threads of every review it converts.
func attachThreads(reviews []ReviewRow, threads map[domain.ReviewID][]tree.CommentTree) ([]ProductReview, error) {
	out := make([]ProductReview, 0, len(reviews))
	for _, r := range reviews {
		rating, err := reviewRating(r)
		if err != nil {
			return nil, err
		}
		out = append(out, ProductReview{
			ID:             r.ID,
			Customer:       r.Customer,
			Username:       r.Username,
			ProfilePicture: domain.NewProfilePicture(r.ProfilePicture),
			Rating:         rating,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
			Title:          r.Title,
			Content:        r.Content,
			VoteSum:        r.VoteSum,
			OwnVote:        r.OwnVote,
			Comments:       threadsOf(threads, r.ID),
		})
		delete(threads, r.ID)
	}

	slices.SortStableFunc(out, func(a, b ProductReview) int {
		if c := cmp.Compare(b.VoteSum, a.VoteSum); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

func threadsOf(threads map[domain.ReviewID][]tree.CommentTree, id domain.ReviewID) []tree.CommentTree {
	if t, ok := threads[id]; ok {
		return t
	}
	return []tree.CommentTree{}
}

// checkOrphanThreads fails when comments reference a review that was not listed.
func checkOrphanThreads(threads map[domain.ReviewID][]tree.CommentTree) error {
	if len(threads) == 0 {
		return nil
	}
	reviews := make([]domain.ReviewID, 0, len(threads))
	for id := range threads {
		reviews = append(reviews, id)
	}
	slices.Sort(reviews)
	first := threads[reviews[0]][0]
	return &tree.ConsistencyError{Source: "comment", ID: int32(first.ID), Parent: int32(reviews[0]), Err: tree.ErrDanglingParent}
}

func reviewRating(r ReviewRow) (domain.Rating, error) {
	rating, err := domain.NewRating(int(r.Rating))
	if err != nil {
		return 0, fmt.Errorf("%w: review %d: %w", ErrInconsistentRow, r.ID, err)
	}
	return rating, nil
}
