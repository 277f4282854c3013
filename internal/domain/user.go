package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrInvalidUsername is returned for usernames that fail the format check.
	ErrInvalidUsername = errors.New("invalid username")

	// ErrInvalidEmail is returned for addresses that fail the format check.
	ErrInvalidEmail = errors.New("invalid email")

	// ErrInconsistentProfilePicture is returned when the stored pictures do
	// not match the user's role.
	ErrInconsistentProfilePicture = errors.New("inconsistent profile picture data")

	// ErrUnknownVote is returned when decoding an unknown vote grade.
	ErrUnknownVote = errors.New("unknown vote")
)

var (
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{M}\p{Nd}\p{Pc}-]{3,20}$`)

	// HTML5 "valid e-mail address"; deliberately not RFC 5322.
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9.!#$%&'*+/=?^_` + "`" +
		`{|}~-]+@[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?(?:\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$`)
)

// Username is 3 to 20 characters of letters, digits, underscores and dashes.
// Other scripts are allowed, so the byte length is not bounded by 20.
type Username string

// NewUsername validates s.
func NewUsername(s string) (Username, error) {
	if !usernamePattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidUsername, s)
	}
	return Username(s), nil
}

// Email is an address valid under the HTML5 grammar.
type Email string

// NewEmail validates s.
func NewEmail(s string) (Email, error) {
	if !emailPattern.MatchString(s) {
		return "", fmt.Errorf("%w: %q", ErrInvalidEmail, s)
	}
	return Email(s), nil
}

// Role is the role of a user.
type Role string

const (
	RoleCustomer      Role = "customer"
	RoleVendor        Role = "vendor"
	RoleAdministrator Role = "administrator"
)

// AdminProfilePicture is the picture every administrator shares.
const AdminProfilePicture = "/static/admin.png"

// ProfilePicture is either a user-chosen URL or the administrator picture.
type ProfilePicture struct {
	url string
}

// NewProfilePicture wraps a customer or vendor picture URL.
func NewProfilePicture(url string) ProfilePicture { return ProfilePicture{url: url} }

// AdminPicture returns the fixed administrator picture.
func AdminPicture() ProfilePicture { return ProfilePicture{} }

// IsAdmin reports whether this is the administrator picture.
func (p ProfilePicture) IsAdmin() bool { return p.url == "" }

// URL returns the picture URL.
func (p ProfilePicture) URL() string {
	if p.url == "" {
		return AdminProfilePicture
	}
	return p.url
}

// MarshalJSON encodes the resolved URL.
func (p ProfilePicture) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.URL())
}

// BuildProfilePicture resolves the role-dependent picture columns. Customers
// only have a customer picture, vendors only a vendor picture and
// administrators neither.
func BuildProfilePicture(role Role, customerPicture, vendorPicture *string) (ProfilePicture, error) {
	switch {
	case role == RoleCustomer && customerPicture != nil && vendorPicture == nil:
		return NewProfilePicture(*customerPicture), nil
	case role == RoleVendor && customerPicture == nil && vendorPicture != nil:
		return NewProfilePicture(*vendorPicture), nil
	case role == RoleAdministrator && customerPicture == nil && vendorPicture == nil:
		return AdminPicture(), nil
	}
	return ProfilePicture{}, fmt.Errorf("%w: role %q", ErrInconsistentProfilePicture, role)
}

// Vote is a like or dislike on a review or comment.
type Vote int8

const (
	Dislike Vote = -1
	Like    Vote = 1
)

// ParseVote decodes the stored grade.
func ParseVote(s string) (Vote, error) {
	switch s {
	case "like":
		return Like, nil
	case "dislike":
		return Dislike, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownVote, s)
}

func (v Vote) String() string {
	if v == Like {
		return "like"
	}
	return "dislike"
}

// MarshalJSON encodes the vote as "like" or "dislike".
func (v Vote) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.String())
}

// UnmarshalJSON decodes "like" or "dislike".
func (v *Vote) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseVote(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Tally sums votes, +1 per like and -1 per dislike.
func Tally(votes []Vote) int64 {
	var sum int64
	for _, v := range votes {
		sum += int64(v)
	}
	return sum
}
