/*
social.go - Social-media submission records

PURPOSE:
  Users submit links to posts about the product and later earn points
  when a reviewer credits them (the review workflow itself lives
  outside this service; submissions are stored pending). A credited
  submission becomes a ledger entry with source=social referencing the
  submission ID.
*/
package redeem

import (
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/loop/rewards-engine/points"
)

type Platform string

const (
	PlatformX         Platform = "x"
	PlatformInstagram Platform = "instagram"
)

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionCredited SubmissionStatus = "credited"
	SubmissionRejected SubmissionStatus = "rejected"
)

// SocialSubmission is one submitted post awaiting review.
type SocialSubmission struct {
	ID            uuid.UUID
	UserID        points.UserID
	Platform      Platform
	PostURL       string
	ScreenshotURL string
	Status        SubmissionStatus
	CreatedAt     time.Time
}

// NewSocialSubmission validates and builds a pending submission.
func NewSocialSubmission(user points.UserID, platform Platform, postURL string, now time.Time) (SocialSubmission, error) {
	if platform != PlatformX && platform != PlatformInstagram {
		return SocialSubmission{}, &SubmissionError{Field: "platform", Detail: "unsupported platform"}
	}
	u, err := url.Parse(postURL)
	if err != nil || u.Scheme != "https" || u.Host == "" {
		return SocialSubmission{}, &SubmissionError{Field: "post_url", Detail: "must be an https URL"}
	}
	return SocialSubmission{
		ID:        uuid.New(),
		UserID:    user,
		Platform:  platform,
		PostURL:   postURL,
		Status:    SubmissionPending,
		CreatedAt: now,
	}, nil
}

// SubmissionError reports an invalid submission field.
type SubmissionError struct {
	Field  string
	Detail string
}

func (e *SubmissionError) Error() string { return e.Field + ": " + e.Detail }
