package campaign

import apperrors "github.com/mailforge/campaignd/internal/platform/errors"

var (
	// ErrEmptyName indicates a missing campaign name.
	ErrEmptyName = apperrors.New(apperrors.CodeCampaignNameEmpty, "campaign name is required")
	// ErrEmptySubject indicates a missing campaign subject.
	ErrEmptySubject = apperrors.New(apperrors.CodeCampaignSubjectEmpty, "campaign subject is required")
	// ErrInvalidSenderEmail indicates a missing or malformed sender address.
	ErrInvalidSenderEmail = apperrors.New(apperrors.CodeCampaignInvalidSenderEmail, "sender email is invalid")
	// ErrInvalidStatusTransition indicates a disallowed campaign status change.
	ErrInvalidStatusTransition = apperrors.New(apperrors.CodeCampaignInvalidStatusTransition, "campaign status transition is not allowed")
)
