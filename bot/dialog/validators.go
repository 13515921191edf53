package dialog

import (
	"strconv"
	"strings"
)

// Retry messages are fixed per validator so a rejected step reissues the
// exact same text every time.
const (
	ageRetry     = "The value entered must be greater than 0 and less than 150."
	pictureRetry = "The attachment must be a jpeg/png image file."
	confirmRetry = "Merci de répondre par Oui ou Non."
	noAttachment = "No attachments received. Proceeding without a profile picture..."
)

// TextValidator accepts any non-empty reply as-is.
func TextValidator(retry string) Validator {
	return func(in Input) Validation {
		text := strings.TrimSpace(in.Text)
		if text == "" {
			return Validation{Retry: retry}
		}
		return Validation{Accepted: true, Value: text}
	}
}

// ChoiceValidator accepts only replies matching one of the given labels.
func ChoiceValidator(retry string, choices ...string) Validator {
	return func(in Input) Validation {
		text := strings.TrimSpace(in.Text)
		for _, c := range choices {
			if strings.EqualFold(text, c) {
				return Validation{Accepted: true, Value: c}
			}
		}
		return Validation{Retry: retry}
	}
}

// ConfirmValidator maps a yes/no reply to a bool.
func ConfirmValidator() Validator {
	return func(in Input) Validation {
		switch strings.ToLower(strings.TrimSpace(in.Text)) {
		case "oui", "yes", "o", "y":
			return Validation{Accepted: true, Value: true}
		case "non", "no", "n":
			return Validation{Accepted: true, Value: false}
		}
		return Validation{Retry: confirmRetry}
	}
}

// AgeValidator accepts integers strictly between 0 and 150.
func AgeValidator() Validator {
	return func(in Input) Validation {
		n, err := strconv.Atoi(strings.TrimSpace(in.Text))
		if err != nil || n <= 0 || n >= 150 {
			return Validation{Retry: ageRetry}
		}
		return Validation{Accepted: true, Value: n}
	}
}

// PictureValidator accepts a jpeg/png attachment. A reply with no attachments
// at all is accepted with an empty value; an attachment of the wrong type is
// rejected.
func PictureValidator() Validator {
	return func(in Input) Validation {
		if len(in.Attachments) == 0 {
			return Validation{Accepted: true, Value: nil, Ack: noAttachment}
		}
		for _, att := range in.Attachments {
			if att.IsImage() {
				return Validation{Accepted: true, Value: att}
			}
		}
		return Validation{Retry: pictureRetry}
	}
}
