package domain

// ValidationError is a rejection of caller input. Its text is meant to be
// shown to the user as is.
type ValidationError string

func (e ValidationError) Error() string {
	return string(e)
}

const (
	ErrMissingFields     ValidationError = "Please fill in all fields."
	ErrInvalidAmount     ValidationError = "Please enter a valid positive amount."
	ErrEmptyDescription  ValidationError = "description is required"
	ErrEmptyCategory     ValidationError = "category is required"
	ErrEmptyCategoryName ValidationError = "category name is required"
	ErrInvalidCategory   ValidationError = "category name must not contain '/'"
	ErrEmptyOwner        ValidationError = "owner id is required"
	ErrEmptyExpenseID    ValidationError = "expense id is required"
	ErrEmptyPatch        ValidationError = "nothing to update"
	ErrPasswordMismatch  ValidationError = "Passwords do not match."
	ErrWeakPassword      ValidationError = "password must be at least 6 characters"
	ErrPasswordTooLong   ValidationError = "password must be at most 72 bytes"
	ErrInvalidEmail      ValidationError = "email address is invalid"
)
