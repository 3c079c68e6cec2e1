package errs

import (
	"errors"

	"github.com/Astemirdum/lending-desk/pkg/auth"
)

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")

	ErrDuplicateUsername  = errors.New("username already exists")
	ErrDuplicateStudentID = errors.New("student id already exists")
	ErrDuplicateBarcode   = errors.New("barcode already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrTokenMissing   = auth.ErrMissingToken
	ErrTokenMalformed = auth.ErrMalformedHeader
	ErrTokenInvalid   = auth.ErrInvalidToken
	ErrForbidden      = errors.New("admin privileges required")

	ErrBookNotFound    = errors.New("book not found")
	ErrStudentNotFound = errors.New("student not found")
	ErrReviewNotFound  = errors.New("review not found")

	ErrAlreadyBorrowed = errors.New("book is already borrowed")
	ErrNotBorrowed     = errors.New("book is not currently borrowed")
	// ErrNoActiveLoan marks a borrowed book without a current loan record.
	ErrNoActiveLoan = errors.New("data integrity fault: borrowed book has no current loan")
)
