package mp4tag

import "github.com/mportier/mp4tag/internal/mp4errs"

// Argument errors: caller misused the API.
var (
	ErrInvalidArg  = mp4errs.ErrInvalidArg
	ErrNotOpen     = mp4errs.ErrNotOpen
	ErrAlreadyOpen = mp4errs.ErrAlreadyOpen
	ErrReadOnly    = mp4errs.ErrReadOnly
)

// Resource errors: I/O and filesystem failures.
var (
	ErrIo           = mp4errs.ErrIo
	ErrSeekFailed   = mp4errs.ErrSeekFailed
	ErrWriteFailed  = mp4errs.ErrWriteFailed
	ErrRenameFailed = mp4errs.ErrRenameFailed
)

// Format errors: the file is not a container this library understands.
var (
	ErrNotMp4      = mp4errs.ErrNotMp4
	ErrBadBox      = mp4errs.ErrBadBox
	ErrCorrupt     = mp4errs.ErrCorrupt
	ErrTruncated   = mp4errs.ErrTruncated
	ErrUnsupported = mp4errs.ErrUnsupported
)

// Tag errors.
var (
	ErrNoTags      = mp4errs.ErrNoTags
	ErrTagNotFound = mp4errs.ErrTagNotFound
	ErrTagTooLarge = mp4errs.ErrTagTooLarge
)

// BoxError is an alias to mp4errs.BoxError, re-exported so callers can use
// errors.As without importing internal/mp4errs.
type BoxError = mp4errs.BoxError

// TagError is an alias to mp4errs.TagError.
type TagError = mp4errs.TagError
