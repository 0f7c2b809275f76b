package mp4tag

// WriteOption configures behavior of WriteTags/SetTagString/RemoveTag.
//
// Example:
//
//	err := ctx.WriteTags(coll, mp4tag.WithBackup(".bak"), mp4tag.WithValidation())
type WriteOption func(*writeOptions)

type writeOptions struct {
	forceRewrite bool
	backupSuffix string
	validate     bool
}

func defaultWriteOptions() *writeOptions {
	return &writeOptions{}
}

// ForceRewrite skips Strategy 1 (in-place reuse of ilst/free padding) and
// always takes the rewrite-then-rename path. Applications that cannot accept
// the small window of risk Strategy 1's torn-write scenario carries (see
// spec §5) should set this.
func ForceRewrite() WriteOption {
	return func(o *writeOptions) {
		o.forceRewrite = true
	}
}

// WithBackup copies the file to <path>+suffix before writing. If the backup
// already exists it is overwritten.
func WithBackup(suffix string) WriteOption {
	return func(o *writeOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-parses the file and re-reads its tags immediately after
// a successful write, to catch a corrupted write before the caller does.
func WithValidation() WriteOption {
	return func(o *writeOptions) {
		o.validate = true
	}
}
