package piv

// options configures how a Token is constructed. Built with the same
// functional-options shape the teacher already uses for key generation
// (piv/key.go's keyOptions), extended to the whole connection lifecycle.
type options struct {
	rand       interface{ Read([]byte) (int, error) }
	logger     Logger
	trace      *ClientTrace
	chainFixup bool
	ctxFactory CardContextFactory
}

// Option configures Connect, Enumerate, or Find.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		rand:       defaultRand(),
		chainFixup: true, // see SPEC_FULL.md Open Question 1
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithRand overrides the source of randomness used for AuthKey
// challenges and ResetApplet's random PIN/PUK attempts. Defaults to
// crypto/rand.
func WithRand(r interface{ Read([]byte) (int, error) }) Option {
	return func(o *options) { o.rand = r }
}

// WithLogger attaches a Logger. Defaults to NopLogger.
func WithLogger(l Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithClientTrace attaches per-APDU trace hooks (see trace.go).
func WithClientTrace(t *ClientTrace) Option {
	return func(o *options) { o.trace = t }
}

// WithChainFixup controls the §9 Open Question 1 workaround that rewrites
// a trailing 0x6A80 to 0x9000 when an earlier chain segment returned
// 0x9000 cleanly. Defaults to enabled.
func WithChainFixup(enabled bool) Option {
	return func(o *options) { o.chainFixup = enabled }
}

// WithCardContextFactory overrides how the PC/SC context is constructed,
// letting tests substitute a fake transport without touching a real
// reader.
func WithCardContextFactory(f CardContextFactory) Option {
	return func(o *options) { o.ctxFactory = f }
}
