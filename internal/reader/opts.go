package reader

// ReadConditionalMode controls how `#?(...)` forms are resolved.
type ReadConditionalMode int

const (
	// Disallow rejects any reader-conditional form outright.
	Disallow ReadConditionalMode = iota
	// Allow resolves reader-conditionals against Opts.Features.
	Allow
	// Preserve returns an unresolved ReaderCondPlaceholder for the caller
	// (e.g. a formatter) to inspect instead of selecting a branch.
	Preserve
)

// EOFBehavior controls what read_one returns at end of stream.
type EOFBehavior int

const (
	// EOFError returns a sentinel io.EOF-wrapping error (the default).
	EOFError EOFBehavior = iota
	// EOFValue returns Opts.EOFValue instead of failing.
	EOFValue
)

// DataReaderFn resolves a tagged literal's tag to a transform over its form.
type DataReaderFn func(form interface{}) (interface{}, error)

// Opts configures one read_one/read_fold call, per §4.1 and §6.
type Opts struct {
	File               string
	ReadConditional     ReadConditionalMode
	Features            map[string]bool // active feature keys, e.g. {"clj": true}
	DefaultDataReaders  map[string]DataReaderFn
	DataReaders         map[string]DataReaderFn
	EOFBehavior         EOFBehavior
	EOFValue            interface{}
	AllowReadEval       bool // gates #=; default false per §9
}

// DefaultOpts returns the conservative defaults: conditionals disallowed,
// read-eval disabled.
func DefaultOpts(file string) Opts {
	return Opts{
		File:            file,
		ReadConditional: Disallow,
		EOFBehavior:     EOFError,
		AllowReadEval:   false,
	}
}
