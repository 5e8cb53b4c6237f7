package reader

import (
	"io"

	"github.com/lispc-lang/lispc/internal/rval"
)

// FoldFn folds one read value into an accumulator, returning the updated
// accumulator. The accumulator is typically the analyzer/namespace
// environment (see internal/env), kept generic here so the reader has no
// dependency on it.
type FoldFn func(v rval.Value, env interface{}) (interface{}, error)

// ReadFold consumes the entire stream, invoking f between reads, per
// §4.1's `read_fold(f, source, opts, env) -> env` contract.
func ReadFold(src io.Reader, f FoldFn, opts Opts, env interface{}) (interface{}, error) {
	r := New(src, opts)
	for {
		v, err := r.readForm()
		if err != nil {
			if err == io.EOF {
				return env, nil
			}
			return env, err
		}
		if v == nil {
			continue
		}
		env, err = f(v, env)
		if err != nil {
			return env, err
		}
	}
}
