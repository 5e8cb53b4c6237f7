package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lispc-lang/lispc/internal/hostvm"
)

func newTestDriver() *Driver {
	store := hostvm.NewBytecodeStore(false, "", "")
	return New("user", hostvm.FakeAssembler{}, hostvm.NewFakeLoader(store), store)
}

func TestEvalSourceCompilesAndLoadsDef(t *testing.T) {
	d := newTestDriver()
	results, err := d.EvalSource(context.Background(), "t.clj", "(def x 10)")
	require.NoError(t, err)
	require.Len(t, results, 1)

	loader := d.Loader.(*hostvm.FakeLoader)
	_, ok := loader.Loaded["user"]
	assert.True(t, ok, "expected module user to have been loaded")
}

func TestEvalSourceMultipleForms(t *testing.T) {
	d := newTestDriver()
	results, err := d.EvalSource(context.Background(), "t.clj", "(def a 1) (def b 2)")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestEvalSourceProtocolDispatchReemitsOnExtendType(t *testing.T) {
	d := newTestDriver()
	src := `
(defprotocol Shape (area [this]))
(deftype* Square [side] Shape (area [this] side))
(extend-type Circle Shape (area [this] 0))
`
	results, err := d.EvalSource(context.Background(), "t.clj", src)
	require.NoError(t, err)
	require.Len(t, results, 3)

	extenders := d.Protocols.Extenders("Shape")
	assert.Len(t, extenders, 2, "expected Square and Circle to extend Shape")

	loader := d.Loader.(*hostvm.FakeLoader)
	shapeBytes, ok := loader.Loaded["Shape"]
	require.True(t, ok, "expected the Shape dispatch module to have been loaded")
	assert.Contains(t, string(shapeBytes), "Square__Shape__area")
	assert.Contains(t, string(shapeBytes), "Circle__Shape__area")
}

func TestEvalSourceEvaluatesDefAndVarRead(t *testing.T) {
	d := newTestDriver()
	results, err := d.EvalSource(context.Background(), "t.clj", "(def x 1) x")
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, int64(1), results[0].Value, "(def x 1) should evaluate to 1")
	assert.Equal(t, int64(1), results[1].Value, "trailing x should read back the var's root")

	v, ok := d.Reg.Intern("user", "x").Get()
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

func TestEvalSourceReaderErrorStopsLoop(t *testing.T) {
	d := newTestDriver()
	_, err := d.EvalSource(context.Background(), "t.clj", "(def x 10")
	assert.Error(t, err, "expected an error for an unterminated list")
}
