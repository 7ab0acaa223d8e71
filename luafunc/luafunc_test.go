package luafunc

import (
	"context"
	"math"
	"sync"
	"testing"

	"github.com/baxromumarov/mcquad"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompileExpressionAndChunk(t *testing.T) {
	tests := []struct {
		name string
		src  string
		x    []float64
		want float64
	}{
		{name: "expression", src: "x[1] * x[2]", x: []float64{3, 4}, want: 12},
		{name: "math library", src: "math.sqrt(x[1])", x: []float64{9}, want: 3},
		{name: "chunk", src: "local s = 0\nfor i = 1, #x do s = s + x[i] end\nreturn s", x: []float64{1, 2, 3}, want: 6},
		{name: "indicator true", src: "x[1]^2 + x[2]^2 <= 1", x: []float64{0.5, 0.5}, want: 1},
		{name: "indicator false", src: "x[1]^2 + x[2]^2 <= 1", x: []float64{1, 1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Compile(tt.name, tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.name, p.Name())

			got, err := p.Eval(tt.x)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := Compile("broken", "x[1] +* 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
}

func TestEvalRuntimeError(t *testing.T) {
	p, err := Compile("raise", `if x[1] > 0.5 then error("too far right") end return x[1]`)
	require.NoError(t, err)

	v, err := p.Eval([]float64{0.25})
	require.NoError(t, err)
	assert.Equal(t, 0.25, v)

	_, err = p.Eval([]float64{0.75})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too far right")

	// The state survives the error.
	v, err = p.Eval([]float64{0.5})
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)
}

func TestEvalNotNumber(t *testing.T) {
	p, err := Compile("text", `"hello"`)
	require.NoError(t, err)

	_, err = p.Eval([]float64{1})
	assert.ErrorIs(t, err, ErrNotNumber)
}

func TestSandboxHidesUnsafeLibraries(t *testing.T) {
	for _, src := range []string{
		`os.exit(1)`,
		`io.write("x")`,
		`dofile("/etc/passwd")`,
		`require("os")`,
		`load("return 1")()`,
	} {
		p, err := Compile("unsafe", src)
		require.NoError(t, err, src)

		_, err = p.Eval([]float64{0})
		assert.Error(t, err, src)
	}
}

func TestEvalConcurrent(t *testing.T) {
	p, err := Compile("square", "x[1] * x[1]")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 1000 {
				v := float64(g*1000 + i)
				got, err := p.Eval([]float64{v})
				if !assert.NoError(t, err) || !assert.Equal(t, v*v, got) {
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestIntegratePi(t *testing.T) {
	p, err := Compile("disk", "4 * (x[1]^2 + x[2]^2 <= 1 and 1 or 0)")
	require.NoError(t, err)

	in, err := mcquad.New(p.Func(), []mcquad.Bound[float64]{{Low: 0, High: 1}, {Low: 0, High: 1}}, 5e-3, mcquad.WithBatchSize(256))
	require.NoError(t, err)

	pi, err := in.Integrate(context.Background()).Wait()
	require.NoError(t, err)
	assert.InEpsilon(t, math.Pi, pi, 0.01)
}

func TestIntegrateScriptFailure(t *testing.T) {
	p, err := Compile("fails", `if x[1] < 0.1 then error("singular") end return 1 / x[1]`)
	require.NoError(t, err)

	in, err := mcquad.New(p.Func(), []mcquad.Bound[float64]{{Low: 0, High: 1}}, 1e-4)
	require.NoError(t, err)

	_, err = in.Integrate(context.Background()).Wait()
	require.Error(t, err)
	assert.True(t, mcquad.IsEvaluationError(err))
	assert.Contains(t, err.Error(), "singular")
}
