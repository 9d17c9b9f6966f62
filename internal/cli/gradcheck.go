package cli

import (
	"flag"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"strings"

	"github.com/go-logr/stdr"

	"github.com/born-ml/graphgrad/internal/autograd"
	"github.com/born-ml/graphgrad/internal/autograd/functions"
	"github.com/born-ml/graphgrad/internal/backend/cpu"
	"github.com/born-ml/graphgrad/internal/gradcheck"
	"github.com/born-ml/graphgrad/internal/tensor"
)

// domain restricts generated inputs.
type domain int

const (
	anyReal domain = iota
	positive
)

type checkCase struct {
	name   string
	shapes []tensor.Shape
	domain domain
	f      gradcheck.Func
}

func binaryCase(name string, op func(*autograd.Engine, *autograd.Variable, *autograd.Variable) (*autograd.Variable, error), dom domain, a, b tensor.Shape) checkCase {
	return checkCase{name: name, shapes: []tensor.Shape{a, b}, domain: dom,
		f: func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
			return op(e, xs[0], xs[1])
		}}
}

func unaryCase(name string, op func(*autograd.Engine, *autograd.Variable) (*autograd.Variable, error), dom domain, shape tensor.Shape) checkCase {
	return checkCase{name: name, shapes: []tensor.Shape{shape}, domain: dom,
		f: func(e *autograd.Engine, xs []*autograd.Variable) (*autograd.Variable, error) {
			return op(e, xs[0])
		}}
}

// builtinCases covers every function in the catalog, broadcasting included.
func builtinCases() []checkCase {
	return []checkCase{
		binaryCase("Add", functions.Add, anyReal, tensor.Shape{2, 3}, tensor.Shape{3}),
		binaryCase("Sub", functions.Sub, anyReal, tensor.Shape{2, 1}, tensor.Shape{1, 3}),
		binaryCase("Mul", functions.Mul, anyReal, tensor.Shape{2, 3}, tensor.Shape{}),
		binaryCase("Div", functions.Div, positive, tensor.Shape{3}, tensor.Shape{2, 3}),
		unaryCase("Neg", functions.Neg, anyReal, tensor.Shape{4}),
		unaryCase("Exp", functions.Exp, anyReal, tensor.Shape{2, 2}),
		unaryCase("Log", functions.Log, positive, tensor.Shape{2, 2}),
		unaryCase("Sum", functions.Sum, anyReal, tensor.Shape{3, 2}),
		unaryCase("AddConst", func(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
			return functions.AddConst(e, x, 1.5)
		}, anyReal, tensor.Shape{3}),
		unaryCase("MulConst", func(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
			return functions.MulConst(e, x, -2)
		}, anyReal, tensor.Shape{3}),
		unaryCase("PowConst", func(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
			return functions.PowConst(e, x, 3.5)
		}, positive, tensor.Shape{3}),
		unaryCase("SumTo", func(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
			s, err := functions.SumTo(e, x, tensor.Shape{1, 3})
			if err != nil {
				return nil, err
			}
			return functions.Mul(e, s, s)
		}, anyReal, tensor.Shape{2, 3}),
		unaryCase("BroadcastTo", func(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
			b, err := functions.BroadcastTo(e, x, tensor.Shape{2, 3})
			if err != nil {
				return nil, err
			}
			return functions.Exp(e, b)
		}, anyReal, tensor.Shape{3}),
		unaryCase("Reshape", func(e *autograd.Engine, x *autograd.Variable) (*autograd.Variable, error) {
			r, err := functions.Reshape(e, x, tensor.Shape{3, 2})
			if err != nil {
				return nil, err
			}
			return functions.Mul(e, r, r)
		}, anyReal, tensor.Shape{2, 3}),
	}
}

func runGradcheck(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("gradcheck", flag.ContinueOnError)
	fs.SetOutput(out)
	file := fs.String("file", "", "HCL settings file layered over the built-in defaults")
	only := fs.String("only", "", "Comma-separated function names to check (default all)")
	seed := fs.Uint64("seed", 1, "Seed for the generated inputs")
	verbosity := fs.Int("v", 0, "Engine log verbosity (1 traversals, 2 every node)")
	opts := gradcheck.DefaultOptions()
	fs.Float64Var(&opts.Eps, "eps", opts.Eps, "Finite difference step")
	fs.Float64Var(&opts.Atol, "atol", opts.Atol, "Absolute tolerance")
	fs.Float64Var(&opts.Rtol, "rtol", opts.Rtol, "Relative tolerance")
	if done, err := parse(fs, args); done || err != nil {
		return err
	}

	g, err := loadGlobal(*file)
	if err != nil {
		return err
	}
	stdr.SetVerbosity(*verbosity)
	logger := stdr.New(log.New(out, "", 0)).WithName("graphgrad")
	e := autograd.NewEngine(cpu.New(), autograd.WithGlobal(g), autograd.WithLogger(logger))

	cases, err := selectCases(builtinCases(), *only)
	if err != nil {
		return err
	}
	rng := rand.New(rand.NewPCG(*seed, *seed))
	failed := 0
	for _, c := range cases {
		res, err := gradcheck.Check(e, c.f, randomInputs(rng, c), opts)
		switch {
		case err != nil:
			failed++
			fmt.Fprintf(out, "FAIL  %-12s %v\n", c.name, err)
		case !res.OK():
			failed++
			fmt.Fprintf(out, "FAIL  %-12s max error %.3g\n", c.name, res.MaxError)
			for _, m := range res.Mismatches {
				fmt.Fprintf(out, "      %s\n", m)
			}
		default:
			fmt.Fprintf(out, "ok    %-12s max error %.3g\n", c.name, res.MaxError)
		}
	}
	if failed > 0 {
		return &ExitError{Code: 1, Message: fmt.Sprintf("%d of %d gradient checks failed", failed, len(cases))}
	}
	return nil
}

func selectCases(cases []checkCase, only string) ([]checkCase, error) {
	if only == "" {
		return cases, nil
	}
	byName := make(map[string]checkCase, len(cases))
	for _, c := range cases {
		byName[strings.ToLower(c.name)] = c
	}
	var selected []checkCase
	for _, name := range strings.Split(only, ",") {
		c, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, &ExitError{Code: 2, Message: fmt.Sprintf("unknown function %q", name)}
		}
		selected = append(selected, c)
	}
	return selected, nil
}

// randomInputs draws values in [-2, 2), or [0.5, 2.5) for positive domains.
func randomInputs(rng *rand.Rand, c checkCase) []*tensor.RawTensor {
	inputs := make([]*tensor.RawTensor, len(c.shapes))
	for i, shape := range c.shapes {
		data := make([]float64, shape.NumElements())
		for k := range data {
			if c.domain == positive {
				data[k] = rng.Float64()*2 + 0.5
			} else {
				data[k] = rng.Float64()*4 - 2
			}
		}
		raw, err := tensor.FromFloat64s(data, shape)
		if err != nil {
			panic(fmt.Sprintf("gradcheck input %v: %v", shape, err))
		}
		inputs[i] = raw
	}
	return inputs
}
