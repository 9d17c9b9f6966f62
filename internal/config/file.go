package config

import (
	"fmt"
	"maps"
	"math/big"
	"os"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"go.uber.org/multierr"
)

// LoadFile builds a Global from Builtin overlaid with the attributes of an
// HCL file:
//
//	debug           = true
//	use_accelerator = "never"
//	my_extension    = 3
func LoadFile(path string) (*Global, error) {
	//nolint:gosec // G304: path is supplied by the caller on purpose
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	values, err := ParseHCL(src, path)
	if err != nil {
		return nil, err
	}
	merged := Builtin()
	maps.Copy(merged, values)
	return NewGlobal(merged), nil
}

// ParseHCL reads top-level attributes. Bools, strings and numbers become
// bool, string, int (for exact integers) or float64. Well-known options are
// checked against their expected type. All problems are reported together.
func ParseHCL(src []byte, filename string) (map[string]any, error) {
	file, diags := hclsyntax.ParseConfig(src, filename, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: %w", diags)
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("config: %w", diags)
	}

	values := make(map[string]any, len(attrs))
	var errs error
	for _, name := range slices.Sorted(maps.Keys(attrs)) {
		v, diags := attrs[name].Expr.Value(nil)
		if diags.HasErrors() {
			errs = multierr.Append(errs, fmt.Errorf("config: attribute %q: %w", name, diags))
			continue
		}
		value, err := fromCty(v)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("config: attribute %q: %w", name, err))
			continue
		}
		if err := checkKnown(name, value); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("config: attribute %q: %w", name, err))
			continue
		}
		values[name] = value
	}
	if errs != nil {
		return nil, errs
	}
	return values, nil
}

func fromCty(v cty.Value) (any, error) {
	if !v.IsKnown() || v.IsNull() {
		return nil, fmt.Errorf("value must be known and not null")
	}
	switch t := v.Type(); {
	case t.Equals(cty.Bool):
		return v.True(), nil
	case t.Equals(cty.String):
		return v.AsString(), nil
	case t.Equals(cty.Number):
		bf := v.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return int(i), nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", t.FriendlyName())
	}
}

func checkKnown(name string, value any) error {
	switch name {
	case KeyDebug, KeyEnableBackprop, KeyTypeCheck, KeyTrain, KeyKeepGraphOnReport, KeyAcceleratorDeterministic:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("must be a bool, got %T", value)
		}
	case KeyUseAccelerator:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("must be a string, got %T", value)
		}
		return validateAcceleratorMode(s)
	}
	return nil
}
