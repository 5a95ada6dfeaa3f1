package hclconfig

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/triggergrid/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// functions are the functions available inside `params` and `config`
// expressions.
var functions = map[string]function.Function{
	"lower":   stdlib.LowerFunc,
	"upper":   stdlib.UpperFunc,
	"replace": stdlib.ReplaceFunc,
	"join":    stdlib.JoinFunc,
	"format":  stdlib.FormatFunc,
	"trim":    stdlib.TrimFunc,
}

// isExprDefined checks if an HCL expression was actually present in the source
// code. The decoder fills omitted optional attributes with zero-width
// placeholder expressions, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	isDefined := r.End.Byte > r.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", r.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// newEvalContext exposes the project parameters as the `param` object.
func newEvalContext(params map[string]string) *hcl.EvalContext {
	vals := make(map[string]cty.Value, len(params))
	for k, v := range params {
		vals[k] = cty.StringVal(v)
	}
	paramVal := cty.EmptyObjectVal
	if len(vals) > 0 {
		paramVal = cty.ObjectVal(vals)
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"param": paramVal},
		Functions: functions,
	}
}

// evalStringMap evaluates an object expression whose values must all be
// convertible to strings. An omitted expression yields an empty map.
func evalStringMap(ctx context.Context, expr hcl.Expression, attrName string, evalCtx *hcl.EvalContext) (map[string]string, hcl.Diagnostics) {
	out := make(map[string]string)
	if !isExprDefined(ctx, expr, attrName) {
		return out, nil
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return out, nil
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Invalid %s value", attrName),
			Detail:   fmt.Sprintf("The %s attribute must be an object of strings, got %s.", attrName, ty.FriendlyName()),
			Subject:  expr.Range().Ptr(),
		}}
	}
	if !val.IsWhollyKnown() {
		return nil, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("Unknown %s value", attrName),
			Detail:   "Values must be known when the pipeline is loaded.",
			Subject:  expr.Range().Ptr(),
		}}
	}

	var diagsOut hcl.Diagnostics
	for it := val.ElementIterator(); it.Next(); {
		k, v := it.Element()
		key := k.AsString()
		if v.IsNull() {
			out[key] = ""
			continue
		}
		s, err := convert.Convert(v, cty.String)
		if err != nil {
			diagsOut = append(diagsOut, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  fmt.Sprintf("Invalid %s entry", attrName),
				Detail:   fmt.Sprintf("Entry %q must be a string, number or bool: %s.", key, err),
				Subject:  expr.Range().Ptr(),
			})
			continue
		}
		out[key] = s.AsString()
	}
	return out, diagsOut
}
