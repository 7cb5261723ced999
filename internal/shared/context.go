package shared

import "context"

// CallerContext carries the identity scope for one request: the role and
// the brand allow-list resolved by the upstream auth layer. The KPI core
// never reads this from ambient state; it is always passed explicitly.
type CallerContext struct {
	Role string
	// AllowedBrands is nil for unrestricted (admin) callers. An empty,
	// non-nil slice means access to no brand at all.
	AllowedBrands []string
}

// Unrestricted reports whether the caller may see every brand.
func (c CallerContext) Unrestricted() bool {
	return c.AllowedBrands == nil
}

// CanAccess reports whether the caller may see the given line.
func (c CallerContext) CanAccess(line string) bool {
	if c.AllowedBrands == nil {
		return true
	}
	for _, brand := range c.AllowedBrands {
		if brand == line {
			return true
		}
	}
	return false
}

type callerContextKey struct{}

// ContextWithCaller stores the caller scope in context.
func ContextWithCaller(ctx context.Context, caller CallerContext) context.Context {
	return context.WithValue(ctx, callerContextKey{}, caller)
}

// CallerFromContext extracts the caller scope. Missing scope means an
// unrestricted caller, matching an absent allow-list header.
func CallerFromContext(ctx context.Context) CallerContext {
	caller, _ := ctx.Value(callerContextKey{}).(CallerContext)
	return caller
}
