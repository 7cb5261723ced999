package shared

// FilterBrands intersects the full brand universe with the caller's
// allow-list, preserving the ordering of all. A nil allow-list means an
// unrestricted caller and returns all unchanged.
//
// Every code path that enumerates "all lines" (slicer options, brand
// comparison tables, chart category axes) must pass through this filter
// so a restricted caller never sees data for brands outside their scope.
func FilterBrands(all, allowed []string) []string {
	if allowed == nil {
		return all
	}
	set := make(map[string]struct{}, len(allowed))
	for _, brand := range allowed {
		set[brand] = struct{}{}
	}
	filtered := make([]string, 0, len(all))
	for _, brand := range all {
		if _, ok := set[brand]; ok {
			filtered = append(filtered, brand)
		}
	}
	return filtered
}
