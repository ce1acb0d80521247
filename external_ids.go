package val

//external identifier canonicalization

// getUniqueExternalIds de-duplicates id pairs by (namespace, value),
// preserving first-seen order.
func getUniqueExternalIds(ids []ExternalId) []ExternalId {
	seen := make(map[ExternalId]bool)
	unique := make([]ExternalId, 0, len(ids))

	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	return unique
}

// canonicalizeExternalIds adds an un-padded variant of every numeric id value
// and removes duplicates, so zero-padded and bare forms of the same store
// number each appear exactly once. Pairs with no value are dropped.
func canonicalizeExternalIds(ids []ExternalId) []ExternalId {
	expanded := make([]ExternalId, 0, len(ids)*2)

	for _, id := range ids {
		if len(id.Value()) == 0 {
			continue
		}

		expanded = append(expanded, id)
		expanded = append(expanded, ExternalId{id.Namespace(), unpadNumber(id.Value())})
	}

	return getUniqueExternalIds(expanded)
}
