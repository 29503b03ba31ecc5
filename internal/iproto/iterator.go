package iproto

// iteratorAliases maps the string/symbol spellings accepted by SELECT to
// their typed Iterator value. BitsAllNotSet has no alias: it is defined on
// the wire but unreachable through string aliases, matching the upstream
// protocol the way the reference implementation left it.
var iteratorAliases = map[string]Iterator{
	"eq": IterEqual, "==": IterEqual,
	"reveq": IterReversedEqual, "==<": IterReversedEqual,
	"all": IterAll, "*": IterAll,
	"lt": IterLessThan, "<": IterLessThan,
	"lte": IterLessThanOrEqual, "<=": IterLessThanOrEqual,
	"gte": IterGreaterThanOrEqual, ">=": IterGreaterThanOrEqual,
	"gt": IterGreaterThan, ">": IterGreaterThan,
	"bitall": IterBitsAllSet, "&=": IterBitsAllSet,
	"bitany": IterBitsAnySet, "&": IterBitsAnySet,
	"overlaps": IterRtreeOverlaps, "&&": IterRtreeOverlaps,
	"neighbor": IterRtreeNeighbor, "<->": IterRtreeNeighbor,
}

// ResolveIteratorAlias looks up a string/symbol iterator alias. ok is
// false for any spelling not in the fixed table, including "bitallnotset"
// (that iterator kind is only reachable via its typed numeric value).
func ResolveIteratorAlias(alias string) (Iterator, bool) {
	it, ok := iteratorAliases[alias]
	return it, ok
}
