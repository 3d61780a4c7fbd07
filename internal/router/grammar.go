package router

import (
	"regexp"
	"strings"
)

// Operation families the backend-necessity classifier can select.
const (
	OpVisualization    = "visualization"
	OpAnalysis         = "analysis"
	OpTransform        = "transform"
	OpRemoveDuplicates = "remove_duplicates"
)

// control vocabulary resolved in O(1) against history or the workspace.
var controlCommands = map[string]struct{}{
	"undo":   {},
	"redo":   {},
	"save":   {},
	"export": {},
}

func isControlCommand(norm string) bool {
	_, ok := controlCommands[norm]
	return ok
}

// duplicateSynonyms is the fixed synonym set that always forces remote
// delegation. Correct duplicate-removal semantics need full-dataset
// analysis beyond the local deterministic grammar.
var duplicateSynonyms = []string{
	"remove duplicates",
	"delete duplicates",
	"drop duplicates",
	"remove duplicate rows",
	"delete duplicate rows",
	"dedupe",
	"deduplicate",
}

func isDuplicateRemoval(norm string) bool {
	for _, s := range duplicateSynonyms {
		if strings.Contains(norm, s) {
			return true
		}
	}
	return false
}

var columnWidthRe = regexp.MustCompile(`make column ([a-z]) (wider|narrower)`)

// localOp is one deterministically-matched grid operation.
type localOp struct {
	label string
	run   func() error
}

// matchLocal tests the instruction against the small grammar of local
// operation families: column auto-fit, explicit column-width directives,
// and cell formatting keywords. Returns nil when nothing matches.
func (r *Router) matchLocal(norm string) *localOp {
	if strings.Contains(norm, "autofit") ||
		(strings.Contains(norm, "auto") && strings.Contains(norm, "fit") && strings.Contains(norm, "column")) {
		return &localOp{label: "autofit columns", run: r.grid.AutoFitColumns}
	}
	if m := columnWidthRe.FindStringSubmatch(norm); m != nil {
		col := int(m[1][0] - 'a')
		delta := 20
		if m[2] == "narrower" {
			delta = -20
		}
		return &localOp{
			label: "column width " + m[1],
			run:   func() error { return r.grid.AdjustColumnWidth(col, delta) },
		}
	}
	for _, style := range []string{"bold", "italic", "highlight", "underline"} {
		if strings.Contains(norm, style) {
			s := style
			return &localOp{label: "format " + s, run: func() error { return r.grid.ApplyFormat(s) }}
		}
	}
	return nil
}

// keyword families for the backend-necessity classifier.
var operationKeywords = []struct {
	op    string
	words []string
}{
	{OpVisualization, []string{"chart", "plot", "graph", "visualiz", "visualis"}},
	{OpAnalysis, []string{"analy", "insight", "trend", "summar", "statistic", "correlat"}},
	{OpTransform, []string{"filter", "search", "sort", "transform", "replace", "convert", "fill", "normalize"}},
}

// classifyOperation picks a remote operation type from keyword families.
// Returns "" when no family matches.
func classifyOperation(norm string) string {
	for _, fam := range operationKeywords {
		for _, w := range fam.words {
			if strings.Contains(norm, w) {
				return fam.op
			}
		}
	}
	return ""
}
