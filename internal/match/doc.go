// Package match provides name normalization, Levenshtein distance
// calculation, and did-you-mean suggestion ranking for unknown field and
// schema references in rule files.
//
// Key functions:
//   - NormalizeIdent: normalizes identifiers for comparison
//   - Levenshtein: computes edit distance between strings
//   - Suggest: ranks candidate names closest to a misspelled input
package match
