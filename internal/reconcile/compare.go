// Package reconcile compares two product sets collected from the same data.
package reconcile

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/BTic-Consultoria/rosdomofon-bitrix24/internal/models"
)

// Side names the set a finding is reported against.
type Side string

const (
	SideOld Side = "old"
	SideNew Side = "new"
)

const separator = "--------------------------------"

// Difference is a key present in both sets with unequal records.
// Side is the set the pass was comparing against.
type Difference struct {
	Key  string         `json:"key"`
	Side Side           `json:"side"`
	Old  models.Product `json:"old"`
	New  models.Product `json:"new"`
}

// Report is the outcome of comparing an old and a new product set.
type Report struct {
	Same         bool         `json:"same"`
	MissingInNew []string     `json:"missing_in_new"`
	MissingInOld []string     `json:"missing_in_old"`
	Differences  []Difference `json:"differences"`
}

// Compare reports keys missing on either side and keys whose records differ.
// Differing keys are found by both the forward and the reverse pass, so each
// appears twice in Differences, once per side.
func Compare(oldSet, newSet models.Products) *Report {
	report := &Report{
		MissingInNew: []string{},
		MissingInOld: []string{},
		Differences:  []Difference{},
	}

	if oldSet.Equal(newSet) {
		report.Same = true
		return report
	}

	for _, key := range oldSet.Keys() {
		newValue, ok := newSet[key]
		if !ok {
			report.MissingInNew = append(report.MissingInNew, key)
			continue
		}
		if oldValue := oldSet[key]; oldValue != newValue {
			report.Differences = append(report.Differences, Difference{Key: key, Side: SideNew, Old: oldValue, New: newValue})
		}
	}

	for _, key := range newSet.Keys() {
		oldValue, ok := oldSet[key]
		if !ok {
			report.MissingInOld = append(report.MissingInOld, key)
			continue
		}
		if newValue := newSet[key]; newValue != oldValue {
			report.Differences = append(report.Differences, Difference{Key: key, Side: SideOld, Old: oldValue, New: newValue})
		}
	}

	return report
}

// WriteTo prints the report in the order the passes found things.
func (r *Report) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	if r.Same {
		b.WriteString("Products are the same\n")
	} else {
		r.writePass(&b, SideNew, r.MissingInNew)
		r.writePass(&b, SideOld, r.MissingInOld)
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// writePass renders one pass. Missing keys and differences are interleaved by
// key order, as the pass walks keys once.
func (r *Report) writePass(b *strings.Builder, side Side, missing []string) {
	findings := make(map[string]string)
	var keys []string

	for _, key := range missing {
		findings[key] = fmt.Sprintf("Product %s is missing in %s algorithm\n", key, side)
		keys = append(keys, key)
	}
	for _, diff := range r.Differences {
		if diff.Side != side {
			continue
		}
		findings[diff.Key] = fmt.Sprintf("Product %s is different in %s algorithm\nOld value: %s\nNew value: %s\n%s\n",
			diff.Key, side, diff.Old, diff.New, separator)
		keys = append(keys, diff.Key)
	}

	sort.Strings(keys)
	for _, key := range keys {
		b.WriteString(findings[key])
	}
}

// Count returns the number of findings.
func (r *Report) Count() int {
	return len(r.MissingInNew) + len(r.MissingInOld) + len(r.Differences)
}
