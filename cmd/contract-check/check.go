package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"grant-intake/internal/forms"
	"grant-intake/internal/salesforce"
)

// formReport collects the contract problems found for one form type.
// Violations is keyed by sample name.
type formReport struct {
	FormType    forms.FormType
	FieldIssues []string
	Violations  map[string][]string
}

func (r formReport) ok() bool {
	if len(r.FieldIssues) > 0 {
		return false
	}
	for _, v := range r.Violations {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

type checker struct {
	cache      *salesforce.MetadataCache
	objectType string
}

func (c *checker) run(ctx context.Context, formTypes []forms.FormType) ([]formReport, error) {
	meta, err := c.cache.Get(ctx, c.objectType)
	if err != nil {
		return nil, fmt.Errorf("describe %s: %w", c.objectType, err)
	}

	reports := make([]formReport, 0, len(formTypes))
	for _, ft := range formTypes {
		report := formReport{
			FormType:    ft,
			FieldIssues: salesforce.CheckFields(meta, forms.CRMFields(ft)),
			Violations:  map[string][]string{},
		}

		for _, s := range samplesFor(ft) {
			record, err := sampleRecord(ft, s)
			if err != nil {
				return nil, err
			}
			violations, err := salesforce.ValidateRecord(meta, record)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", s.name, err)
			}
			report.Violations[s.name] = violations
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func sampleRecord(ft forms.FormType, s sample) (forms.Record, error) {
	sub, result, err := forms.Validate(s.payload, ft)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}
	if !result.Valid {
		return nil, fmt.Errorf("%s: sample does not validate: %s", s.name, strings.Join(result.GetErrorMessages(), "; "))
	}
	return forms.BuildApplicationRecord(sub)
}

// printReports writes a human readable summary and reports whether every
// form passed.
func printReports(w io.Writer, objectType string, reports []formReport) bool {
	passed := true
	for _, r := range reports {
		status := "ok"
		if !r.ok() {
			status = "FAIL"
			passed = false
		}
		fmt.Fprintf(w, "%-14s %s\n", r.FormType, status)

		for _, issue := range r.FieldIssues {
			fmt.Fprintf(w, "  field  %s\n", issue)
		}

		names := make([]string, 0, len(r.Violations))
		for name := range r.Violations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			for _, v := range r.Violations[name] {
				fmt.Fprintf(w, "  %s  %s\n", name, v)
			}
		}
	}

	if passed {
		fmt.Fprintf(w, "\nall mappings match %s\n", objectType)
	}
	return passed
}
