package main

import (
	"strings"

	"grant-intake/internal/forms"
)

// sample is a representative submission used to exercise a mapping table.
type sample struct {
	name    string
	payload forms.Payload
}

func text(n int) string {
	return strings.Repeat("x", n)
}

func withFields(base forms.Payload, extra forms.Payload) forms.Payload {
	out := forms.Payload{}
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func contactSample() forms.Payload {
	return forms.Payload{
		"firstName":          "Grace",
		"lastName":           "Hopper",
		"email":              "grace@example.org",
		"company":            "Compiler Co",
		"profileType":        "Individual",
		"country":            "US",
		"timezone":           "America/New_York",
		"alternativeContact": "@grace",
		"repeatApplicant":    true,
		"outreachConsent":    true,
		"captchaToken":       "contract-check",
	}
}

func overviewSample() forms.Payload {
	return forms.Payload{
		"projectName":    "Contract check",
		"projectSummary": text(600),
		"projectRepo":    "https://github.com/example/contract-check",
		"domain":         "Layer 2",
		"output":         "Software",
		"budgetRequest":  12500.5,
		"currency":       "USD",
	}
}

func detailsSample() forms.Payload {
	return forms.Payload{
		"projectStructure":   text(500),
		"sustainabilityPlan": text(500),
		"otherFunding":       text(500),
		"problemBeingSolved": text(500),
		"impactMeasurement":  text(500),
		"successMetrics":     text(500),
		"ecosystemFit":       text(500),
		"communityFeedback":  text(500),
		"openSourceLicense":  "MIT",
		"applicantProfile":   text(1000),
	}
}

// The file is never read; only its metadata reaches validation.
func pdfSample() *forms.FileUpload {
	return &forms.FileUpload{
		Filepath:         "/dev/null",
		OriginalFilename: "proposal.pdf",
		MimeType:         forms.PDFMimeType,
		Size:             1024,
	}
}

// samplesFor returns the submissions checked for ft. Office Hours has one
// sample per request type since each maps a different field set.
func samplesFor(ft forms.FormType) []sample {
	switch ft {
	case forms.FormTypeRFP:
		return []sample{{
			name: "rfp",
			payload: withFields(withFields(contactSample(), overviewSample()), forms.Payload{
				"referral":      "Newsletter",
				"selectedRFPId": "a0X000000000001",
				"fileUpload":    pdfSample(),
			}),
		}}
	case forms.FormTypeWishlist:
		return []sample{{
			name: "wishlist",
			payload: withFields(withFields(contactSample(), overviewSample()), withFields(detailsSample(), forms.Payload{
				"referral":           "Newsletter",
				"selectedWishlistId": "a0X000000000002",
				"fileUpload":         pdfSample(),
			})),
		}}
	case forms.FormTypeDirectGrant:
		return []sample{{
			name: "direct-grant",
			payload: withFields(withFields(contactSample(), overviewSample()), withFields(detailsSample(), forms.Payload{
				"referral": "Conference",
			})),
		}}
	case forms.FormTypeOfficeHours:
		return []sample{
			{
				name: "office-hours/advice",
				payload: withFields(contactSample(), forms.Payload{
					"officeHoursRequest": forms.OfficeHoursAdvice,
					"officeHoursReason":  "Scoping a grant proposal",
				}),
			},
			{
				name: "office-hours/project-feedback",
				payload: withFields(contactSample(), forms.Payload{
					"officeHoursRequest": forms.OfficeHoursProjectFeedback,
					"officeHoursReason":  "Review of a working prototype",
					"projectName":        "Contract check",
					"projectSummary":     "A prototype rollup explorer",
					"projectRepo":        "https://github.com/example/contract-check",
					"domain":             "Layer 2",
					"additionalInfo":     "Demo available",
				}),
			},
		}
	default:
		return nil
	}
}
