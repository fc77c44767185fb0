package forms

import "strings"

func longText(n int) string {
	return strings.Repeat("a", n)
}

func strPtr(s string) *string {
	return &s
}

func merge(parts ...Payload) Payload {
	out := Payload{}
	for _, p := range parts {
		for k, v := range p {
			out[k] = v
		}
	}
	return out
}

func contactPayload() Payload {
	return Payload{
		"firstName":    "John",
		"lastName":     "Doe",
		"email":        "john@example.org",
		"company":      "",
		"profileType":  "Individual",
		"country":      "US",
		"timezone":     "America/New_York",
		"captchaToken": "turnstile-token",
	}
}

func overviewPayload() Payload {
	return Payload{
		"projectName":    "Light client",
		"projectSummary": longText(600),
		"projectRepo":    "https://github.com/example/light-client",
		"domain":         "Layer 2",
		"output":         "Software",
		"budgetRequest":  "5000",
		"currency":       "USD",
	}
}

func detailsPayload() Payload {
	return Payload{
		"projectStructure":   longText(500),
		"sustainabilityPlan": longText(500),
		"otherFunding":       longText(500),
		"problemBeingSolved": longText(500),
		"impactMeasurement":  longText(500),
		"successMetrics":     longText(500),
		"ecosystemFit":       longText(500),
		"communityFeedback":  longText(500),
		"openSourceLicense":  "MIT",
		"applicantProfile":   longText(2000),
	}
}

func pdf() *FileUpload {
	return &FileUpload{
		Filepath:         "/tmp/upload-123",
		OriginalFilename: "proposal.pdf",
		MimeType:         PDFMimeType,
		Size:             1024,
	}
}

func rfpPayload() Payload {
	return merge(contactPayload(), overviewPayload(), Payload{
		"referral":      "Newsletter",
		"selectedRFPId": "rfp-1",
	})
}

func wishlistPayload() Payload {
	return merge(contactPayload(), overviewPayload(), detailsPayload(), Payload{
		"selectedWishlistId": "wish-7",
		"fileUpload":         pdf(),
	})
}

func directGrantPayload() Payload {
	return merge(contactPayload(), overviewPayload(), detailsPayload(), Payload{
		"referral": "Conference",
	})
}

func adviceContact() ContactFields {
	return ContactFields{
		FirstName:   "Sarah",
		LastName:    "Connor",
		Email:       "sarah@example.org",
		ProfileType: "Individual",
		Country:     "US",
		Timezone:    "America/Los_Angeles",
	}
}

func officeHoursPayload(request string) Payload {
	return merge(contactPayload(), Payload{
		"officeHoursRequest": request,
		"officeHoursReason":  "Looking for guidance on client diversity work",
	})
}
