package salesforce

import (
	"fmt"
	"strings"
)

// SaveResult is the response to a record create.
type SaveResult struct {
	ID      string     `json:"id"`
	Success bool       `json:"success"`
	Errors  []APIError `json:"errors"`
}

// APIError is one entry of a Salesforce REST error body.
type APIError struct {
	ErrorCode string   `json:"errorCode"`
	Message   string   `json:"message"`
	Fields    []string `json:"fields,omitempty"`
}

// Error describes a rejected request.
type Error struct {
	Operation  string
	StatusCode int
	Errors     []APIError
}

func (e *Error) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("salesforce %s failed with status %d", e.Operation, e.StatusCode)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, ae := range e.Errors {
		msg := ae.ErrorCode + ": " + ae.Message
		if len(ae.Fields) > 0 {
			msg += " [" + strings.Join(ae.Fields, ", ") + "]"
		}
		parts = append(parts, msg)
	}
	return fmt.Sprintf("salesforce %s failed with status %d: %s", e.Operation, e.StatusCode, strings.Join(parts, "; "))
}

// File is an attachment already on local disk.
type File struct {
	Path     string
	Filename string
}

// UploadResult is returned after the ContentVersion is created and linked.
type UploadResult struct {
	Success           bool   `json:"success"`
	ContentVersionID  string `json:"contentVersionId"`
	ContentDocumentID string `json:"contentDocumentId"`
}

// ObjectMetadata is the part of a describe response the contract checks use.
type ObjectMetadata struct {
	Name   string          `json:"name"`
	Label  string          `json:"label"`
	Fields []FieldMetadata `json:"fields"`
}

type FieldMetadata struct {
	Name              string          `json:"name"`
	Label             string          `json:"label"`
	Type              string          `json:"type"`
	Length            int             `json:"length"`
	Nillable          bool            `json:"nillable"`
	Createable        bool            `json:"createable"`
	Updateable        bool            `json:"updateable"`
	DefaultedOnCreate bool            `json:"defaultedOnCreate"`
	PicklistValues    []PicklistValue `json:"picklistValues"`
}

type PicklistValue struct {
	Value  string `json:"value"`
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// Field returns the metadata for name, if the object declares it.
func (m *ObjectMetadata) Field(name string) (FieldMetadata, bool) {
	for _, f := range m.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldMetadata{}, false
}
