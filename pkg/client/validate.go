package client

import (
	"fmt"
	"strings"
)

const maxCommentWords = 50

// FormError lists the fields that failed the local checks run before a call.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	return "client: invalid form: " + strings.Join(parts, "; ")
}

type formCheck map[string]string

func (f formCheck) require(field, value string) {
	if strings.TrimSpace(value) == "" {
		f[field] = "This field is required."
	}
}

func (f formCheck) err() error {
	if len(f) == 0 {
		return nil
	}
	return &FormError{Fields: f}
}

func (in RegisterInput) validate() error {
	f := formCheck{}
	f.require("username", in.Username)
	f.require("email", in.Email)
	f.require("password", in.Password)
	return f.err()
}

func (in RequestInput) validate() error {
	f := formCheck{}
	if in.DonationID <= 0 {
		f["donation"] = "This field is required."
	}
	switch {
	case in.RequestedQuantity < 1:
		f["requested_quantity"] = "Requested quantity must be at least 1."
	case in.Available > 0 && in.RequestedQuantity > in.Available:
		f["requested_quantity"] = fmt.Sprintf("Requested quantity cannot exceed %d.", in.Available)
	}
	if len(strings.Fields(in.Comments)) > maxCommentWords {
		f["comments"] = fmt.Sprintf("Comments cannot exceed %d words.", maxCommentWords)
	}
	return f.err()
}

func (in DonationInput) validateCreate() error {
	f := formCheck{}
	if in.ItemName == nil {
		f["item_name"] = "This field is required."
	} else {
		f.require("item_name", *in.ItemName)
	}
	if in.Category == nil {
		f["category"] = "This field is required."
	}
	if in.Quantity == nil || *in.Quantity < 1 {
		f["quantity"] = "Quantity must be at least 1."
	}
	return f.err()
}
