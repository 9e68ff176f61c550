package http

import (
	"errors"
	"strings"
	"testing"
)

func TestPrincipalValidation(t *testing.T) {
	type P struct {
		Account string `validate:"principal"`
	}
	cv := NewValidator()

	for _, s := range []string{
		"G" + strings.Repeat("A", 55),
		"C" + strings.Repeat("7", 55),
	} {
		if err := cv.Validate(P{Account: s}); err != nil {
			t.Fatalf("expected valid principal %q, got err: %v", s, err)
		}
	}

	for _, s := range []string{
		"",                             // empty
		"G" + strings.Repeat("a", 55),  // lowercase
		"G" + strings.Repeat("A", 20),  // too short
		"0x" + strings.Repeat("f", 40), // not a strkey
		"G" + strings.Repeat("8", 55),  // 8 is outside base32
	} {
		err := cv.Validate(P{Account: s})
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "Account", "valid account address") {
			t.Fatalf("expected principal message for %q, got: %+v", s, fe)
		}
	}
}

func TestCIDValidation(t *testing.T) {
	type P struct {
		CID string `validate:"cid"`
	}
	cv := NewValidator()

	for _, s := range []string{
		"",
		"QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
		"bafybeigdyrzt5sfp7udm7hu76uh7y26nf3efuylqabf3oclgtqy55fbzdi",
	} {
		if err := cv.Validate(P{CID: s}); err != nil {
			t.Fatalf("expected valid cid %q, got %v", s, err)
		}
	}
	for _, s := range []string{"not-a-cid", "Qm123", "bafy!"} {
		err := cv.Validate(P{CID: s})
		if err == nil {
			t.Fatalf("expected cid error for %q", s)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "CID", "IPFS CID") {
			t.Fatalf("expected cid message for %q, got: %+v", s, fe)
		}
	}
}

func TestToFieldErrors_Messages(t *testing.T) {
	type P struct {
		Name   string `validate:"required"`
		Amount int64  `validate:"gt=0"`
		Fee    int64  `validate:"gte=0"`
		Title  string `validate:"max=3"`
		URL    string `validate:"omitempty,url"`
		Email  string `validate:"omitempty,email"`
	}
	cv := NewValidator()
	err := cv.Validate(P{Amount: 0, Fee: -1, Title: "toolong", URL: "nope", Email: "nope"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	fe := ToFieldErrors(err)

	for _, want := range []struct{ field, msg string }{
		{"Name", "is required"},
		{"Amount", "greater than 0"},
		{"Fee", "greater than or equal to 0"},
		{"Title", "at most 3 characters"},
		{"URL", "must be a URL"},
		{"Email", "email validation failed"},
	} {
		if !containsFieldMsg(fe, want.field, want.msg) {
			t.Errorf("missing %s: %q in %+v", want.field, want.msg, fe)
		}
	}
}

func TestToFieldErrors_NonValidatorError(t *testing.T) {
	fe := ToFieldErrors(errors.New("boom"))
	if len(fe) != 1 || fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected: %+v", fe)
	}
}
