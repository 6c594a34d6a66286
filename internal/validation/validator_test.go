package validation

import (
	"errors"
	"strings"
	"testing"

	"oriani/internal/models"
)

func TestStructAlbumInput(t *testing.T) {
	tests := []struct {
		name      string
		in        models.AlbumInput
		wantField string
		wantTag   string
	}{
		{"valid", models.AlbumInput{Name: "A", Category: "Elétrica"}, "", ""},
		{"drywall category", models.AlbumInput{Name: "A", Category: "Alvenaria e Drywall"}, "", ""},
		{"missing name", models.AlbumInput{Category: "Pintura"}, "name", "required"},
		{"unknown category", models.AlbumInput{Name: "A", Category: "Jardinagem"}, "category", "category"},
		{"long name", models.AlbumInput{Name: strings.Repeat("x", 201), Category: "Pintura"}, "name", "max"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(&tt.in)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Struct() error = %v", err)
				}
				return
			}
			var verr *Error
			if !errors.As(err, &verr) {
				t.Fatalf("Struct() error = %v, want *Error", err)
			}
			if !errors.Is(err, models.ErrValidation) {
				t.Error("error does not wrap ErrValidation")
			}
			if len(verr.Fields) != 1 || verr.Fields[0].Field != tt.wantField || verr.Fields[0].Tag != tt.wantTag {
				t.Errorf("Fields = %+v, want %s/%s", verr.Fields, tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestStructLoginRequest(t *testing.T) {
	err := Struct(&models.LoginRequest{Email: "not-an-email", Password: ""})
	var verr *Error
	if !errors.As(err, &verr) {
		t.Fatalf("Struct() error = %v, want *Error", err)
	}
	if len(verr.Fields) != 2 {
		t.Fatalf("got %d field errors, want 2: %v", len(verr.Fields), verr)
	}
	if !strings.Contains(verr.Error(), "email must be a valid email address") {
		t.Errorf("Error() = %q", verr.Error())
	}
}
