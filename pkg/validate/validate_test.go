package validate_test

import (
	"testing"

	"github.com/mmartin-estofados/storefront/pkg/validate"
)

type productInput struct {
	ID       string   `json:"id"       validate:"required,slug,max=120"`
	Name     string   `json:"name"     validate:"required,min=2"`
	Price    float64  `json:"price"    validate:"required,gt=0"`
	Status   string   `json:"status"   validate:"nullable,in=pending|paid|cancelled"`
	Rating   int      `json:"rating"   validate:"required,between=1,5"`
	Email    string   `json:"email"    validate:"nullable,email"`
	Original *float64 `json:"original" validate:"nullable,gte=0"`
	Images   []string `json:"images"   validate:"max=3"`
}

func validProduct() productInput {
	return productInput{
		ID:     "sofa-retratil-3-lugares",
		Name:   "Sofá Retrátil",
		Price:  2499.90,
		Rating: 4,
	}
}

func TestValidInput(t *testing.T) {
	if errs := validate.Struct(validProduct()); validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(productInput{})
	for _, field := range []string{"id", "name", "price", "rating"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected %s to be required", field)
		}
	}
	if _, ok := errs["status"]; ok {
		t.Error("nullable status should not fail when empty")
	}
}

func TestSlugRule(t *testing.T) {
	in := validProduct()
	in.ID = "Sofa Retratil"
	if _, ok := validate.Struct(in)["id"]; !ok {
		t.Error("expected slug validation error")
	}
}

func TestBetweenRule(t *testing.T) {
	for _, rating := range []int{0, 6, -1} {
		in := validProduct()
		in.Rating = rating
		if _, ok := validate.Struct(in)["rating"]; !ok {
			t.Errorf("rating %d: expected error", rating)
		}
	}
	for _, rating := range []int{1, 3, 5} {
		in := validProduct()
		in.Rating = rating
		if errs := validate.Struct(in); validate.HasErrors(errs) {
			t.Errorf("rating %d: unexpected errors %v", rating, errs)
		}
	}
}

func TestInRule(t *testing.T) {
	in := validProduct()
	in.Status = "shipped-to-mars"
	if _, ok := validate.Struct(in)["status"]; !ok {
		t.Error("expected in-rule failure")
	}
	in.Status = "paid"
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		t.Errorf("unexpected errors: %v", errs)
	}
}

func TestPointerAndSliceRules(t *testing.T) {
	neg := -10.0
	in := validProduct()
	in.Original = &neg
	in.Images = []string{"a", "b", "c", "d"}

	errs := validate.Struct(&in)
	if _, ok := errs["original"]; !ok {
		t.Error("expected gte failure on pointer field")
	}
	if _, ok := errs["images"]; !ok {
		t.Error("expected max failure on slice length")
	}
}

func TestEmailRule(t *testing.T) {
	in := validProduct()
	in.Email = "not-an-email"
	if _, ok := validate.Struct(in)["email"]; !ok {
		t.Error("expected email validation error")
	}
	in.Email = "cliente@mmartin.com.br"
	if errs := validate.Struct(in); validate.HasErrors(errs) {
		t.Errorf("unexpected errors: %v", errs)
	}
}
