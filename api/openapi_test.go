package api_test

import (
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromFile("openapi.yml")
	if err != nil {
		t.Fatalf("failed to load openapi.yml: %v", err)
	}

	if err := doc.Validate(loader.Context); err != nil {
		t.Fatalf("openapi.yml is not a valid OpenAPI 3 document: %v", err)
	}

	for _, path := range []string{
		"/payment/create-payment",
		"/payment/webhook",
		"/transactions",
		"/transaction-status/{custom_order_id}",
	} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("expected path %s in openapi.yml", path)
		}
	}
}
