package scenario

import (
	"testing"

	"github.com/forgewave/bombard/internal/model"
)

func TestValidateTargetsAcceptsPublicHTTPSTarget(t *testing.T) {
	requests := []model.RequestTemplate{
		{Name: "login", URL: "https://api.example.com/login"},
	}
	if err := ValidateTargets(requests, false); err != nil {
		t.Fatalf("ValidateTargets returned error for a public target: %v", err)
	}
}

func TestValidateTargetsRejectsLoopbackByDefault(t *testing.T) {
	requests := []model.RequestTemplate{
		{Name: "login", URL: "http://127.0.0.1:8080/login"},
	}
	if err := ValidateTargets(requests, false); err == nil {
		t.Fatal("expected error for a loopback target with allowPrivateTargets=false")
	}
}

func TestValidateTargetsAllowsLoopbackWhenPermitted(t *testing.T) {
	requests := []model.RequestTemplate{
		{Name: "login", URL: "http://127.0.0.1:8080/login"},
	}
	if err := ValidateTargets(requests, true); err != nil {
		t.Fatalf("ValidateTargets returned error with allowPrivateTargets=true: %v", err)
	}
}

func TestValidateTargetsSkipsTemplatedURLs(t *testing.T) {
	requests := []model.RequestTemplate{
		{Name: "login", URL: "https://{{host}}/login"},
	}
	if err := ValidateTargets(requests, false); err != nil {
		t.Fatalf("ValidateTargets should skip templated URLs, got error: %v", err)
	}
}
