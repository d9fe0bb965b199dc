package http_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

// findOpenAPISpec locates the openapi.yaml file by walking up from the test directory.
func findOpenAPISpec(t *testing.T) string {
	dir, _ := os.Getwd()
	for i := 0; i < 5; i++ {
		candidate := filepath.Join(dir, "api", "openapi.yaml")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		dir = filepath.Dir(dir)
	}

	t.Fatalf("could not find api/openapi.yaml")
	return ""
}

// TestOpenAPISpec validates the OpenAPI specification is valid.
func TestOpenAPISpec(t *testing.T) {
	specPath := findOpenAPISpec(t)
	data, err := os.ReadFile(specPath)
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}

	if err := spec.Validate(context.Background()); err != nil {
		t.Fatalf("OpenAPI spec validation failed: %v", err)
	}

	expectedPaths := []string{
		"/v1/health",
		"/v1/ready",
		"/v1/crossings",
		"/v1/crossings/rings",
		"/v1/crossings.kml",
		"/v1/sweep/config",
		"/v1/roads/stats",
		"/graphql",
	}

	for _, path := range expectedPaths {
		if item := spec.Paths.Find(path); item == nil {
			t.Errorf("expected path %s not found in spec", path)
		}
	}

	expectedSchemas := []string{
		"Pair",
		"GeoPoint",
		"CoordinateRequest",
		"PointsResponse",
		"Ring",
		"RingsResponse",
		"SweepConfig",
		"RoadStats",
		"APIError",
	}

	for _, schema := range expectedSchemas {
		if spec.Components.Schemas[schema] == nil {
			t.Errorf("expected schema %s not found", schema)
		}
	}

	t.Logf("OpenAPI spec valid: %d paths, %d schemas", len(spec.Paths.Map()), len(spec.Components.Schemas))
}

// TestOpenAPIInfo verifies spec metadata.
func TestOpenAPIInfo(t *testing.T) {
	specPath := findOpenAPISpec(t)
	data, err := os.ReadFile(specPath)
	if err != nil {
		t.Fatalf("failed to read openapi.yaml: %v", err)
	}

	loader := &openapi3.Loader{IsExternalRefsAllowed: false}
	spec, err := loader.LoadFromData(data)
	if err != nil {
		t.Fatalf("failed to parse OpenAPI spec: %v", err)
	}

	if spec.Info.Title != "Curbside Crossing API" {
		t.Errorf("expected title 'Curbside Crossing API', got %q", spec.Info.Title)
	}

	if spec.Info.Version != "1.0.0" {
		t.Errorf("expected version 1.0.0, got %q", spec.Info.Version)
	}

	if spec.Info.Description == "" {
		t.Error("expected non-empty description")
	}

	if len(spec.Servers) == 0 {
		t.Error("expected at least one server")
	}

	t.Logf("OpenAPI Info: %s v%s @ %s", spec.Info.Title, spec.Info.Version, spec.Servers[0].URL)
}

// TestOpenAPI_PointsResponseMatchesHandler validates a live /v1/crossings
// response body against the PointsResponse schema.
func TestOpenAPI_PointsResponseMatchesHandler(t *testing.T) {
	data, err := os.ReadFile(findOpenAPISpec(t))
	if err != nil {
		t.Fatal(err)
	}
	spec, err := (&openapi3.Loader{}).LoadFromData(data)
	if err != nil {
		t.Fatal(err)
	}

	app := setupApp(makeDeps(nil))
	resp, err := app.Test(httptest.NewRequest("GET", crossingsURL("/v1/crossings", sanFrancisco), nil), -1)
	if err != nil {
		t.Fatal(err)
	}

	var body interface{}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	schema := spec.Components.Schemas["PointsResponse"].Value
	if err := schema.VisitJSON(body); err != nil {
		t.Errorf("response does not match PointsResponse: %v", err)
	}

	var apiErr interface{}
	resp, _ = app.Test(httptest.NewRequest("GET", "/v1/crossings?lat=x&lon=0", nil), -1)
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
		t.Fatal(err)
	}
	if err := spec.Components.Schemas["APIError"].Value.VisitJSON(apiErr); err != nil {
		t.Errorf("error body does not match APIError: %v", err)
	}
}
