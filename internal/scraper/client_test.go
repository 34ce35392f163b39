package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Baaaki/procurehub/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_MakeModelForwardsRequest(t *testing.T) {
	// Arrange
	var gotPath string
	var gotBody map[string]interface{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"make":"Dell","model":"XPS 13"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL+"/", time.Second)

	// Act
	out, err := client.MakeModel(context.Background(), "electronics", MakeModelRequest{ItemName: "laptop", Seller: "Dell"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/scrape-make-model/electronics", gotPath)
	assert.Equal(t, "laptop", gotBody["item_name"])
	assert.Equal(t, "Dell", gotBody["seller"])
	assert.NotContains(t, gotBody, "model")
	assert.JSONEq(t, `{"make":"Dell","model":"XPS 13"}`, string(out))
}

func TestClient_SpecsForwardsSpecifications(t *testing.T) {
	var gotBody SpecsRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scrape-specs/medical", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`[{"weight":"2kg"}]`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, time.Second)
	out, err := client.Specs(context.Background(), "medical", SpecsRequest{
		ItemName:       "stethoscope",
		Specifications: []map[string]string{{"weight": ""}},
	})

	require.NoError(t, err)
	assert.Equal(t, "stethoscope", gotBody.ItemName)
	assert.Len(t, gotBody.Specifications, 1)
	assert.JSONEq(t, `[{"weight":"2kg"}]`, string(out))
}

func TestClient_RejectsBadInput(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)

	_, err := client.MakeModel(context.Background(), "toys", MakeModelRequest{ItemName: "ball"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = client.Specs(context.Background(), "medical", SpecsRequest{ItemName: "  "})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, http.StatusBadRequest, apperr.StatusCode(err))
}

func TestClient_RelaysUpstreamStatus(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"No results for item"}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, time.Second)
	_, err := client.MakeModel(context.Background(), "construction", MakeModelRequest{ItemName: "brick"})

	appErr, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusUnprocessableEntity, appErr.HTTPStatus())
	assert.Equal(t, "No results for item", appErr.Message)
}

func TestClient_TransportFailureIs502(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	client := NewClient(url, time.Second)
	_, err := client.MakeModel(context.Background(), "electronics", MakeModelRequest{ItemName: "phone"})

	assert.True(t, apperr.IsKind(err, apperr.KindUnavailable))
	assert.Equal(t, http.StatusBadGateway, apperr.StatusCode(err))
}

func TestClient_ServiceProvidersForwardsCleanedServices(t *testing.T) {
	// Arrange
	var gotPath string
	var gotBody map[string]interface{}
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"status":"success","total_results":5,"results":[]}`))
	}))
	defer upstream.Close()

	client := NewClient(upstream.URL, time.Second)

	// Act
	out, err := client.ServiceProviders(context.Background(), "electrical", ServiceProvidersRequest{
		Location:    " Pune ",
		Services:    []string{"Generator servicing", "  ", ""},
		ServiceType: "civil",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "/scrape-service-providers/electrical", gotPath)
	assert.Equal(t, "Pune", gotBody["location"])
	assert.Equal(t, []interface{}{"Generator servicing"}, gotBody["services"])
	assert.Equal(t, "electrical", gotBody["service_type"])
	assert.JSONEq(t, `{"status":"success","total_results":5,"results":[]}`, string(out))
}

func TestClient_ServiceProvidersValidation(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", time.Second)

	testCases := []struct {
		name        string
		serviceType string
		services    []string
		message     string
	}{
		{"unknown_type", "plumbing", []string{"Pipe repair"}, "Invalid service type. Must be one of: medical, electrical, civil"},
		{"product_category_is_not_a_service_type", "electronics", []string{"Repair"}, "Invalid service type. Must be one of: medical, electrical, civil"},
		{"no_services", "medical", nil, "Please add at least one service description"},
		{"blank_services", "civil", []string{" ", ""}, "Please add at least one service description"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.ServiceProviders(context.Background(), tc.serviceType, ServiceProvidersRequest{Services: tc.services})

			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, apperr.KindValidation, appErr.Kind)
			assert.Equal(t, tc.message, appErr.Message)
		})
	}
}

func TestUpstreamDetail(t *testing.T) {
	assert.Equal(t, "nope", upstreamDetail([]byte(`{"detail":"nope"}`), 400))
	assert.Equal(t, `[{"loc":["body"]}]`, upstreamDetail([]byte(`{"detail":[{"loc":["body"]}]}`), 422))
	assert.Equal(t, "Scraping service returned status 500", upstreamDetail([]byte(`oops`), 500))
}
