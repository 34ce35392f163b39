package handler_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/Baaaki/procurehub/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

// CatalogHandlerIntegrationTestSuite covers /api/shop, /api/product,
// /api/scrapedata and the static routes.
type CatalogHandlerIntegrationTestSuite struct {
	apiSuite
}

func (s *CatalogHandlerIntegrationTestSuite) multipartRequest(method, path string, fields map[string]string, filename string, content []byte) *httptest.ResponseRecorder {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for k, v := range fields {
		s.Require().NoError(writer.WriteField(k, v))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		s.Require().NoError(err)
		_, err = part.Write(content)
		s.Require().NoError(err)
	}
	s.Require().NoError(writer.Close())

	req, _ := http.NewRequest(method, path, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *CatalogHandlerIntegrationTestSuite) TestCreateShopSuccess() {
	retailer := testutil.DefaultRetailer(s.T(), s.testDB.DB)

	w := s.doJSON(http.MethodPost, "/api/shop/create-shop", map[string]interface{}{
		"name":            "Corner Supplies",
		"address":         "12 High Street",
		"phoneNumber":     "555-0100",
		"zipCode":         "560001",
		"selectedService": "Electronics",
		"socialMedia":     map[string]string{"facebook": "corner"},
		"userId":          retailer.ID.String(),
	})

	assert.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	response := testutil.DecodeJSON(s.T(), w.Body.Bytes())
	assert.Equal(s.T(), true, response["success"])
	assert.Equal(s.T(), "Shop created successfully", response["message"])
	assert.NotEmpty(s.T(), response["token"])

	shop := response["shop"].(map[string]interface{})
	assert.Equal(s.T(), "Corner Supplies", shop["name"])
	assert.Equal(s.T(), retailer.ID.String(), shop["userId"])
	assert.Equal(s.T(), "corner", shop["socialMedia"].(map[string]interface{})["facebook"])
	assert.NotEmpty(s.T(), shop["id"])
}

func (s *CatalogHandlerIntegrationTestSuite) TestCreateShopFailures() {
	customer := testutil.DefaultCustomer(s.T(), s.testDB.DB)
	body := map[string]interface{}{
		"name":        "Nope",
		"address":     "1 Road",
		"phoneNumber": "555",
		"userId":      customer.ID.String(),
	}

	w := s.doJSON(http.MethodPost, "/api/shop/create-shop", body)
	s.assertError(w, http.StatusForbidden, "Only retailers can create shops")

	body["userId"] = uuid.NewString()
	w = s.doJSON(http.MethodPost, "/api/shop/create-shop", body)
	s.assertError(w, http.StatusNotFound, "User not found")

	delete(body, "name")
	w = s.doJSON(http.MethodPost, "/api/shop/create-shop", body)
	s.assertError(w, http.StatusBadRequest, "Name, address, phone number, and user ID are required")
}

func (s *CatalogHandlerIntegrationTestSuite) TestGetShopInfo() {
	retailer := testutil.DefaultRetailer(s.T(), s.testDB.DB)
	testutil.CreateTestShop(s.T(), s.testDB.DB, "Owned", retailer)

	w := s.doJSON(http.MethodGet, "/api/shop/get-shop-info/"+retailer.ID.String(), nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	shop := testutil.DecodeJSON(s.T(), w.Body.Bytes())["shop"].(map[string]interface{})
	assert.Equal(s.T(), "Owned", shop["name"])
	assert.Equal(s.T(), "retailer", shop["owner"].(map[string]interface{})["username"])

	w = s.doJSON(http.MethodGet, "/api/shop/get-shop-info/"+uuid.NewString(), nil)
	s.assertError(w, http.StatusNotFound, "No shop found for this user.")
}

func (s *CatalogHandlerIntegrationTestSuite) TestCreateProductJSONWithNumbers() {
	shop := testutil.CreateTestShop(s.T(), s.testDB.DB, "Hardware", nil)

	w := s.doJSON(http.MethodPost, "/api/product/create-product", map[string]interface{}{
		"name":          "Hammer",
		"description":   "Steel claw hammer",
		"category":      "Construction",
		"originalPrice": nil,
		"discountPrice": 12.5,
		"stock":         7,
		"shopId":        shop.ID.String(),
	})

	assert.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	response := testutil.DecodeJSON(s.T(), w.Body.Bytes())
	assert.Equal(s.T(), "Product created successfully!", response["message"])
	product := response["product"].(map[string]interface{})
	assert.Equal(s.T(), 12.5, product["discountPrice"])
	assert.Nil(s.T(), product["originalPrice"])
	assert.Equal(s.T(), float64(7), product["stock"])
	assert.Equal(s.T(), shop.ID.String(), product["shopId"])
}

func (s *CatalogHandlerIntegrationTestSuite) TestCreateProductMultipartWithImage() {
	user := testutil.DefaultRetailer(s.T(), s.testDB.DB)

	w := s.multipartRequest(http.MethodPost, "/api/product/create-product", map[string]string{
		"name":          "Thermometer",
		"description":   "Digital thermometer",
		"category":      "Medical",
		"originalPrice": "30",
		"discountPrice": "25",
		"stock":         "4",
		"userId":        user.ID.String(),
	}, "thermo.png", []byte("fake-png"))

	assert.Equal(s.T(), http.StatusCreated, w.Code, w.Body.String())
	product := testutil.DecodeJSON(s.T(), w.Body.Bytes())["product"].(map[string]interface{})
	assert.Equal(s.T(), "thermo.png", product["image"])

	data, err := os.ReadFile(filepath.Join(s.uploadDir, "products", "thermo.png"))
	s.Require().NoError(err)
	assert.Equal(s.T(), "fake-png", string(data))

	// served statically
	static := s.doJSON(http.MethodGet, "/uploads/products/thermo.png", nil)
	assert.Equal(s.T(), http.StatusOK, static.Code)
	assert.Equal(s.T(), "fake-png", static.Body.String())

	// the user's default shop was provisioned exactly once
	assert.Equal(s.T(), int64(1), testutil.CountShopsForUser(s.T(), s.testDB.DB, user.ID))
}

func (s *CatalogHandlerIntegrationTestSuite) TestCreateProductValidation() {
	w := s.doJSON(http.MethodPost, "/api/product/create-product", map[string]interface{}{
		"name":          "Mask",
		"description":   "N95",
		"category":      "Medical",
		"originalPrice": 5,
		"discountPrice": 10,
	})
	s.assertError(w, http.StatusBadRequest, "originalPrice must be greater than or equal to discountPrice")

	w = s.doJSON(http.MethodPost, "/api/product/create-product", map[string]interface{}{
		"name":     "Mask",
		"category": "Medical",
	})
	s.assertError(w, http.StatusBadRequest, "Missing required fields: name, description, category, and discountPrice are required")

	w = s.doJSON(http.MethodPost, "/api/product/create-product", map[string]interface{}{
		"name":          "Mask",
		"description":   "N95",
		"category":      "Medical",
		"discountPrice": 10,
		"shopId":        uuid.NewString(),
	})
	s.assertError(w, http.StatusBadRequest, "Shop not found")
}

func (s *CatalogHandlerIntegrationTestSuite) TestProductLifecycle() {
	shop := testutil.CreateTestShop(s.T(), s.testDB.DB, "Gadgets", nil)
	product := testutil.CreateTestProduct(s.T(), s.testDB.DB, shop, "Phone", "phone.png")
	testutil.CreateTestProduct(s.T(), s.testDB.DB, shop, "Tablet", "")

	// Update keeps the image when none is uploaded
	w := s.multipartRequest(http.MethodPut, "/api/product/update-product/"+product.ID.String(), map[string]string{
		"name":          "Phone Pro",
		"description":   "Flagship",
		"category":      "Electronics",
		"discountPrice": "899",
		"originalPrice": "999",
	}, "", nil)
	assert.Equal(s.T(), http.StatusOK, w.Code, w.Body.String())
	response := testutil.DecodeJSON(s.T(), w.Body.Bytes())
	assert.Equal(s.T(), "Product updated successfully!", response["message"])
	updated := response["product"].(map[string]interface{})
	assert.Equal(s.T(), "Phone Pro", updated["name"])
	assert.Equal(s.T(), "phone.png", updated["image"])

	// Get includes the shop summary
	w = s.doJSON(http.MethodGet, "/api/product/get-product/"+product.ID.String(), nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	got := testutil.DecodeJSON(s.T(), w.Body.Bytes())["product"].(map[string]interface{})
	assert.Equal(s.T(), "Phone Pro", got["name"])
	assert.Equal(s.T(), "Gadgets", got["shop"].(map[string]interface{})["name"])

	// Shop listing
	w = s.doJSON(http.MethodGet, "/api/product/shop-products/"+shop.ID.String(), nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	list := testutil.DecodeJSON(s.T(), w.Body.Bytes())
	assert.Equal(s.T(), float64(2), list["count"])
	assert.Len(s.T(), list["products"], 2)

	// Delete returns the record, then 404
	w = s.doJSON(http.MethodDelete, "/api/product/delete-product/"+product.ID.String(), nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	deleted := testutil.DecodeJSON(s.T(), w.Body.Bytes())
	assert.Equal(s.T(), "Product deleted successfully.", deleted["message"])
	assert.Equal(s.T(), product.ID.String(), deleted["product"].(map[string]interface{})["id"])

	w = s.doJSON(http.MethodDelete, "/api/product/delete-product/"+product.ID.String(), nil)
	s.assertError(w, http.StatusNotFound, "Product not found.")
}

func (s *CatalogHandlerIntegrationTestSuite) TestProductNotFoundPaths() {
	w := s.doJSON(http.MethodGet, "/api/product/get-product/not-an-id", nil)
	s.assertError(w, http.StatusNotFound, "Product not found.")

	w = s.doJSON(http.MethodPut, "/api/product/update-product/"+uuid.NewString(), map[string]interface{}{
		"name":          "X",
		"description":   "Y",
		"category":      "Other",
		"discountPrice": "1",
	})
	s.assertError(w, http.StatusNotFound, "Product not found")

	w = s.doJSON(http.MethodGet, "/api/product/shop-products/"+uuid.NewString(), nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	list := testutil.DecodeJSON(s.T(), w.Body.Bytes())
	assert.Equal(s.T(), float64(0), list["count"])
	assert.Equal(s.T(), []interface{}{}, list["products"])
}

func (s *CatalogHandlerIntegrationTestSuite) TestScraperProxy() {
	w := s.doJSON(http.MethodPost, "/api/scrapedata/make-model/electronics", map[string]string{"item_name": "laptop"})
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.JSONEq(s.T(), `{"path":"/scrape-make-model/electronics"}`, w.Body.String())

	w = s.doJSON(http.MethodPost, "/api/scrapedata/specs/medical", map[string]interface{}{
		"item_name":      "stethoscope",
		"specifications": []map[string]string{{"weight": ""}},
	})
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.JSONEq(s.T(), `{"path":"/scrape-specs/medical"}`, w.Body.String())

	w = s.doJSON(http.MethodPost, "/api/scrapedata/specs/toys", map[string]string{"item_name": "ball"})
	s.assertError(w, http.StatusBadRequest, "Invalid category. Must be one of: electronics, medical, construction")
}

func (s *CatalogHandlerIntegrationTestSuite) TestScraperServiceProviders() {
	w := s.doJSON(http.MethodPost, "/api/scrapedata/service-providers/civil", map[string]interface{}{
		"location": "Bangalore",
		"services": []string{"Structural repair"},
	})
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.JSONEq(s.T(), `{"path":"/scrape-service-providers/civil"}`, w.Body.String())

	w = s.doJSON(http.MethodPost, "/api/scrapedata/service-providers/plumbing", map[string]interface{}{
		"services": []string{"Pipe repair"},
	})
	s.assertError(w, http.StatusBadRequest, "Invalid service type. Must be one of: medical, electrical, civil")

	w = s.doJSON(http.MethodPost, "/api/scrapedata/service-providers/medical", map[string]interface{}{
		"location": "Delhi",
		"services": []string{" "},
	})
	s.assertError(w, http.StatusBadRequest, "Please add at least one service description")
}

func (s *CatalogHandlerIntegrationTestSuite) TestHealthAndUnknownRoutes() {
	w := s.doJSON(http.MethodGet, "/health", nil)
	assert.Equal(s.T(), http.StatusOK, w.Code)
	assert.Equal(s.T(), "ok", testutil.DecodeJSON(s.T(), w.Body.Bytes())["status"])

	w = s.doJSON(http.MethodGet, "/api/does-not-exist", nil)
	s.assertError(w, http.StatusNotFound, "Not Found")
}

func (s *CatalogHandlerIntegrationTestSuite) TestResponsesCarryRequestID() {
	w := s.doJSON(http.MethodGet, "/health", nil)
	_, err := uuid.Parse(w.Header().Get("X-Request-ID"))
	assert.NoError(s.T(), err)
}

func TestCatalogHandlerIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(CatalogHandlerIntegrationTestSuite))
}
