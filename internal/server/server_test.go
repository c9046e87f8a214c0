package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	authdomain "github.com/ThienHoan/Web-TramHuong-sub001/internal/auth/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/authorization"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/config"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/observability"
	productdomain "github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
	"github.com/ThienHoan/Web-TramHuong-sub001/internal/storage"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeAuthService struct {
	identities map[string]authdomain.Identity
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Identity, error) {
	_ = ctx
	identity, ok := f.identities[rawToken]
	if !ok {
		return nil, authdomain.ErrInvalidToken
	}
	return &identity, nil
}

type fakeProductService struct {
	listLocale   string
	listReq      productdomain.ListRequest
	listResp     *productdomain.ListResponse
	slugArg      string
	slugLocale   string
	item         *productdomain.Item
	createCaller productdomain.Caller
	createReq    productdomain.CreateRequest
	createImage  []byte
	createName   string
	updateID     string
	updateReq    productdomain.UpdateRequest
	updateImage  bool
	deleteID     string
	bulkReq      productdomain.BulkUpdateRequest
	exportLocale string
	exportReq    productdomain.ListRequest
	err          error
}

func (f *fakeProductService) List(ctx context.Context, locale string, req productdomain.ListRequest) (*productdomain.ListResponse, error) {
	_ = ctx
	f.listLocale = locale
	f.listReq = req
	if f.err != nil {
		return nil, f.err
	}
	if f.listResp != nil {
		return f.listResp, nil
	}
	return &productdomain.ListResponse{
		Data: []productdomain.Item{},
		Meta: productdomain.Pagination{Page: 1, Limit: 20, LastPage: 1},
	}, nil
}

func (f *fakeProductService) FindBySlug(ctx context.Context, slug string, locale string) (*productdomain.Item, error) {
	_ = ctx
	f.slugArg = slug
	f.slugLocale = locale
	return f.item, f.err
}

func (f *fakeProductService) FindByID(ctx context.Context, id string) (*productdomain.Item, error) {
	_ = ctx
	_ = id
	return f.item, f.err
}

func (f *fakeProductService) Create(ctx context.Context, caller productdomain.Caller, req productdomain.CreateRequest, image *productdomain.ImageFile) (*productdomain.Item, error) {
	_ = ctx
	f.createCaller = caller
	f.createReq = req
	if image == nil {
		return nil, productdomain.ErrImageRequired
	}
	f.createName = image.Filename
	body, err := io.ReadAll(image.Body)
	if err != nil {
		return nil, err
	}
	f.createImage = body
	if f.err != nil {
		return nil, f.err
	}
	return &productdomain.Item{ID: "1001", Slug: req.Slug, Price: req.Price, Images: []string{"https://cdn.test/" + image.Filename}}, nil
}

func (f *fakeProductService) Update(ctx context.Context, caller productdomain.Caller, id string, req productdomain.UpdateRequest, image *productdomain.ImageFile) (*productdomain.UpdateResponse, error) {
	_ = ctx
	_ = caller
	f.updateID = id
	f.updateReq = req
	f.updateImage = image != nil
	if f.err != nil {
		return nil, f.err
	}
	return &productdomain.UpdateResponse{Success: true}, nil
}

func (f *fakeProductService) SoftDelete(ctx context.Context, caller productdomain.Caller, id string) (*productdomain.UpdateResponse, error) {
	_ = ctx
	_ = caller
	f.deleteID = id
	if f.err != nil {
		return nil, f.err
	}
	return &productdomain.UpdateResponse{Success: true}, nil
}

func (f *fakeProductService) BulkUpdate(ctx context.Context, caller productdomain.Caller, req productdomain.BulkUpdateRequest) (*productdomain.BulkUpdateResponse, error) {
	_ = ctx
	_ = caller
	f.bulkReq = req
	if f.err != nil {
		return nil, f.err
	}
	if len(req.IDs) == 0 {
		return &productdomain.BulkUpdateResponse{Success: false, Message: "No products selected"}, nil
	}
	return &productdomain.BulkUpdateResponse{Success: true, Count: len(req.IDs)}, nil
}

func (f *fakeProductService) Export(ctx context.Context, locale string, req productdomain.ListRequest) (string, error) {
	_ = ctx
	f.exportLocale = locale
	f.exportReq = req
	if f.err != nil {
		return "", f.err
	}
	return "ID,Name\n1,\"Agarwood\"", nil
}

func newTestServer(t *testing.T, products *fakeProductService) *gin.Engine {
	t.Helper()
	return newTestServerWithStore(t, products, nil)
}

func newTestServerWithStore(t *testing.T, products *fakeProductService, store storage.ObjectStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	enforcer, err := authorization.NewEnforcer(nil)
	require.NoError(t, err)

	engine := NewEngine(observability.Config{Environment: "test"})
	NewServer(ServerParams{
		Gin: engine,
		Cfg: config.Config{Environment: "test"},
		Authsvc: &fakeAuthService{identities: map[string]authdomain.Identity{
			"admin-token":    {UserID: "u-admin", Role: authdomain.RoleAdmin},
			"staff-token":    {UserID: "u-staff", Role: authdomain.RoleStaff},
			"customer-token": {UserID: "u-cust", Role: authdomain.RoleCustomer},
		}},
		AuthzSvc:   authorization.NewService(authorization.Params{Log: zap.NewNop(), Enforcer: enforcer}),
		ProductSvc: products,
		Store:      store,
	})
	return engine
}

func doRequest(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{})
	rec := doRequest(engine, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListProductsPassesQuery(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	req := httptest.NewRequest(http.MethodGet, "/products?locale=fr&include_inactive=true&category=Incense&stock_status=low_stock&sort=price:asc&search=tram&page=2&limit=5", nil)
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, productdomain.LocaleEN, products.listLocale)
	assert.Equal(t, productdomain.ListRequest{
		IncludeInactive: true,
		Category:        "Incense",
		StockStatus:     "low_stock",
		Sort:            "price:asc",
		Search:          "tram",
		Page:            2,
		Limit:           5,
	}, products.listReq)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body, "data")
	assert.Contains(t, body, "meta")
}

func TestListProductsLenientNumbers(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	rec := doRequest(engine, httptest.NewRequest(http.MethodGet, "/products?locale=vi&page=abc&limit=&include_inactive=yes", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, productdomain.LocaleVI, products.listLocale)
	assert.Equal(t, 0, products.listReq.Page)
	assert.Equal(t, 0, products.listReq.Limit)
	assert.False(t, products.listReq.IncludeInactive)
}

func TestGetProductBySlug(t *testing.T) {
	products := &fakeProductService{item: &productdomain.Item{ID: "42", Slug: "tram-huong"}}
	engine := newTestServer(t, products)

	rec := doRequest(engine, httptest.NewRequest(http.MethodGet, "/products/tram-huong?locale=vi", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "tram-huong", products.slugArg)
	assert.Equal(t, productdomain.LocaleVI, products.slugLocale)
	assert.Contains(t, rec.Body.String(), `"slug":"tram-huong"`)
}

func TestGetProductBySlugNotFound(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{})

	rec := doRequest(engine, httptest.NewRequest(http.MethodGet, "/products/missing", nil))

	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Type)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{item: &productdomain.Item{ID: "42"}})

	rec := doRequest(engine, httptest.NewRequest(http.MethodGet, "/products/admin/42", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/products/admin/42", nil)
	req.Header.Set("Authorization", "Bearer unknown")
	rec = doRequest(engine, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRejectCustomer(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{item: &productdomain.Item{ID: "42"}})

	req := httptest.NewRequest(http.MethodGet, "/products/admin/42", nil)
	req.Header.Set("Authorization", "Bearer customer-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden", decodeError(t, rec).Type)
}

func TestGetProductByIDAsStaff(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{item: &productdomain.Item{ID: "42", IsActive: false}})

	req := httptest.NewRequest(http.MethodGet, "/products/admin/42", nil)
	req.Header.Set("Authorization", "Bearer staff-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"42"`)
}

func TestCreateProductMultipart(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	body, contentType := multipartBody(t, map[string]string{
		"title_en":       "Agarwood Bracelet",
		"description_en": "Hand carved",
		"title_vi":       "Vòng trầm",
		"description_vi": "Khắc tay",
		"price":          "150.50",
		"quantity":       "7",
		"category":       "Bracelet",
	}, "bracelet.png", []byte("png-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "u-admin", products.createCaller.UserID)
	assert.True(t, decimal.RequireFromString("150.50").Equal(products.createReq.Price))
	assert.Equal(t, 7, products.createReq.Quantity)
	assert.Equal(t, "Bracelet", products.createReq.Category)
	assert.Equal(t, "Agarwood Bracelet", products.createReq.EN.Title)
	assert.Equal(t, "Vòng trầm", products.createReq.VI.Title)
	assert.Equal(t, "bracelet.png", products.createName)
	assert.Equal(t, []byte("png-bytes"), products.createImage)
	assert.Contains(t, rec.Body.String(), `"data"`)
	assert.Contains(t, rec.Body.String(), `"price":150.5`)
}

func TestCreateProductWithoutImage(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{})

	body, contentType := multipartBody(t, map[string]string{
		"title_en": "Agarwood",
		"price":    "10",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer staff-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "image_required", payload.Errors[0].Code)
	assert.Equal(t, "image", payload.Errors[0].Field)
}

func TestCreateProductInvalidPrice(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	body, contentType := multipartBody(t, map[string]string{
		"title_en": "Agarwood",
		"price":    "cheap",
	}, "a.png", []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_price", decodeError(t, rec).Errors[0].Code)
	assert.Empty(t, products.createName)
}

func TestCreateProductSlugConflict(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{err: productdomain.ErrSlugConflict})

	body, contentType := multipartBody(t, map[string]string{
		"title_en": "Agarwood",
		"price":    "10",
	}, "a.png", []byte("x"))

	req := httptest.NewRequest(http.MethodPost, "/products", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestUpdateProductSparseFields(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	body, contentType := multipartBody(t, map[string]string{
		"quantity":  "0",
		"is_active": "false",
		"title_vi":  "Nhang trầm",
	}, "", nil)

	req := httptest.NewRequest(http.MethodPatch, "/products/1234", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, "1234", products.updateID)
	assert.False(t, products.updateImage)

	quantity, ok := products.updateReq.Quantity.Get()
	assert.True(t, ok)
	assert.Equal(t, 0, quantity)
	active, ok := products.updateReq.IsActive.Get()
	assert.True(t, ok)
	assert.False(t, active)
	assert.False(t, products.updateReq.Price.IsSet())
	assert.False(t, products.updateReq.Slug.IsSet())
	assert.False(t, products.updateReq.EN.Title.IsSet())
	title, ok := products.updateReq.VI.Title.Get()
	assert.True(t, ok)
	assert.Equal(t, "Nhang trầm", title)
	assert.False(t, products.updateReq.VI.Description.IsSet())
}

func TestUpdateProductInvalidActive(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	body, contentType := multipartBody(t, map[string]string{"is_active": "maybe"}, "", nil)
	req := httptest.NewRequest(http.MethodPatch, "/products/1234", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "invalid_is_active", payload.Errors[0].Code)
	assert.Equal(t, "is_active", payload.Errors[0].Field)
	assert.Empty(t, products.updateID)
}

func TestUpdateProductNotFound(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{err: productdomain.ErrNotFound})

	body, contentType := multipartBody(t, map[string]string{"price": "12"}, "", nil)
	req := httptest.NewRequest(http.MethodPatch, "/products/999", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer staff-token")
	rec := doRequest(engine, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProduct(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	req := httptest.NewRequest(http.MethodDelete, "/products/77", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "77", products.deleteID)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestBulkUpdateRoutesBeforeIDParam(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	req := httptest.NewRequest(http.MethodPatch, "/products/bulk/update", strings.NewReader(`{"ids":["1","2"],"action":"update_category","payload":{"category":"Incense"}}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer staff-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"count":2}`, rec.Body.String())
	assert.Equal(t, []string{"1", "2"}, products.bulkReq.IDs)
	require.NotNil(t, products.bulkReq.Payload)
	assert.Equal(t, "Incense", products.bulkReq.Payload.Category)
	assert.Empty(t, products.updateID)
}

func TestBulkUpdateEmptyIDs(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{})

	req := httptest.NewRequest(http.MethodPatch, "/products/bulk/update", strings.NewReader(`{"ids":[],"action":"archive"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"No products selected"}`, rec.Body.String())
}

func TestBulkUpdateInvalidJSON(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{})

	req := httptest.NewRequest(http.MethodPatch, "/products/bulk/update", strings.NewReader(`{"ids":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeError(t, rec).Errors[0].Code)
}

func TestBulkUpdateUnknownAction(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{err: productdomain.ErrInvalidBulkAction})

	req := httptest.NewRequest(http.MethodPatch, "/products/bulk/update", strings.NewReader(`{"ids":["1"],"action":"explode"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "invalid_bulk_action", payload.Errors[0].Code)
	assert.Equal(t, "action", payload.Errors[0].Field)
}

func TestExportProducts(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	req := httptest.NewRequest(http.MethodGet, "/products/data/export?locale=vi&category=Incense", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	rec := doRequest(engine, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, productdomain.LocaleVI, products.exportLocale)
	assert.Equal(t, "Incense", products.exportReq.Category)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ID,Name\n1,\"Agarwood\"", body["csv"])
}

func TestExportRejectsCustomer(t *testing.T) {
	products := &fakeProductService{}
	engine := newTestServer(t, products)

	req := httptest.NewRequest(http.MethodGet, "/products/data/export", nil)
	req.Header.Set("Authorization", "Bearer customer-token")
	rec := doRequest(engine, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, products.exportLocale)
}

func TestInternalErrorsAreMasked(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{err: io.ErrUnexpectedEOF})

	rec := doRequest(engine, httptest.NewRequest(http.MethodGet, "/products", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "internal_error", payload.Type)
	assert.NotContains(t, rec.Body.String(), "unexpected EOF")
}

func TestClassifyErrorForLog(t *testing.T) {
	errType, code := classifyErrorForLog(productdomain.ErrCategoryRequired)
	assert.Equal(t, "validation_error", errType)
	assert.Equal(t, "category_required", code)

	errType, code = classifyErrorForLog(authorization.ErrForbidden)
	assert.Equal(t, "forbidden", errType)
	assert.Equal(t, "forbidden", code)
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc")
	assert.True(t, ok)
	assert.Equal(t, "abc", token)

	token, ok = bearerToken("bearer   xyz ")
	assert.True(t, ok)
	assert.Equal(t, "xyz", token)

	_, ok = bearerToken("Basic abc")
	assert.False(t, ok)
	_, ok = bearerToken("Bearer")
	assert.False(t, ok)
}

func TestMemoryStoreObjectsAreServed(t *testing.T) {
	store := storage.NewMemoryStore("http://localhost:8080/storage/product-images")
	engine := newTestServerWithStore(t, &fakeProductService{}, store)

	objectURL, err := store.Upload(context.Background(), storage.Object{
		Key:         "1740816000000-vong tay.png",
		ContentType: "image/png",
		Body:        strings.NewReader("png-bytes"),
	})
	require.NoError(t, err)
	parsed, err := url.Parse(objectURL)
	require.NoError(t, err)

	rec := doRequest(engine, httptest.NewRequest(http.MethodGet, parsed.RequestURI(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "png-bytes", rec.Body.String())

	rec = doRequest(engine, httptest.NewRequest(http.MethodGet, "/storage/product-images/missing.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestObjectRouteAbsentWithoutMemoryStore(t *testing.T) {
	engine := newTestServer(t, &fakeProductService{})

	rec := doRequest(engine, httptest.NewRequest(http.MethodGet, "/storage/product-images/a.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
