package server

import (
	"errors"
	"net/http"
	"strings"

	productdomain "github.com/ThienHoan/Web-TramHuong-sub001/internal/product/domain"
	"github.com/gin-gonic/gin"
)

type listProductsQuery struct {
	Locale          string `form:"locale"`
	IncludeInactive string `form:"include_inactive"`
	Category        string `form:"category"`
	StockStatus     string `form:"stock_status"`
	Sort            string `form:"sort"`
	Search          string `form:"search"`
	Page            string `form:"page"`
	Limit           string `form:"limit"`
}

func (q listProductsQuery) request() productdomain.ListRequest {
	return productdomain.ListRequest{
		IncludeInactive: parseFlag(q.IncludeInactive),
		Category:        strings.TrimSpace(q.Category),
		StockStatus:     strings.TrimSpace(q.StockStatus),
		Sort:            strings.TrimSpace(q.Sort),
		Search:          q.Search,
		Page:            parseIntOrZero(q.Page),
		Limit:           parseIntOrZero(q.Limit),
	}
}

func (s *Server) ListProducts(c *gin.Context) {
	var query listProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.List(c.Request.Context(), productdomain.NormalizeLocale(query.Locale), query.request())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetProductBySlug(c *gin.Context) {
	locale := productdomain.NormalizeLocale(c.Query("locale"))
	item, err := s.productSvc.FindBySlug(c.Request.Context(), c.Param("slug"), locale)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if item == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) GetProductByID(c *gin.Context) {
	item, err := s.productSvc.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if item == nil {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) CreateProduct(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	price, err := parseOptionalDecimal(c.PostForm("price"))
	if err != nil || price == nil {
		AbortWithError(c, productdomain.ErrInvalidPrice)
		return
	}
	quantity, err := parseOptionalInt(c.PostForm("quantity"))
	if err != nil {
		AbortWithError(c, productdomain.ErrInvalidQuantity)
		return
	}

	req := productdomain.CreateRequest{
		Slug:     strings.TrimSpace(c.PostForm("slug")),
		Price:    *price,
		Category: strings.TrimSpace(c.PostForm("category")),
		Style:    strings.TrimSpace(c.PostForm("style")),
		EN: productdomain.TranslationInput{
			Title:       c.PostForm("title_en"),
			Description: c.PostForm("description_en"),
		},
		VI: productdomain.TranslationInput{
			Title:       c.PostForm("title_vi"),
			Description: c.PostForm("description_vi"),
		},
	}
	if quantity != nil {
		req.Quantity = *quantity
	}

	image, closeImage, err := imageFromForm(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer closeImage()

	item, err := s.productSvc.Create(c.Request.Context(), caller, req, image)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": item})
}

func (s *Server) UpdateProduct(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	req, err := updateRequestFromForm(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	image, closeImage, err := imageFromForm(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	defer closeImage()

	resp, err := s.productSvc.Update(c.Request.Context(), caller, c.Param("id"), req, image)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) DeleteProduct(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	resp, err := s.productSvc.SoftDelete(c.Request.Context(), caller, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) BulkUpdateProducts(c *gin.Context) {
	caller, ok := callerFromContext(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req productdomain.BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.productSvc.BulkUpdate(c.Request.Context(), caller, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) ExportProducts(c *gin.Context) {
	var query listProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	csv, err := s.productSvc.Export(c.Request.Context(), productdomain.NormalizeLocale(query.Locale), query.request())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"csv": csv})
}

// updateRequestFromForm only sets the fields present in the form. Blank price
// and quantity values count as absent.
func updateRequestFromForm(c *gin.Context) (productdomain.UpdateRequest, error) {
	var req productdomain.UpdateRequest

	if v, ok := c.GetPostForm("slug"); ok {
		req.Slug = productdomain.Some(strings.TrimSpace(v))
	}
	if v, ok := c.GetPostForm("price"); ok {
		price, err := parseOptionalDecimal(v)
		if err != nil {
			return req, productdomain.ErrInvalidPrice
		}
		if price != nil {
			req.Price = productdomain.Some(*price)
		}
	}
	if v, ok := c.GetPostForm("quantity"); ok {
		quantity, err := parseOptionalInt(v)
		if err != nil {
			return req, productdomain.ErrInvalidQuantity
		}
		if quantity != nil {
			req.Quantity = productdomain.Some(*quantity)
		}
	}
	if v, ok := c.GetPostForm("category"); ok {
		req.Category = productdomain.Some(strings.TrimSpace(v))
	}
	if v, ok := c.GetPostForm("style"); ok {
		req.Style = productdomain.Some(strings.TrimSpace(v))
	}
	if v, ok := c.GetPostForm("is_active"); ok {
		active, err := parseOptionalBool(v)
		if err != nil {
			return req, productdomain.ErrInvalidActive
		}
		if active != nil {
			req.IsActive = productdomain.Some(*active)
		}
	}

	req.EN = translationPatchFromForm(c, "en")
	req.VI = translationPatchFromForm(c, "vi")
	return req, nil
}

func translationPatchFromForm(c *gin.Context, locale string) productdomain.TranslationPatch {
	var patch productdomain.TranslationPatch
	if v, ok := c.GetPostForm("title_" + locale); ok {
		patch.Title = productdomain.Some(v)
	}
	if v, ok := c.GetPostForm("description_" + locale); ok {
		patch.Description = productdomain.Some(v)
	}
	return patch
}

// imageFromForm returns a nil image when no file part was sent.
func imageFromForm(c *gin.Context) (*productdomain.ImageFile, func(), error) {
	noop := func() {}

	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, invalidRequestError()
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, invalidRequestError()
	}

	return &productdomain.ImageFile{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	}, func() { _ = file.Close() }, nil
}
