package http_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoaugment/pos-api/internal/application/dto"
	"github.com/khoaugment/pos-api/internal/domain/entity"
)

const adminID = "5e6f7a8b-9c0d-4e1f-8a2b-3c4d5e6f7a8b"

func TestProductCatalog_HTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodPost, "/api/categories", managerID, entity.RoleManager,
		dto.CreateCategoryRequest{Name: "Đồ uống"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cat := decode[dto.CategoryResponse](t, resp)

	resp = ts.do(t, http.MethodPost, "/api/products", managerID, entity.RoleManager, dto.CreateProductRequest{
		SKU: "BM-01", Name: "Bánh mì", Price: decimal.NewFromInt(20000), CostPrice: decimal.NewFromInt(8000),
		InitialStock: 7, MinStock: 2, CategoryID: &cat.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[dto.ProductResponse](t, resp)
	assert.Equal(t, int64(7), created.Stock)
	assert.False(t, created.LowStock)

	t.Run("sku duplicado", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/products", managerID, entity.RoleManager, dto.CreateProductRequest{
			SKU: "CF-01", Name: "Otro", Price: decimal.NewFromInt(1),
		})
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
		assert.Equal(t, "DUPLICATE", decode[dto.ErrorResponse](t, resp).Code)
	})

	t.Run("cajero no puede crear", func(t *testing.T) {
		resp := ts.do(t, http.MethodPost, "/api/products", cashierID, entity.RoleCashier, dto.CreateProductRequest{
			SKU: "X-01", Name: "X",
		})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("filtro por categoria", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/products?category_id=1", cashierID, entity.RoleCashier, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		list := decode[dto.ProductListResponse](t, resp)
		require.Len(t, list.Items, 1)
		assert.Equal(t, "BM-01", list.Items[0].SKU)
		assert.Equal(t, 1, list.Page.Total)
	})

	t.Run("actualizar no toca el stock", func(t *testing.T) {
		name := "Bánh mì thịt"
		resp := ts.do(t, http.MethodPut, "/api/products/"+strconv.FormatInt(created.ID, 10), managerID, entity.RoleManager,
			dto.UpdateProductRequest{Name: &name})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		out := decode[dto.ProductResponse](t, resp)
		assert.Equal(t, name, out.Name)
		assert.Equal(t, int64(7), out.Stock)
	})

	t.Run("desactivar oculta del listado", func(t *testing.T) {
		resp := ts.do(t, http.MethodDelete, "/api/products/"+strconv.FormatInt(created.ID, 10), managerID, entity.RoleManager, nil)
		require.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp = ts.do(t, http.MethodGet, "/api/products", cashierID, entity.RoleCashier, nil)
		list := decode[dto.ProductListResponse](t, resp)
		assert.Equal(t, 2, list.Page.Total)

		resp = ts.do(t, http.MethodGet, "/api/products/"+strconv.FormatInt(created.ID, 10), cashierID, entity.RoleCashier, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.False(t, decode[dto.ProductResponse](t, resp).Active)
	})

	t.Run("inexistente", func(t *testing.T) {
		resp := ts.do(t, http.MethodGet, "/api/products/999", cashierID, entity.RoleCashier, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		resp = ts.do(t, http.MethodGet, "/api/products/abc", cashierID, entity.RoleCashier, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestUsers_HTTP(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.do(t, http.MethodGet, "/api/users", managerID, entity.RoleManager, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/users?limit=10", adminID, entity.RoleAdmin, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]dto.UserResponse](t, resp), 2)

	resp = ts.do(t, http.MethodPatch, "/api/users/"+cashierID+"/role", adminID, entity.RoleAdmin,
		dto.UpdateRoleRequest{Role: entity.RoleManager})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entity.RoleManager, decode[dto.UserResponse](t, resp).Role)

	resp = ts.do(t, http.MethodPatch, "/api/users/"+cashierID+"/role", adminID, entity.RoleAdmin,
		map[string]string{"role": "owner"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = ts.do(t, http.MethodPatch, "/api/users/no-existe/role", adminID, entity.RoleAdmin,
		dto.UpdateRoleRequest{Role: entity.RoleCashier})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
