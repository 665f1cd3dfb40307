package http_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoaugment/pos-api/internal/application/dto"
	"github.com/khoaugment/pos-api/internal/domain/entity"
)

func (ts *testServer) public(t *testing.T, path, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestRegister_SiempreCreaCajero(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.public(t, "/api/auth/register", `{"email":"x@evil.vn","password":"secreto123","role":"admin"}`)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, entity.RoleCashier, decode[dto.UserResponse](t, resp).Role)

	resp = ts.public(t, "/api/auth/login", `{"email":"x@evil.vn","password":"secreto123"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	login := decode[dto.LoginResponse](t, resp)
	assert.Equal(t, entity.RoleCashier, login.User.Role)

	req := httptest.NewRequest(http.MethodPut, "/api/inventory/stock", strings.NewReader(`{"product_id":1,"new_stock":0}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+login.Token)
	put, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer put.Body.Close()
	assert.Equal(t, http.StatusForbidden, put.StatusCode)
	assert.Equal(t, int64(10), ts.stock(t, 1))
}
