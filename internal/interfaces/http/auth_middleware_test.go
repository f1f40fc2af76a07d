package http_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apphttp "github.com/jhoicas/stock-ledger/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/stock-ledger/pkg/jwt"
)

const (
	testJWTSecret = "test-secret-key-for-unit-tests"
	testUserID    = "00000000-0000-0000-0000-000000000001"
	testCompanyID = "00000000-0000-0000-0000-000000000002"
	testIssuer    = "stock-ledger-test"
)

func testSigner(t *testing.T) *pkgjwt.Signer {
	t.Helper()
	s, err := pkgjwt.NewSigner(testJWTSecret, testIssuer, time.Hour)
	require.NoError(t, err)
	return s
}

// buildTestApp app mínima: AuthMiddleware + RequireRole + handler que responde el rol.
func buildTestApp(t *testing.T, allowedRoles ...string) *fiber.App {
	app := fiber.New()
	app.Get("/protected",
		apphttp.AuthMiddleware(testSigner(t)),
		apphttp.RequireRole(allowedRoles...),
		func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"ok": true, "role": apphttp.GetRole(c)})
		},
	)
	return app
}

// tokenForRole genera un JWT válido con el rol indicado.
func tokenForRole(t *testing.T, role string) string {
	t.Helper()
	tok, err := testSigner(t).Sign(pkgjwt.Identity{UserID: testUserID, CompanyID: testCompanyID, Role: role})
	require.NoError(t, err)
	return "Bearer " + tok
}

func getProtected(t *testing.T, app *fiber.App, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func TestRequireRole_PermisosPorRol(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		role    string
		status  int
		code    string
	}{
		{"admin en ruta admin", []string{apphttp.RoleAdmin}, apphttp.RoleAdmin, http.StatusOK, ""},
		{"bodeguero en ruta de bodega", []string{apphttp.RoleAdmin, apphttp.RoleBodeguero}, apphttp.RoleBodeguero, http.StatusOK, ""},
		{"vendedor en ruta admin", []string{apphttp.RoleAdmin}, apphttp.RoleVendedor, http.StatusForbidden, "FORBIDDEN"},
		{"bodeguero en ruta de ventas", []string{apphttp.RoleAdmin, apphttp.RoleVendedor}, apphttp.RoleBodeguero, http.StatusForbidden, "FORBIDDEN"},
		{"token sin rol", []string{apphttp.RoleAdmin}, "", http.StatusUnauthorized, "MISSING_ROLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := getProtected(t, buildTestApp(t, tt.allowed...), tokenForRole(t, tt.role))
			defer resp.Body.Close()

			assert.Equal(t, tt.status, resp.StatusCode)
			body, _ := io.ReadAll(resp.Body)
			if tt.code != "" {
				assert.Contains(t, string(body), tt.code)
			} else {
				assert.Contains(t, string(body), `"role":"`+tt.role+`"`)
			}
		})
	}
}

func TestAuthMiddleware_HeaderInvalido_Retorna401(t *testing.T) {
	app := buildTestApp(t, apphttp.RoleAdmin)
	for name, header := range map[string]string{
		"sin header":     "",
		"sin Bearer":     "Token abc",
		"token vacío":    "Bearer ",
		"token inválido": "Bearer token.invalido.aqui",
	} {
		t.Run(name, func(t *testing.T) {
			resp := getProtected(t, app, header)
			defer resp.Body.Close()
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		})
	}
}

func TestAuthMiddleware_ExtraeClaims(t *testing.T) {
	app := fiber.New()
	app.Get("/me", apphttp.AuthMiddleware(testSigner(t)), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"user_id":    apphttp.GetUserID(c),
			"company_id": apphttp.GetCompanyID(c),
			"role":       apphttp.GetRole(c),
		})
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", tokenForRole(t, apphttp.RoleBodeguero))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, testUserID, body["user_id"])
	assert.Equal(t, testCompanyID, body["company_id"])
	assert.Equal(t, apphttp.RoleBodeguero, body["role"])
}

func TestAuthMiddleware_TokenExpirado_Retorna401(t *testing.T) {
	expired, err := testSigner(t).SignWithTTL(pkgjwt.Identity{UserID: testUserID, CompanyID: testCompanyID, Role: apphttp.RoleAdmin}, -time.Minute)
	require.NoError(t, err)

	resp := getProtected(t, buildTestApp(t, apphttp.RoleAdmin), "Bearer "+expired)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
