package handlers_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	html "github.com/gofiber/template/html/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tillpoint/internal/config"
	"tillpoint/internal/http/handlers"
	"tillpoint/internal/repos"
	"tillpoint/internal/services"
)

func newApp(t *testing.T) (*fiber.App, *sqlx.DB) {
	t.Helper()
	db, err := repos.OpenDB(":memory:", true)
	require.NoError(t, err)

	userRepo := repos.NewUserRepo(db)
	bizRepo := repos.NewBusinessRepo(db)
	authSvc := &services.AuthService{Users: userRepo, Businesses: bizRepo}

	engine := html.New("../../web/templates", ".html")
	app := fiber.New(fiber.Config{Views: engine})

	deps := handlers.NewDeps(db, config.Config{SaleRollback: config.RollbackKeep}, authSvc)

	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)

	sell := app.Group("/", handlers.RequireUser(authSvc))
	sell.Get("/sell", deps.SellHandler.Screen)
	sell.Post("/cart", deps.SellHandler.AddToCart)
	sell.Post("/cart/qty", deps.SellHandler.SetQty)
	sell.Post("/cart/remove", deps.SellHandler.RemoveLine)
	sell.Post("/sale", deps.SellHandler.Commit)
	sell.Get("/sale/:id", deps.SellHandler.Receipt)

	api := app.Group("/api/v1", handlers.RequireUser(authSvc))
	api.Get("/scan", deps.SellHandler.Scan)

	return app, db
}

func sidCookie(resp *http.Response) string {
	for _, c := range resp.Cookies() {
		if c.Name == "sid" {
			return c.Value
		}
	}
	return ""
}

func login(t *testing.T, app *fiber.App) string {
	t.Helper()
	form := strings.NewReader("username=vendor&pin=5678")
	req := httptest.NewRequest("POST", "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	sid := sidCookie(resp)
	require.NotEmpty(t, sid)
	return sid
}

func postForm(t *testing.T, app *fiber.App, sid, path string, form url.Values) *http.Response {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestSellRequiresLogin(t *testing.T) {
	app, _ := newApp(t)

	resp, err := app.Test(httptest.NewRequest("GET", "/sell", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
}

func TestAddToCartAndCommit(t *testing.T) {
	app, db := newApp(t)
	sid := login(t, app)

	// add 2x Cola (seeded stock 24)
	resp := postForm(t, app, sid, "/cart", url.Values{"productId": {"p-cola"}, "qty": {"2"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)

	// the sell screen shows the cart line
	req := httptest.NewRequest("GET", "/sell", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	page, err := app.Test(req)
	require.NoError(t, err)
	body, _ := io.ReadAll(page.Body)
	assert.Contains(t, string(body), "Cola 500ml")
	assert.Contains(t, string(body), "Confirm sale")

	// commit
	resp = postForm(t, app, sid, "/sale", url.Values{})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	loc := resp.Header.Get("Location")
	require.True(t, strings.HasPrefix(loc, "/sale/"), "expected receipt redirect, got %s", loc)

	// stock decremented 24 -> 22, one ledger row written
	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM products WHERE id='p-cola'`))
	assert.Equal(t, 22, stock)
	var total float64
	require.NoError(t, db.Get(&total, `SELECT total FROM sales WHERE id=?`, strings.TrimPrefix(loc, "/sale/")))
	assert.Equal(t, 200.0, total)

	// receipt renders
	req = httptest.NewRequest("GET", loc, nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	page, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, page.StatusCode)
}

func TestCommitEmptyCartRedirectsWithError(t *testing.T) {
	app, db := newApp(t)
	sid := login(t, app)

	resp := postForm(t, app, sid, "/sale", url.Values{})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "err=")

	var n int
	require.NoError(t, db.Get(&n, `SELECT COUNT(*) FROM sales`))
	assert.Equal(t, 0, n)
}

func TestAddOverStockRejected(t *testing.T) {
	app, db := newApp(t)
	sid := login(t, app)

	// p-choc has stock 8; asking for 9 must bounce
	resp := postForm(t, app, sid, "/cart", url.Values{"productId": {"p-choc"}, "qty": {"9"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Location"), "err=")

	// nothing was written
	var stock int
	require.NoError(t, db.Get(&stock, `SELECT stock FROM products WHERE id='p-choc'`))
	assert.Equal(t, 8, stock)
}

func TestLogoutDropsCart(t *testing.T) {
	app, _ := newApp(t)
	sid := login(t, app)

	resp := postForm(t, app, sid, "/cart", url.Values{"productId": {"p-cola"}, "qty": {"1"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp = postForm(t, app, sid, "/logout", url.Values{})
	require.Equal(t, http.StatusFound, resp.StatusCode)

	// the same browser signs back in with its old sid; the cart must be gone
	form := strings.NewReader("username=vendor&pin=5678")
	req := httptest.NewRequest("POST", "/login", form)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	back, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusFound, back.StatusCode)

	reqSell := httptest.NewRequest("GET", "/sell", nil)
	reqSell.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	page, err := app.Test(reqSell)
	require.NoError(t, err)
	body, _ := io.ReadAll(page.Body)
	assert.NotContains(t, string(body), "Confirm sale")
}

func TestScanLookup(t *testing.T) {
	app, _ := newApp(t)
	sid := login(t, app)

	req := httptest.NewRequest("GET", "/api/v1/scan?code=7790001000019", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "Cola 500ml")

	req = httptest.NewRequest("GET", "/api/v1/scan?code=0000000000000", nil)
	req.AddCookie(&http.Cookie{Name: "sid", Value: sid})
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
