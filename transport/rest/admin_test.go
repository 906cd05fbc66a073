package rest

import (
	"context"
	"errors"
	"io/ioutil"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/hairlens/hairlens"
	"github.com/hairlens/hairlens/mock"
	"github.com/stretchr/testify/assert"
)

func TestAdminCleanup(t *testing.T) {
	assert := assert.New(t)

	calls := 0
	sessions := mock.SessionService{
		CleanupExpiredFn: func(ctx context.Context) (hairlens.CleanupResult, error) {
			calls++
			return hairlens.CleanupResult{DeletedCount: 3}, nil
		},
	}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	controller := AdminController{Sessions: sessions, AdminKey: "s3cret"}
	controller.InstallTo(app)

	cases := []struct {
		key        string
		returnCode int
		returnBody string
	}{
		{key: "", returnCode: fiber.StatusUnauthorized,
			returnBody: JsonErrorMessageResponse("Unauthorized")},
		{key: "s3cre", returnCode: fiber.StatusUnauthorized,
			returnBody: JsonErrorMessageResponse("Unauthorized")},
		{key: "s3cret", returnCode: fiber.StatusOK,
			returnBody: `{"deletedCount":3}`},
	}
	for _, c := range cases {
		req := httptest.NewRequest("POST", "/admin/sessions/cleanup", nil)
		if c.key != "" {
			req.Header.Set(HeaderAdminKey, c.key)
		}
		resp, err := app.Test(req)
		if !assert.NoError(err, c.key) {
			continue
		}
		body, err := ioutil.ReadAll(resp.Body)
		assert.NoError(err, c.key)
		assert.Equal(c.returnCode, resp.StatusCode, c.key)
		assert.Equal(c.returnBody, string(body), c.key)
	}
	assert.Equal(1, calls)
}

func TestAdminCleanupDisabled(t *testing.T) {
	assert := assert.New(t)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	controller := AdminController{Sessions: mock.SessionService{}}
	controller.InstallTo(app)

	req := httptest.NewRequest("POST", "/admin/sessions/cleanup", nil)
	req.Header.Set(HeaderAdminKey, "")
	resp, err := app.Test(req)
	if !assert.NoError(err) {
		return
	}
	assert.Equal(fiber.StatusNotFound, resp.StatusCode)
}

func TestAdminCleanupFailure(t *testing.T) {
	assert := assert.New(t)

	sessions := mock.SessionService{
		CleanupExpiredFn: func(ctx context.Context) (hairlens.CleanupResult, error) {
			return hairlens.CleanupResult{}, errors.New("connection refused")
		},
	}
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	controller := AdminController{Sessions: sessions, AdminKey: "s3cret"}
	controller.InstallTo(app)

	req := httptest.NewRequest("POST", "/admin/sessions/cleanup", nil)
	req.Header.Set(HeaderAdminKey, "s3cret")
	resp, err := app.Test(req)
	if !assert.NoError(err) {
		return
	}
	body, err := ioutil.ReadAll(resp.Body)
	assert.NoError(err)
	assert.Equal(fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(JsonErrorMessageResponse("Internal Server Error"), string(body))
}
