package controllers

import (
	"net/http/httptest"
	"testing"

	beecontext "github.com/beego/beego/v2/server/web/context"
	"github.com/stretchr/testify/assert"
)

func newTestController(headers map[string]string) *BaseController {
	req := httptest.NewRequest("POST", "/api/conversations/conv_1/messages", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	ctx := beecontext.NewContext()
	ctx.Reset(httptest.NewRecorder(), req)

	c := &BaseController{}
	c.Ctx = ctx
	return c
}

func TestGetClientIP_ForwardedForTakesFirstHop(t *testing.T) {
	c := newTestController(map[string]string{
		"X-Forwarded-For": "203.0.113.7, 10.0.0.1, 10.0.0.2",
	})
	assert.Equal(t, "203.0.113.7", c.getClientIP())
}

func TestGetClientIP_RealIPFallback(t *testing.T) {
	c := newTestController(map[string]string{
		"X-Real-IP": "198.51.100.4",
	})
	assert.Equal(t, "198.51.100.4", c.getClientIP())
}

func TestGetClientIP_RemoteAddrFallback(t *testing.T) {
	c := newTestController(nil)
	// httptest固定RemoteAddr为192.0.2.1:1234
	assert.Equal(t, "192.0.2.1", c.getClientIP())
}
