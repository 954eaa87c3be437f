package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/angelmondragon/residence-portal/pkg/enums"
	pkgerrors "github.com/angelmondragon/residence-portal/pkg/errors"
	"github.com/angelmondragon/residence-portal/pkg/session"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func newTestClient(t *testing.T, rt roundTripFunc, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithHTTPClient(&http.Client{Transport: rt})}, opts...)
	client, err := NewClient("http://backend.test/", opts...)
	require.NoError(t, err)
	return client
}

func authedContext(token string) context.Context {
	ctx := session.WithSessionID(context.Background(), "sid-1")
	return session.WithCredential(ctx, &session.Credential{SessionID: "sid-1", Token: token})
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient("  ")
	require.Error(t, err)
}

func TestListBeveragesSendsBearerAndDecodes(t *testing.T) {
	var capturedURL, capturedAuth string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		capturedURL = req.URL.String()
		capturedAuth = req.Header.Get("Authorization")
		return jsonResponse(http.StatusOK, `{"success":true,"data":[{"id":"b1","name":"Lemonade","category":"Non-Alcoholic","price":5,"isAvailable":true},{"id":"b2","name":"Lager","category":"Alcoholic","price":"8.50","isAvailable":false}]}`), nil
	})

	beverages, err := client.ListBeverages(authedContext("tok-123"))
	require.NoError(t, err)
	assert.Equal(t, "http://backend.test/api/rooftop/beverages", capturedURL)
	assert.Equal(t, "Bearer tok-123", capturedAuth)
	require.Len(t, beverages, 2)
	assert.True(t, beverages[0].Price.Equal(decimal.NewFromInt(5)))
	assert.Equal(t, enums.BeverageCategoryAlcoholic, beverages[1].Category)
	assert.False(t, beverages[1].IsAvailable)
	assert.True(t, beverages[1].Price.Equal(decimal.RequireFromString("8.5")))
}

func TestNoTokenSendsNoAuthorizationHeader(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		if req.Header.Get("Authorization") != "" {
			t.Fatalf("unexpected authorization header")
		}
		return jsonResponse(http.StatusOK, `{"success":true,"data":[]}`), nil
	})
	beverages, err := client.ListBeverages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, beverages)
}

func TestAddCartItemPostsBody(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/api/rooftop/cart/items", req.URL.Path)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "b1", body["beverageId"])
		assert.Equal(t, float64(1), body["quantity"])
		return jsonResponse(http.StatusOK, `{"success":true,"data":{"id":"c1","items":[{"id":"i1","beverageId":"b1","beverage":{"id":"b1","name":"Lemonade","category":"Non-Alcoholic"},"quantity":1,"unitPrice":"5.00","totalPrice":"5.00"}],"totalAmount":"5.00","status":"active"}}`), nil
	})

	cart, err := client.AddCartItem(authedContext("tok"), "b1", 1)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, "Lemonade", cart.Items[0].DisplayName())
	assert.Equal(t, 1, cart.QuantityOf("b1"))
	assert.Equal(t, enums.CartStatusActive, cart.Status)
}

func TestMutationsValidateBeforeCalling(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		t.Fatalf("no request expected")
		return nil, nil
	})
	ctx := authedContext("tok")

	_, err := client.AddCartItem(ctx, "b1", 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = client.UpdateCartItem(ctx, "i1", 0)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = client.RemoveCartItem(ctx, " ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = client.Login(ctx, LoginRequest{Email: "", Password: "x"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateAndRemoveUseItemPath(t *testing.T) {
	var seen []string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		seen = append(seen, req.Method+" "+req.URL.Path)
		return jsonResponse(http.StatusOK, `{"success":true,"data":{"id":"c1","items":[],"totalAmount":0}}`), nil
	})
	ctx := authedContext("tok")
	_, err := client.UpdateCartItem(ctx, "i1", 3)
	require.NoError(t, err)
	cart, err := client.RemoveCartItem(ctx, "i1")
	require.NoError(t, err)
	assert.True(t, cart.Empty())
	assert.Equal(t, []string{"PUT /api/rooftop/cart/items/i1", "DELETE /api/rooftop/cart/items/i1"}, seen)
}

func TestStatusMappingAndRemoteMessage(t *testing.T) {
	cases := []struct {
		status int
		body   string
		code   pkgerrors.Code
		msg    string
	}{
		{http.StatusBadRequest, `{"success":false,"message":"Quantity too large"}`, pkgerrors.CodeValidation, "Quantity too large"},
		{http.StatusForbidden, `{"success":false,"message":"Not a tenant"}`, pkgerrors.CodeForbidden, "Not a tenant"},
		{http.StatusNotFound, `{"success":false}`, pkgerrors.CodeNotFound, "fallback"},
		{http.StatusConflict, `{"success":false,"message":"Beverage unavailable"}`, pkgerrors.CodeConflict, "Beverage unavailable"},
		{http.StatusBadGateway, `<html>bad gateway</html>`, pkgerrors.CodeDependency, "fallback"},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(*http.Request) (*http.Response, error) {
			return jsonResponse(tc.status, tc.body), nil
		})
		_, err := client.GetCart(authedContext("tok"))
		require.Error(t, err)
		assert.True(t, pkgerrors.IsCode(err, tc.code), "status %d: got %v", tc.status, err)
		assert.Equal(t, tc.msg, pkgerrors.UserMessage(err, "fallback"))
	}
}

func TestSuccessFalseOn200IsAnError(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"success":false,"message":"Cart is empty"}`), nil
	})
	_, err := client.Checkout(authedContext("tok"))
	require.Error(t, err)
	assert.Equal(t, "Cart is empty", pkgerrors.UserMessage(err, "x"))
}

func TestTransportFailure(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return nil, errors.New("connection refused")
	})
	_, err := client.GetCart(authedContext("tok"))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeTransport))
	assert.Equal(t, "Failed to load cart", pkgerrors.UserMessage(err, "Failed to load cart"))
}

func TestUnauthorizedExpiresSessionOncePerRequest(t *testing.T) {
	bus := session.NewBus()
	var events int32
	var lastSession string
	require.NoError(t, bus.Subscribe(func(_ context.Context, evt session.Event) {
		atomic.AddInt32(&events, 1)
		lastSession = evt.SessionID
	}))
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"success":false,"message":"Token expired"}`), nil
	}, WithSessionBus(bus))

	ctx := session.WithGuard(authedContext("tok"), session.NewGuard("sid-1", "/rooftop/beverages", "/login"))
	_, err := client.ListBeverages(ctx)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	_, err = client.GetCart(ctx)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
	assert.Equal(t, int32(1), atomic.LoadInt32(&events))
	assert.Equal(t, "sid-1", lastSession)

	next := session.WithGuard(authedContext("tok"), session.NewGuard("sid-1", "/rooftop/cart", "/login"))
	_, _ = client.GetCart(next)
	assert.Equal(t, int32(2), atomic.LoadInt32(&events))
}

func TestUnauthorizedOnLoginRouteDoesNotExpire(t *testing.T) {
	bus := session.NewBus()
	var events int32
	require.NoError(t, bus.Subscribe(func(context.Context, session.Event) {
		atomic.AddInt32(&events, 1)
	}))
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusUnauthorized, `{"success":false,"message":"Invalid credentials"}`), nil
	}, WithSessionBus(bus))

	ctx := session.WithGuard(context.Background(), session.NewGuard("sid-1", "/login", "/login"))
	_, err := client.Login(ctx, LoginRequest{Email: "a@b.c", Password: "nope"})
	require.Error(t, err)
	assert.Equal(t, "Invalid credentials", pkgerrors.UserMessage(err, ""))
	assert.Zero(t, atomic.LoadInt32(&events))
}

func TestLoginDecodesTokenAndUser(t *testing.T) {
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/api/auth/login", req.URL.Path)
		return jsonResponse(http.StatusOK, `{"success":true,"data":{"token":"jwt","user":{"id":"u1","name":"Asha","email":"a@b.c","role":"tenant","roomNumber":"A-101"}}}`), nil
	})
	res, err := client.Login(context.Background(), LoginRequest{Email: "a@b.c", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	assert.Equal(t, "A-101", res.User.RoomNumber)
}

func TestCheckoutDecodesResult(t *testing.T) {
	client := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"success":true,"data":{"totalItems":2,"totalAmount":"12.00","consumptionIds":["r1","r2"],"bill":{"id":"bill1","billingPeriod":"2024-01","totalAmount":"12.00"}}}`), nil
	})
	res, err := client.Checkout(authedContext("tok"))
	require.NoError(t, err)
	assert.Equal(t, 2, res.TotalItems)
	assert.Equal(t, "12.00", res.TotalAmount.StringFixed(2))
	require.NotNil(t, res.Bill)
	assert.Equal(t, "2024-01", res.Bill.BillingPeriod)
}

func TestConsumptionRecordsShapes(t *testing.T) {
	bodies := map[string]string{
		"/api/rooftop/consumption/history": `{"success":true,"data":{"records":[{"id":"r1","beverage":{"name":"Cola"},"quantity":2}]}}`,
		"/api/rooftop/consumption":         `{"success":true,"data":[{"id":"r2","beverageName":"Lager","totalPrice":"9.00"}]}`,
		"/api/tenant/beverage-consumption": `{"success":true,"data":{"unexpected":true}}`,
	}
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, bodies[req.URL.Path]), nil
	})
	ctx := authedContext("tok")

	history, err := client.ConsumptionRecords(ctx, enums.ConsumptionSourceHistory)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, json.Number("2"), history[0]["quantity"])

	flat, err := client.ConsumptionRecords(ctx, enums.ConsumptionSourceFlat)
	require.NoError(t, err)
	require.Len(t, flat, 1)
	assert.Equal(t, "Lager", flat[0]["beverageName"])

	_, err = client.ConsumptionRecords(ctx, enums.ConsumptionSourceLegacy)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = client.ConsumptionRecords(ctx, enums.ConsumptionSource("bogus"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestNilClient(t *testing.T) {
	var client *Client
	_, err := client.GetCart(context.Background())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

type requestIDKey struct{}

func TestRequestIDIsForwarded(t *testing.T) {
	var captured string
	client := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		captured = req.Header.Get("X-Request-Id")
		return jsonResponse(http.StatusOK, `{"success":true,"data":[]}`), nil
	}, WithRequestID(func(ctx context.Context) string {
		id, _ := ctx.Value(requestIDKey{}).(string)
		return id
	}))

	_, err := client.ListBeverages(context.WithValue(context.Background(), requestIDKey{}, "req-42"))
	require.NoError(t, err)
	assert.Equal(t, "req-42", captured)

	_, err = client.ListBeverages(context.Background())
	require.NoError(t, err)
	assert.Empty(t, captured)
}
