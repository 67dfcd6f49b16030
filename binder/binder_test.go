package binder_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/pianoxl/binder"
)

type signUpForm struct {
	Email      string `form:"email"`
	Password   string `form:"password"`
	TesterCode string `form:"tester_code"`
	Remember   bool   `form:"remember"`
	Internal   string `form:"-"`
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/auth/sign-up", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestForm(t *testing.T) {
	t.Parallel()

	var got signUpForm
	err := binder.Form()(formRequest(url.Values{
		"email":       {"player@example.com"},
		"password":    {"secret1"},
		"tester_code": {"beta2025"},
		"remember":    {"on"},
		"Internal":    {"x"},
	}), &got)
	require.NoError(t, err)

	assert.Equal(t, signUpForm{
		Email:      "player@example.com",
		Password:   "secret1",
		TesterCode: "beta2025",
		Remember:   true,
	}, got)
}

func TestForm_NotApplicable(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	var got signUpForm
	assert.ErrorIs(t, binder.Form()(req, &got), binder.ErrBinderNotApplicable)
}

func TestForm_InvalidValue(t *testing.T) {
	t.Parallel()

	var got struct {
		Count int `form:"count"`
	}
	err := binder.Form()(formRequest(url.Values{"count": {"many"}}), &got)
	assert.ErrorIs(t, err, binder.ErrInvalidForm)
}

func TestQuery(t *testing.T) {
	t.Parallel()

	var got struct {
		Path   string `query:"path"`
		Intent string `query:"intent"`
	}
	req := httptest.NewRequest(http.MethodGet, "/live?path=%2Fsuccess&intent=continue", nil)
	require.NoError(t, binder.Query()(req, &got))
	assert.Equal(t, "/success", got.Path)
	assert.Equal(t, "continue", got.Intent)
}

func TestJSON(t *testing.T) {
	t.Parallel()

	type message struct {
		Type string `json:"type"`
	}

	jsonRequest := func(body string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/widget/message", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json; charset=utf-8")
		return req
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"valid", `{"type":"SIGN_OUT"}`, "SIGN_OUT", nil},
		{"unknown field", `{"type":"SIGN_OUT","extra":1}`, "", binder.ErrInvalidJSON},
		{"trailing data", `{"type":"SIGN_OUT"}{"type":"x"}`, "", binder.ErrInvalidJSON},
		{"empty body", ``, "", binder.ErrInvalidJSON},
		{"wrong shape", `"SIGN_OUT"`, "", binder.ErrInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var got message
			err := binder.JSON()(jsonRequest(tt.body), &got)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Type)
		})
	}

	t.Run("not applicable", func(t *testing.T) {
		t.Parallel()
		var got message
		err := binder.JSON()(formRequest(url.Values{"type": {"SIGN_OUT"}}), &got)
		assert.ErrorIs(t, err, binder.ErrBinderNotApplicable)
	})
}
