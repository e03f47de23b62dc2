package api

import (
	"ats-analyzer/internal/auth"
	"ats-analyzer/internal/models"
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestRegisterLoginMe(t *testing.T) {
	// Test 1: rejestracja nowego konta
	rr := doRequest(jsonRequest(http.MethodPost, "/auth/register",
		`{"name": "Anna Nowak", "email": "Anna@Example.com", "password": "secret1"}`))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var registered AuthResponse
	decodeBody(t, rr.Body, &registered)
	require.NotEmpty(t, registered.Token)
	assert.Equal(t, "anna@example.com", registered.User.Email)
	assert.Equal(t, models.PlanFree, registered.User.Plan)
	n, ok := registered.User.Credits.Count()
	require.True(t, ok)
	assert.Equal(t, testConfig.Credits.FreeInitial, n)

	claims, err := auth.VerifyJWT(registered.Token, testConfig.JWT.Secret)
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, claims.UserID)

	// Test 2: ponowna rejestracja na ten sam adres
	rr = doRequest(jsonRequest(http.MethodPost, "/auth/register",
		`{"name": "Anna Nowak", "email": "anna@example.com", "password": "secret1"}`))
	assert.Equal(t, http.StatusConflict, rr.Code)

	// Test 3: logowanie
	rr = doRequest(jsonRequest(http.MethodPost, "/auth/login",
		`{"email": "anna@example.com", "password": "secret1"}`))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var loggedIn AuthResponse
	decodeBody(t, rr.Body, &loggedIn)
	require.NotEmpty(t, loggedIn.Token)

	// Test 4: dane bieżącego użytkownika
	rr = doRequest(authedRequest(http.MethodGet, "/auth/me", loggedIn.Token))
	require.Equal(t, http.StatusOK, rr.Code)
	var me MeResponse
	decodeBody(t, rr.Body, &me)
	assert.Equal(t, registered.User.ID, me.User.ID)
	assert.Zero(t, me.User.TotalAnalyses)
	assert.Nil(t, me.User.LastAnalysisDate)
}

func TestRegisterHandler_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"name":`},
		{name: "missing name", body: `{"email": "x@example.com", "password": "secret1"}`},
		{name: "invalid email", body: `{"name": "X", "email": "not-an-email", "password": "secret1"}`},
		{name: "short password", body: `{"name": "X", "email": "x@example.com", "password": "12345"}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(jsonRequest(http.MethodPost, "/auth/register", tc.body))
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestLoginHandler_InvalidCredentials(t *testing.T) {
	user, _ := createAPIUser(t, models.PlanFree, 3)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{name: "wrong password", body: `{"email": "` + user.Email + `", "password": "wrong"}`, status: http.StatusUnauthorized},
		{name: "unknown email", body: `{"email": "nobody@example.com", "password": "password"}`, status: http.StatusUnauthorized},
		{name: "missing password", body: `{"email": "` + user.Email + `"}`, status: http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := doRequest(jsonRequest(http.MethodPost, "/auth/login", tc.body))
			assert.Equal(t, tc.status, rr.Code)
		})
	}
}

func TestMeHandler_Unauthorized(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{name: "no header", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "garbage token", header: "Bearer abc.def.ghi"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := doRequest(req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestMeHandler_ProPlanUnlimited(t *testing.T) {
	_, token := createAPIUser(t, models.PlanPro, 0)

	rr := doRequest(authedRequest(http.MethodGet, "/auth/me", token))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"credits":"unlimited"`)
}

func TestLoginHandler_UnknownEmailStillComparesHash(t *testing.T) {
	var compared []string
	original := checkPassword
	checkPassword = func(password, hash string) bool {
		compared = append(compared, hash)
		return original(password, hash)
	}
	t.Cleanup(func() { checkPassword = original })

	rr := doRequest(jsonRequest(http.MethodPost, "/auth/login",
		`{"email": "ghost@example.com", "password": "password"}`))
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	// Sprawdź, czy bcrypt został wywołany mimo braku konta
	require.Len(t, compared, 1)
	assert.Equal(t, dummyPasswordHash(), compared[0])
}
