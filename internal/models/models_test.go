package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreditsJSON(t *testing.T) {
	b, err := json.Marshal(map[string]Credits{"a": Remaining(2), "b": Unlimited()})
	require.NoError(t, err)
	require.JSONEq(t, `{"a":2,"b":"unlimited"}`, string(b))

	var decoded map[string]Credits
	require.NoError(t, json.Unmarshal(b, &decoded))
	require.True(t, decoded["b"].IsUnlimited())
	n, ok := decoded["a"].Count()
	require.True(t, ok)
	require.Equal(t, 2, n)

	var bad Credits
	require.Error(t, json.Unmarshal([]byte(`-1`), &bad))
	require.Error(t, json.Unmarshal([]byte(`"lots"`), &bad))
}

func TestRemainingFloorsAtZero(t *testing.T) {
	n, ok := Remaining(-3).Count()
	require.True(t, ok)
	require.Equal(t, 0, n)
}

func TestUserEligibility(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"free with credits", User{Plan: PlanFree, Credits: 1}, true},
		{"free without credits", User{Plan: PlanFree, Credits: 0}, false},
		{"pro without credits", User{Plan: PlanPro, Credits: 0}, true},
		{"enterprise", User{Plan: PlanEnterprise}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.user.CanAnalyze())
		})
	}

	pro := User{Plan: PlanPro, Credits: 7}
	require.True(t, pro.Balance().IsUnlimited())
}

func TestNewPagination(t *testing.T) {
	require.Equal(t, 3, NewPagination(1, 10, 21).TotalPages)
	require.Equal(t, 2, NewPagination(1, 10, 20).TotalPages)
	require.Equal(t, 0, NewPagination(1, 10, 0).TotalPages)
	require.Equal(t, 1, NewPagination(5, 1, 1).TotalPages)
}
