package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/agrosupply/internal/repository/memory"
)

type failingRepo struct{}

func (failingRepo) GetSetting(context.Context, string) (string, bool, error) {
	return "", false, errors.New("connection reset")
}

func TestFarmerConfirmationWindowDays(t *testing.T) {
	tests := []struct {
		name     string
		stored   *string
		fallback string
		want     int
	}{
		{name: "unset", want: DefaultFarmerConfirmationWindowDays},
		{name: "stored value", stored: ptr("5"), want: 5},
		{name: "stored value with spaces", stored: ptr(" 4 "), want: 4},
		{name: "unparsable", stored: ptr("three"), want: DefaultFarmerConfirmationWindowDays},
		{name: "zero", stored: ptr("0"), want: DefaultFarmerConfirmationWindowDays},
		{name: "negative", stored: ptr("-2"), want: DefaultFarmerConfirmationWindowDays},
		{name: "fallback used when store has no key", fallback: "6", want: 6},
		{name: "store wins over fallback", stored: ptr("2"), fallback: "6", want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.New()
			if tt.stored != nil {
				store.PutSetting(FarmerConfirmationWindowDaysKey, *tt.stored)
			}
			fallbacks := map[string]string{}
			if tt.fallback != "" {
				fallbacks[FarmerConfirmationWindowDaysKey] = tt.fallback
			}

			svc := NewService(store, fallbacks, nil)
			assert.Equal(t, tt.want, svc.FarmerConfirmationWindowDays(context.Background()))
		})
	}
}

func TestLookupFallsBackOnStoreError(t *testing.T) {
	svc := NewService(failingRepo{}, map[string]string{FarmerConfirmationWindowDaysKey: "9"}, nil)

	value, ok := svc.Lookup(context.Background(), FarmerConfirmationWindowDaysKey)
	assert.True(t, ok)
	assert.Equal(t, "9", value)
	assert.Equal(t, 9, svc.FarmerConfirmationWindowDays(context.Background()))
}

func TestNilRepository(t *testing.T) {
	svc := NewService(nil, nil, nil)

	_, ok := svc.Lookup(context.Background(), "anything")
	assert.False(t, ok)
	assert.Equal(t, DefaultFarmerConfirmationWindowDays, svc.FarmerConfirmationWindowDays(context.Background()))
}

func ptr(s string) *string { return &s }
