package storagemock

import (
	"context"

	"github.com/raterudder/powerflow/pkg/storage"
	"github.com/raterudder/powerflow/pkg/types"
	"github.com/stretchr/testify/mock"
)

type MockDatabase struct {
	mock.Mock
}

var _ storage.Database = (*MockDatabase)(nil)

func (m *MockDatabase) GetCardConfig(ctx context.Context, cardID string) (types.CardConfig, int, error) {
	args := m.Called(ctx, cardID)
	// return empty if not specified, or checks args
	if len(args) > 0 {
		return args.Get(0).(types.CardConfig), args.Int(1), args.Error(2)
	}
	return types.CardConfig{}, 0, nil
}

func (m *MockDatabase) SetCardConfig(ctx context.Context, cardID string, cfg types.CardConfig, version int) error {
	args := m.Called(ctx, cardID, cfg, version)
	return args.Error(0)
}

func (m *MockDatabase) ListCards(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if len(args) > 0 {
		return args.Get(0).([]string), args.Error(1)
	}
	return nil, nil
}

func (m *MockDatabase) Close() error {
	args := m.Called()
	if len(args) > 0 {
		return args.Error(0)
	}
	return nil
}
