package firebase

import (
	"context"
	"testing"

	"religious_services_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewFirebaseService_DisabledWithoutKey(t *testing.T) {
	svc, err := NewFirebaseService(&config.Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.False(t, svc.Enabled())

	assert.NoError(t, svc.Send(context.Background(), PushMessage{Token: "abc", Title: "t", Body: "b"}))
}

func TestNilServiceIsDisabled(t *testing.T) {
	var svc *FirebaseService
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.Send(context.Background(), PushMessage{}))
}
