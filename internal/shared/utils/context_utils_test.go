package utils

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"firestore-emulator/internal/shared/contextkeys"
)

func TestGetSetContextValues(t *testing.T) {
	ctx := context.Background()
	ctx = WithRequestID(ctx, "req1")
	ctx = WithComponent(ctx, "componentA")
	ctx = WithOperation(ctx, "opX")

	reqID, err := GetRequestIDFromContext(ctx)
	assert.NoError(t, err)
	assert.Equal(t, "req1", reqID)
}

func TestGetRequestIDFromContext_MissingValue(t *testing.T) {
	ctx := context.Background()
	_, err := GetRequestIDFromContext(ctx)
	assert.Error(t, err)
	assert.Equal(t, "requestID not found in context", err.Error())
}

func TestGetRequestIDFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), contextkeys.RequestIDKey, 42)
	_, err := GetRequestIDFromContext(ctx)
	assert.Error(t, err)
}
