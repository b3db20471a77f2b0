package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerContract(t *testing.T) {
	var _ Logger = New()
}

func TestLogrusLogger_WithFieldsAndContext(t *testing.T) {
	l := New()
	l2 := l.WithFields(map[string]interface{}{"foo": "bar"})
	assert.NotNil(t, l2)

	ctx := context.WithValue(context.Background(), struct{}{}, "user1")
	l3 := l.WithContext(ctx)
	assert.NotNil(t, l3)
}

func TestLogrusLogger_WithComponent(t *testing.T) {
	l := New()
	l2 := l.WithComponent("grpc")
	assert.NotNil(t, l2)
}
