package main

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/charmbracelet/huh/spinner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSpinner() *spinner.Spinner {
	return spinner.New().Title("тест...").Accessible(true).Output(io.Discard)
}

func TestSpin_ReturnsActionResult(t *testing.T) {
	value := "готово"
	got, err := spin(context.Background(), testSpinner(), func(ctx context.Context) (*string, error) {
		return &value, nil
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "готово", *got)
}

func TestSpin_ActionError(t *testing.T) {
	boom := errors.New("сервис недоступен")
	got, err := spin(context.Background(), testSpinner(), func(ctx context.Context) (*string, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, got)
}

func TestSpin_NilResultWithoutError(t *testing.T) {
	got, err := spin(context.Background(), testSpinner(), func(ctx context.Context) (*string, error) {
		return nil, nil
	})
	assert.ErrorIs(t, err, errInterrupted)
	assert.Nil(t, got)
}

func TestSpin_InterruptedWhileRunning(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	actionCtx := make(chan context.Context, 1)
	value := "поздний результат"

	got, err := spin(ctx, testSpinner(), func(ctx context.Context) (*string, error) {
		actionCtx <- ctx
		cancel()
		<-release
		return &value, nil
	})
	close(release)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)

	// контекст действия тоже отменен
	assert.Error(t, (<-actionCtx).Err())
}

func TestSpin_AlreadyCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	got, err := spin(ctx, testSpinner(), func(ctx context.Context) (*string, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.False(t, called)
}
