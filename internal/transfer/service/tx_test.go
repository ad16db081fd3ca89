package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "caseflow/pkg/domain-errors"
)

type counter struct {
	value    int
	restored int
}

func (c *counter) Snapshot() func() {
	saved := c.value
	return func() {
		c.value = saved
		c.restored++
	}
}

func TestInMemoryTx(t *testing.T) {
	t.Run("commit keeps writes", func(t *testing.T) {
		c := &counter{}
		err := NewInMemoryTx(c).RunInTx(context.Background(), func(context.Context) error {
			c.value = 3
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, c.value)
		assert.Zero(t, c.restored)
	})

	t.Run("error restores every participant", func(t *testing.T) {
		a, b := &counter{value: 1}, &counter{value: 2}
		boom := errors.New("boom")
		err := NewInMemoryTx(a, b).RunInTx(context.Background(), func(context.Context) error {
			a.value, b.value = 10, 20
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, a.value)
		assert.Equal(t, 2, b.value)
	})

	t.Run("panic restores and re-panics", func(t *testing.T) {
		c := &counter{value: 1}
		assert.Panics(t, func() {
			_ = NewInMemoryTx(c).RunInTx(context.Background(), func(context.Context) error {
				c.value = 5
				panic("store exploded")
			})
		})
		assert.Equal(t, 1, c.value)
	})

	t.Run("cancelled context never runs fn", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		ran := false
		err := NewInMemoryTx().RunInTx(ctx, func(context.Context) error {
			ran = true
			return nil
		})
		assert.False(t, ran)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
	})

	t.Run("deadline passing during fn rolls back", func(t *testing.T) {
		c := &counter{}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := NewInMemoryTx(c).RunInTx(ctx, func(ctx context.Context) error {
			c.value = 9
			<-ctx.Done()
			return nil
		})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
		assert.Zero(t, c.value)
	})
}
