package closer

import (
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestFunc(t *testing.T) {
	t.Parallel()

	assert.Nil(t, Func(nil))

	called := false
	c := Func(func() error {
		called = true

		return nil
	})

	require.NoError(t, c.Close())
	assert.True(t, called)
}

func TestCloserReleasesNewestFirst(t *testing.T) {
	t.Parallel()

	var order []int

	c := New()
	for i := range 3 {
		c.Add(Func(func() error {
			order = append(order, i)

			return nil
		}))
	}

	c.Add(nil)
	assert.Equal(t, 3, c.Len())

	require.NoError(t, c.Close())
	assert.Equal(t, []int{2, 1, 0}, order)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.Close(), "second close is a no-op")
	assert.Len(t, order, 3)
}

func TestCloserKeepsGoingAfterFailures(t *testing.T) {
	t.Parallel()

	released := 0

	c := New(
		Func(func() error {
			released++

			return nil
		}),
		Func(func() error { panic("listener gone") }),
		Func(func() error { return errBoom }),
	)

	err := c.Close()
	require.Error(t, err)
	require.ErrorIs(t, err, errBoom)
	require.ErrorIs(t, err, ErrPanic)
	assert.Equal(t, 1, released)
}

func TestOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	inner := Func(func() error {
		calls++

		return errBoom
	})

	once := Once(inner)
	assert.Same(t, once, Once(once))
	assert.Nil(t, Once(nil))

	var wg sync.WaitGroup

	errs := make(chan error, 10)

	for range 10 {
		wg.Go(func() {
			errs <- once.Close()
		})
	}

	wg.Wait()
	close(errs)

	failures := 0

	for err := range errs {
		if err != nil {
			failures++
		}
	}

	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, failures)
}

func TestHandlePanic(t *testing.T) {
	t.Parallel()

	assert.Nil(t, HandlePanic(nil))

	var c io.Closer = Func(func() error { panic(42) })

	wrapped := HandlePanic(c)
	assert.Same(t, wrapped, HandlePanic(wrapped))

	err := wrapped.Close()
	require.ErrorIs(t, err, ErrPanic)
	assert.Contains(t, err.Error(), "42")
}
