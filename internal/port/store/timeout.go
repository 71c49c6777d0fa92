package store

import (
	"context"
	"time"
)

// WithTimeout bounds every call on c except Subscribe by d. Expired calls
// return an error matching ErrTimeout.
func WithTimeout(c Client, d time.Duration) Client {
	if d <= 0 {
		return c
	}
	return &timeoutClient{next: c, timeout: d}
}

type timeoutClient struct {
	next    Client
	timeout time.Duration
}

func (t *timeoutClient) ReadOnce(ctx context.Context, path string) (Value, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	v, ok, err := t.next.ReadOnce(ctx, path)
	return v, ok, t.wrap(ctx, "read", path, err)
}

func (t *timeoutClient) Children(ctx context.Context, path string) (map[string]Value, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	children, err := t.next.Children(ctx, path)
	return children, t.wrap(ctx, "children", path, err)
}

func (t *timeoutClient) WriteAll(ctx context.Context, path string, value Value) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.wrap(ctx, "write", path, t.next.WriteAll(ctx, path, value))
}

func (t *timeoutClient) UpdateFields(ctx context.Context, path string, fields Value) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.wrap(ctx, "update", path, t.next.UpdateFields(ctx, path, fields))
}

func (t *timeoutClient) AppendChild(ctx context.Context, path string, seed ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	key, err := t.next.AppendChild(ctx, path, seed...)
	return key, t.wrap(ctx, "append", path, err)
}

func (t *timeoutClient) RemoveSubtree(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.wrap(ctx, "remove", path, t.next.RemoveSubtree(ctx, path))
}

func (t *timeoutClient) Subscribe(ctx context.Context, path string, onChange func(Snapshot)) (Unsubscribe, error) {
	return t.next.Subscribe(ctx, path, onChange)
}

// wrap turns an error caused by our own deadline into ErrTimeout.
func (t *timeoutClient) wrap(ctx context.Context, op, path string, err error) error {
	if err == nil {
		return nil
	}
	if IsTransient(err) {
		return err
	}
	if ctx.Err() == context.DeadlineExceeded {
		return ContextError(op, path, context.DeadlineExceeded)
	}
	return err
}
