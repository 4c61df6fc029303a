package connection

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/Goden-Gun/adt-lib/pkg/abapgit"
)

// PostDocument streams an abapGit document produced by fn into a POST to
// path. fn runs once per attempt, so it may be called again when the CSRF
// token has to be refreshed.
func (c *Connection) PostDocument(ctx context.Context, path, contentType, serializer string, fn func(*abapgit.Writer) error) (*Response, error) {
	body := &documentBody{serializer: serializer, fn: fn}
	resp, err := c.Execute(ctx, Request{
		Method:      http.MethodPost,
		Path:        path,
		ContentType: contentType,
		stream:      body.open,
	})
	if werr := body.wait(); werr != nil {
		return nil, werr
	}
	return resp, err
}

type documentBody struct {
	serializer string
	fn         func(*abapgit.Writer) error

	mu   sync.Mutex
	last chan error
}

func (b *documentBody) open() io.Reader {
	pr, pw := io.Pipe()
	done := make(chan error, 1)
	b.mu.Lock()
	b.last = done
	b.mu.Unlock()

	go func() {
		err := abapgit.WithWriter(pw, b.serializer, b.fn)
		_ = pw.CloseWithError(err)
		done <- err
	}()
	return pr
}

// wait returns the error of the last document run, ignoring failures caused
// by the transport closing the body early.
func (b *documentBody) wait() error {
	b.mu.Lock()
	done := b.last
	b.mu.Unlock()
	if done == nil {
		return nil
	}
	err := <-done
	if errors.Is(err, io.ErrClosedPipe) {
		return nil
	}
	return err
}
