package main

import (
	"context"
	"fmt"
	"io"

	"github.com/loykin/gerdoo-launcher/internal/response"
	"github.com/loykin/gerdoo-launcher/pkg/client"
)

func remoteClient(gf GlobalFlags) *client.Client {
	return client.New(client.Config{BaseURL: gf.APIUrl, Timeout: gf.APITimeout})
}

// emitResult prints an API result unchanged as the command's response line.
func emitResult(w io.Writer, res client.Result) error {
	var data any
	if len(res.Data) > 0 {
		data = res.Data
	}
	if res.Status {
		return emit(w, response.Succeed(data, res.Message))
	}
	return emit(w, response.Fail(data, res.Message))
}

// viaAPI runs call against --api-url and prints its result.
func viaAPI(ctx context.Context, w io.Writer, gf GlobalFlags, call func(context.Context, *client.Client) (client.Result, error)) error {
	c := remoteClient(gf)
	res, err := call(ctxOrBackground(ctx), c)
	if err != nil {
		return emitErr(w, fmt.Errorf("launcher API %s: %w", gf.APIUrl, err))
	}
	return emitResult(w, res)
}
