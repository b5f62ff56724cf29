// SPDX-FileCopyrightText: 2025 the Canic contributors
//
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"context"
	"encoding/json"

	"github.com/canic-io/canic/pkg/errors"
	"github.com/canic-io/canic/pkg/types"
)

// Transport moves encoded calls between canisters. Implementations must
// preserve causal order for calls issued by the same caller to the same
// callee; the platform's reliable call transport has this property.
type Transport interface {
	Call(ctx context.Context, caller, callee types.Principal, method string, payload []byte) ([]byte, error)
}

// Handler is the receiving side of the fabric: one canister's dispatcher.
type Handler interface {
	Handle(ctx context.Context, caller types.Principal, method string, payload []byte) ([]byte, error)
}

// Client issues typed calls on behalf of one canister.
type Client struct {
	self      types.Principal
	transport Transport
}

// NewClient binds a client to this node's principal and transport.
func NewClient(self types.Principal, transport Transport) *Client {
	return &Client{self: self, transport: transport}
}

// Self returns the calling principal.
func (c *Client) Self() types.Principal {
	return c.self
}

// Call encodes args, invokes method on callee, and decodes the result
// envelope into out. A nil out discards the payload. Transport failures and
// decode failures surface as transport-kind errors; errors returned by the
// callee keep their original kind.
func (c *Client) Call(ctx context.Context, callee types.Principal, method string, args, out any) error {
	payload, err := json.Marshal(args)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeTransport, "cannot encode %s args", method)
	}

	raw, err := c.transport.Call(ctx, c.self, callee, method, payload)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeTransport, "call to %s on %s failed", method, callee.Short())
	}

	var env envelope[json.RawMessage]
	if err := json.Unmarshal(raw, &env); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeTransport, "cannot decode %s response", method)
	}
	if env.Err != nil {
		return errors.New(env.Err.Type, env.Err.Message)
	}
	if out == nil || env.Ok == nil {
		return nil
	}
	if err := json.Unmarshal(*env.Ok, out); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeTransport, "cannot decode %s result", method)
	}
	return nil
}

// Invoke sends an orchestration request to callee and returns the matching
// response variant.
func (c *Client) Invoke(ctx context.Context, callee types.Principal, req Request) (Response, error) {
	if err := req.Validate(); err != nil {
		return Response{}, err
	}

	var resp Response
	if err := c.Call(ctx, callee, MethodResponse, req, &resp); err != nil {
		return Response{}, err
	}
	return resp, nil
}

// EncodeResult frames a handler result for the wire.
func EncodeResult(result any, callErr error) ([]byte, error) {
	if callErr != nil {
		return json.Marshal(envelope[json.RawMessage]{Err: errors.Public(callErr)})
	}

	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	ok := json.RawMessage(raw)
	return json.Marshal(envelope[json.RawMessage]{Ok: &ok})
}
