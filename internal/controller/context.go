package controller

import "context"

type contextKey int

const (
	userIDCtxKey contextKey = iota
	peerCtxKey
)

func (c controller) getUserIDFromCtx(ctx context.Context) string {
	userID, ok := ctx.Value(userIDCtxKey).(string)
	if !ok {
		return ""
	}

	return userID
}

func (c controller) getPeerFromCtx(ctx context.Context) *peer {
	p, ok := ctx.Value(peerCtxKey).(*peer)
	if !ok {
		return nil
	}

	return p
}
