package controller

import (
	"github.com/sharetube/looper/pkg/wsrouter"
)

func (c controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.wsRequestIdWSMw(), c.loggerWSMw())
	mux.OnError(c.handleWSError)

	// session
	wsrouter.Handle(mux, "MOUNT", c.handleMount)
	wsrouter.Handle(mux, "CONFIGURE", c.handleConfigure)
	wsrouter.Handle(mux, "UNMOUNT", c.handleUnmount)
	wsrouter.Handle(mux, "TOGGLE_PLAY_PAUSE", c.handleTogglePlayPause)
	wsrouter.Handle(mux, "GET_SESSION", c.handleGetSession)

	// embed notifications
	wsrouter.Handle(mux, "EMBED_API_READY", c.handleEmbedAPIReady)
	wsrouter.Handle(mux, "EMBED_API_FAILED", c.handleEmbedAPIFailed)
	wsrouter.Handle(mux, "PLAYER_READY", c.handlePlayerReady)
	wsrouter.Handle(mux, "PLAYER_STATE_CHANGED", c.handlePlayerStateChanged)
	wsrouter.Handle(mux, "PLAYER_ERROR", c.handlePlayerError)

	return mux
}
