package server

import (
	"Agora/handler"
)

type Handlers struct {
	Post     *handler.PostHandler
	Comments *handler.CommentsHandler
	Like     *handler.LikeHandler
	Chat     *handler.ChatHandler
	Admin    *handler.AdminHandler
}
