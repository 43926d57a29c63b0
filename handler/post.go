package handler

import (
	"Agora/config"
	"Agora/middleware"
	"Agora/models"
	"Agora/pkg/context"
	"Agora/pkg/response"
	"Agora/service"
	"Agora/types"
	"net/http"

	"github.com/gin-gonic/gin"
)

type PostHandler struct {
	Config       *config.Config
	PostService  service.IPostService
	QueryService service.IQueryService
}

func (h *PostHandler) RegisterRouter(r gin.IRouter) {
	secret := []byte(h.Config.Jwt.Secret)
	authorize := middleware.Auth(secret)
	optional := middleware.OptionalAuth(secret)

	posts := r.Group("/v1/posts")
	posts.POST("", authorize, context.Wrap(h.Create))
	posts.GET("", optional, context.Wrap(h.List))
	posts.GET("/:id", optional, context.Wrap(h.Get))
	posts.GET("/:id/stats", context.Wrap(h.Stats))
	posts.POST("/:id/publish", authorize, context.Wrap(h.Publish))
	posts.POST("/:id/archive", authorize, context.Wrap(h.Archive))
	posts.DELETE("/:id", authorize, context.Wrap(h.Destroy))
	r.GET("/v1/share/:code", optional, context.Wrap(h.Share))

	r.GET("/v1/users/:id/stats", context.Wrap(h.UserStats))
}

func (h *PostHandler) Create(c *gin.Context) error {
	var req types.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "参数错误")
	}
	userID, err := context.MustUserID(c)
	if err != nil {
		return err
	}

	post, err := h.PostService.CreatePost(c.Request.Context(), userID, &req)
	if err != nil {
		return toBizError(err)
	}
	resp, err := h.QueryService.GetPost(c.Request.Context(), post.ID, userID)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, resp)
	return nil
}

func (h *PostHandler) List(c *gin.Context) error {
	var req types.ListPostsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		return response.NewError(http.StatusBadRequest, "参数错误")
	}
	resp, err := h.QueryService.ListPosts(c.Request.Context(), req.Cursor, req.PageSize, context.GetUserID(c))
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, resp)
	return nil
}

// Get 文章详情，已发布文章同时记录一次浏览
func (h *PostHandler) Get(c *gin.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	return h.detail(c, postID)
}

func (h *PostHandler) Share(c *gin.Context) error {
	postID, err := h.PostService.ResolveShareCode(c.Param("code"))
	if err != nil {
		return toBizError(err)
	}
	return h.detail(c, postID)
}

func (h *PostHandler) detail(c *gin.Context, postID uint64) error {
	viewerID := context.GetUserID(c)
	resp, err := h.QueryService.GetPost(c.Request.Context(), postID, viewerID)
	if err != nil {
		return toBizError(err)
	}
	if resp.Status == int8(models.PostPublished) {
		if err := h.PostService.RecordView(c.Request.Context(), postID, viewerID); err == nil {
			resp.ViewCount++
		}
	}
	response.Success(c, resp)
	return nil
}

func (h *PostHandler) Stats(c *gin.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.QueryService.GetPostStats(c.Request.Context(), postID)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, stats)
	return nil
}

func (h *PostHandler) UserStats(c *gin.Context) error {
	userID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	stats, err := h.QueryService.GetUserStats(c.Request.Context(), userID)
	if err != nil {
		return toBizError(err)
	}
	response.Success(c, stats)
	return nil
}

func (h *PostHandler) Publish(c *gin.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.PostService.PublishPost(c.Request.Context(), actorOf(c), postID); err != nil {
		return toBizError(err)
	}
	response.Success(c, nil)
	return nil
}

func (h *PostHandler) Archive(c *gin.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.PostService.ArchivePost(c.Request.Context(), actorOf(c), postID); err != nil {
		return toBizError(err)
	}
	response.Success(c, nil)
	return nil
}

func (h *PostHandler) Destroy(c *gin.Context) error {
	postID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.PostService.DestroyPost(c.Request.Context(), actorOf(c), postID); err != nil {
		return toBizError(err)
	}
	response.Success(c, nil)
	return nil
}
