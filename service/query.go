package service

import (
	"Agora/dao"
	"Agora/models"
	"Agora/pkg/utils"
	"Agora/types"
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	// 评论列表附带的最新回复条数
	latestReplies = 3
)

func clampPageSize(size int) int {
	if size <= 0 || size > maxPageSize {
		return defaultPageSize
	}
	return size
}

var _ IQueryService = (*QueryService)(nil)

type IQueryService interface {
	GetPost(ctx context.Context, postID, viewerID uint64) (*types.PostResponse, error)
	ListPosts(ctx context.Context, cursor types.Cursor, pageSize int, viewerID uint64) (*types.PostListResponse, error)
	ListComments(ctx context.Context, postID uint64, cursor types.Cursor, pageSize int, viewerID uint64) (*types.CommentsListResponse, error)
	ListReplies(ctx context.Context, commentID uint64, cursor types.Cursor, pageSize int, viewerID uint64) (*types.RepliesListResponse, error)
	GetPostStats(ctx context.Context, postID uint64) (*types.PostStats, error)
	GetUserStats(ctx context.Context, userID uint64) (*types.UserStats, error)
}

// QueryService 读路径，计数直接取冗余列
type QueryService struct {
	PostDAO        *dao.PostDAO
	CommentDAO     *dao.Comment
	ReplyDAO       *dao.Reply
	LikeDAO        *dao.LikeDAO
	ChatSessionDAO *dao.ChatSessionDAO
	HashID         *utils.HashID
}

// GetPost 已发布文章所有人可见，草稿和归档只有作者可见
func (s *QueryService) GetPost(ctx context.Context, postID, viewerID uint64) (*types.PostResponse, error) {
	post, err := s.PostDAO.GetByID(ctx, postID)
	if dao.IsNotFound(err) {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, postID)
	}
	if err != nil {
		return nil, wrapInternal("get post", err, zap.Uint64("post_id", postID))
	}
	if post.Status != models.PostPublished && post.UserID != viewerID {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, postID)
	}

	liked, err := s.LikeDAO.BatchCheckExists(ctx, viewerID, models.TargetPost, []uint64{postID})
	if err != nil {
		return nil, wrapInternal("get post", err, zap.Uint64("post_id", postID))
	}
	return s.toPostResponse(post, liked[postID]), nil
}

func (s *QueryService) ListPosts(ctx context.Context, cursor types.Cursor, pageSize int, viewerID uint64) (*types.PostListResponse, error) {
	pageSize = clampPageSize(pageSize)

	posts, err := s.PostDAO.GetPublishedByCursor(ctx, cursor.At, cursor.ID, pageSize+1)
	if err != nil {
		return nil, wrapInternal("list posts", err)
	}

	resp := &types.PostListResponse{Posts: make([]*types.PostResponse, 0, len(posts))}
	if len(posts) > pageSize {
		posts = posts[:pageSize]
		resp.HasMore = true
	}

	ids := make([]uint64, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	liked, err := s.LikeDAO.BatchCheckExists(ctx, viewerID, models.TargetPost, ids)
	if err != nil {
		return nil, wrapInternal("list posts", err)
	}

	for _, p := range posts {
		resp.Posts = append(resp.Posts, s.toPostResponse(p, liked[p.ID]))
	}
	if n := len(posts); n > 0 {
		resp.NextCursor, resp.NextCursorID = posts[n-1].CreatedAt.UnixNano(), posts[n-1].ID
	}
	return resp, nil
}

// ListComments 第一页先返回置顶评论，其余按时间倒序
// 点赞状态和最新回复并发加载
func (s *QueryService) ListComments(ctx context.Context, postID uint64, cursor types.Cursor, pageSize int, viewerID uint64) (*types.CommentsListResponse, error) {
	pageSize = clampPageSize(pageSize)

	post, err := s.PostDAO.GetByID(ctx, postID)
	if dao.IsNotFound(err) {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, postID)
	}
	if err != nil {
		return nil, wrapInternal("list comments", err, zap.Uint64("post_id", postID))
	}
	if post.Status == models.PostDraft && post.UserID != viewerID {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, postID)
	}

	var comments []*models.Comment
	if cursor.At == 0 {
		top, err := s.CommentDAO.GetTopComments(ctx, postID)
		if err != nil {
			return nil, wrapInternal("list comments", err, zap.Uint64("post_id", postID))
		}
		comments = append(comments, top...)
	}

	normal, err := s.CommentDAO.GetCommentsByCursor(ctx, postID, cursor.At, cursor.ID, pageSize+1)
	if err != nil {
		return nil, wrapInternal("list comments", err, zap.Uint64("post_id", postID))
	}

	resp := &types.CommentsListResponse{Comments: make([]*types.CommentResponse, 0, len(comments)+len(normal))}
	if len(normal) > pageSize {
		normal = normal[:pageSize]
		resp.HasMore = true
	}
	if n := len(normal); n > 0 {
		resp.NextCursor, resp.NextCursorID = normal[n-1].CreatedAt.UnixNano(), normal[n-1].ID
	}
	comments = append(comments, normal...)
	if len(comments) == 0 {
		return resp, nil
	}

	commentIDs := make([]uint64, 0, len(comments))
	for _, c := range comments {
		commentIDs = append(commentIDs, c.ID)
	}

	var (
		likedComments map[uint64]bool
		repliesMap    map[uint64][]*models.Reply
	)
	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) error {
		var err error
		likedComments, err = s.LikeDAO.BatchCheckExists(ctx, viewerID, models.TargetComment, commentIDs)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		repliesMap, err = s.ReplyDAO.BatchGetLatestReplies(ctx, commentIDs, latestReplies)
		return err
	})
	if err := p.Wait(); err != nil {
		return nil, wrapInternal("list comments", err, zap.Uint64("post_id", postID))
	}

	var replyIDs []uint64
	for _, replies := range repliesMap {
		for _, r := range replies {
			replyIDs = append(replyIDs, r.ID)
		}
	}
	likedReplies, err := s.LikeDAO.BatchCheckExists(ctx, viewerID, models.TargetReply, replyIDs)
	if err != nil {
		return nil, wrapInternal("list comments", err, zap.Uint64("post_id", postID))
	}

	for _, c := range comments {
		item := toCommentResponse(c, likedComments[c.ID])
		for _, r := range repliesMap[c.ID] {
			item.LatestReplies = append(item.LatestReplies, toReplyResponse(r, likedReplies[r.ID]))
		}
		resp.Comments = append(resp.Comments, item)
	}
	return resp, nil
}

// ListReplies 回复按时间正序
func (s *QueryService) ListReplies(ctx context.Context, commentID uint64, cursor types.Cursor, pageSize int, viewerID uint64) (*types.RepliesListResponse, error) {
	pageSize = clampPageSize(pageSize)

	comment, err := s.CommentDAO.GetByID(ctx, commentID)
	if dao.IsNotFound(err) || (err == nil && comment.Status != models.StatusActive) {
		return nil, fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
	}
	if err != nil {
		return nil, wrapInternal("list replies", err, zap.Uint64("comment_id", commentID))
	}

	replies, err := s.ReplyDAO.GetRepliesByCursor(ctx, commentID, cursor.At, cursor.ID, pageSize+1)
	if err != nil {
		return nil, wrapInternal("list replies", err, zap.Uint64("comment_id", commentID))
	}

	resp := &types.RepliesListResponse{Replies: make([]*types.ReplyResponse, 0, len(replies))}
	if len(replies) > pageSize {
		replies = replies[:pageSize]
		resp.HasMore = true
	}

	ids := make([]uint64, 0, len(replies))
	for _, r := range replies {
		ids = append(ids, r.ID)
	}
	liked, err := s.LikeDAO.BatchCheckExists(ctx, viewerID, models.TargetReply, ids)
	if err != nil {
		return nil, wrapInternal("list replies", err, zap.Uint64("comment_id", commentID))
	}

	for _, r := range replies {
		resp.Replies = append(resp.Replies, toReplyResponse(r, liked[r.ID]))
	}
	if n := len(replies); n > 0 {
		resp.NextCursor, resp.NextCursorID = replies[n-1].CreatedAt.UnixNano(), replies[n-1].ID
	}
	return resp, nil
}

func (s *QueryService) GetPostStats(ctx context.Context, postID uint64) (*types.PostStats, error) {
	post, err := s.PostDAO.GetByID(ctx, postID)
	if dao.IsNotFound(err) {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, postID)
	}
	if err != nil {
		return nil, wrapInternal("get post stats", err, zap.Uint64("post_id", postID))
	}
	return &types.PostStats{
		PostID:     post.ID,
		ViewCount:  post.ViewCount,
		LikeCount:  post.LikeCount,
		ReplyCount: post.ReplyCount,
	}, nil
}

// GetUserStats 用户维度统计，各项并发查询
func (s *QueryService) GetUserStats(ctx context.Context, userID uint64) (*types.UserStats, error) {
	stats := &types.UserStats{UserID: userID}

	p := pool.New().WithErrors().WithContext(ctx)
	p.Go(func(ctx context.Context) (err error) {
		stats.PostCount, err = s.PostDAO.CountPublishedByUser(ctx, userID)
		return
	})
	p.Go(func(ctx context.Context) (err error) {
		stats.CommentCount, err = s.CommentDAO.CountByUser(ctx, userID)
		return
	})
	p.Go(func(ctx context.Context) (err error) {
		stats.ReplyCount, err = s.ReplyDAO.CountByUser(ctx, userID)
		return
	})
	p.Go(func(ctx context.Context) (err error) {
		stats.LikesGiven, err = s.LikeDAO.CountByUser(ctx, userID)
		return
	})
	p.Go(func(ctx context.Context) (err error) {
		stats.SessionCount, err = s.ChatSessionDAO.CountByUser(ctx, userID)
		return
	})
	if err := p.Wait(); err != nil {
		return nil, wrapInternal("get user stats", err, zap.Uint64("user_id", userID))
	}
	return stats, nil
}

func (s *QueryService) toPostResponse(p *models.Post, liked bool) *types.PostResponse {
	resp := &types.PostResponse{
		ID:         p.ID,
		UserID:     p.UserID,
		Title:      p.Title,
		Content:    p.Content,
		Status:     int8(p.Status),
		ViewCount:  p.ViewCount,
		LikeCount:  p.LikeCount,
		ReplyCount: p.ReplyCount,
		IsLiked:    liked,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if s.HashID != nil {
		resp.ShareCode, _ = s.HashID.Encode(p.ID)
	}
	return resp
}

func toCommentResponse(c *models.Comment, liked bool) *types.CommentResponse {
	return &types.CommentResponse{
		ID:            c.ID,
		PostID:        c.PostID,
		UserID:        c.UserID,
		Content:       c.Content,
		LikeCount:     c.LikeCount,
		ReplyCount:    c.ReplyCount,
		IsTop:         c.IsTop,
		IsLiked:       liked,
		CreatedAt:     c.CreatedAt,
		LatestReplies: make([]*types.ReplyResponse, 0),
	}
}

func toReplyResponse(r *models.Reply, liked bool) *types.ReplyResponse {
	return &types.ReplyResponse{
		ID:            r.ID,
		CommentID:     r.CommentID,
		UserID:        r.UserID,
		ReplyToUserID: r.ReplyToUserID,
		Content:       r.Content,
		LikeCount:     r.LikeCount,
		IsLiked:       liked,
		CreatedAt:     r.CreatedAt,
	}
}
