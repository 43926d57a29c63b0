package service

import (
	"Agora/config"
	"Agora/dao"
	"Agora/dao/cache"
	"Agora/models"
	"Agora/pkg/log"
	"Agora/pkg/snowflake"
	"Agora/pkg/utils"
	"Agora/types"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTitleRunes = 200

var _ IPostService = (*PostService)(nil)

type IPostService interface {
	CreatePost(ctx context.Context, authorID uint64, req *types.CreatePostRequest) (*models.Post, error)
	PublishPost(ctx context.Context, actor types.Actor, postID uint64) error
	ArchivePost(ctx context.Context, actor types.Actor, postID uint64) error
	DestroyPost(ctx context.Context, actor types.Actor, postID uint64) error
	RecordView(ctx context.Context, postID, viewerID uint64) error
	ShareCode(postID uint64) (string, error)
	ResolveShareCode(code string) (uint64, error)
}

type PostService struct {
	App        *config.App
	PostDAO    *dao.PostDAO
	CommentDAO *dao.Comment
	ReplyDAO   *dao.Reply
	LikeDAO    *dao.LikeDAO
	View       *cache.ViewStorage
	HashID     *utils.HashID
	Publisher  EventPublisher
}

func (s *PostService) CreatePost(ctx context.Context, authorID uint64, req *types.CreatePostRequest) (*models.Post, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: 标题不能为空", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		return nil, fmt.Errorf("%w: 标题不能超过%d字", ErrInvalidArgument, maxTitleRunes)
	}

	now := time.Now().UTC()
	post := &models.Post{
		ID:        snowflake.GenID(),
		UserID:    authorID,
		Title:     title,
		Content:   req.Content,
		Status:    models.PostDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if req.Publish {
		post.Status = models.PostPublished
	}

	if err := s.PostDAO.Create(ctx, post); err != nil {
		return nil, wrapInternal("create post", err, zap.Uint64("user_id", authorID))
	}
	if post.Status == models.PostPublished {
		s.publishPost(ctx, post)
	}
	return post, nil
}

// PublishPost 草稿或归档 -> 发布
func (s *PostService) PublishPost(ctx context.Context, actor types.Actor, postID uint64) error {
	post, err := s.transit(ctx, actor, postID, models.PostPublished)
	if err != nil {
		return err
	}
	if post != nil {
		s.publishPost(ctx, post)
	}
	return nil
}

// ArchivePost 发布 -> 归档，归档后不能再评论
func (s *PostService) ArchivePost(ctx context.Context, actor types.Actor, postID uint64) error {
	_, err := s.transit(ctx, actor, postID, models.PostArchived)
	return err
}

// transit 状态已是目标状态时直接成功，返回 nil
func (s *PostService) transit(ctx context.Context, actor types.Actor, postID uint64, to models.PostStatus) (*models.Post, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(post.UserID) {
		return nil, fmt.Errorf("%w: post %d", ErrForbidden, postID)
	}
	if post.Status == to {
		return nil, nil
	}
	if !post.Status.CanTransit(to) {
		return nil, fmt.Errorf("%w: post %d %d -> %d", ErrInvalidState, postID, post.Status, to)
	}

	ok, err := s.PostDAO.CompareAndSetStatus(ctx, postID, post.Status, to)
	if err != nil {
		return nil, wrapInternal("transit post", err, zap.Uint64("post_id", postID))
	}
	if !ok {
		return nil, fmt.Errorf("%w: post %d status changed", ErrConflict, postID)
	}
	post.Status = to
	return post, nil
}

// DestroyPost 物理删除文章及其评论、回复和全部点赞记录，同一事务
func (s *PostService) DestroyPost(ctx context.Context, actor types.Actor, postID uint64) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if !actor.CanManage(post.UserID) {
		return fmt.Errorf("%w: post %d", ErrForbidden, postID)
	}

	err = s.PostDAO.Transaction(ctx, func(tx *gorm.DB) error {
		commentDAO := s.CommentDAO.WithDB(tx)
		replyDAO := s.ReplyDAO.WithDB(tx)
		likeDAO := s.LikeDAO.WithDB(tx)

		commentIDs, err := commentDAO.GetIDsByPost(ctx, postID)
		if err != nil {
			return err
		}
		replyIDs, err := replyDAO.GetIDsByPost(ctx, postID)
		if err != nil {
			return err
		}

		if err := likeDAO.DeleteByTargets(ctx, models.TargetReply, replyIDs); err != nil {
			return err
		}
		if err := likeDAO.DeleteByTargets(ctx, models.TargetComment, commentIDs); err != nil {
			return err
		}
		if err := likeDAO.DeleteByTargets(ctx, models.TargetPost, []uint64{postID}); err != nil {
			return err
		}
		if err := replyDAO.DeleteByPost(ctx, postID); err != nil {
			return err
		}
		if err := commentDAO.DeleteByPost(ctx, postID); err != nil {
			return err
		}
		return s.PostDAO.WithDB(tx).Destroy(ctx, postID)
	})
	if err != nil {
		return wrapInternal("destroy post", err, zap.Uint64("post_id", postID))
	}

	log.L.Info("post destroyed", zap.Uint64("post_id", postID), zap.Uint64("operator", actor.UserID))
	return nil
}

// RecordView 浏览数 +1，同一登录用户在去重窗口内只计一次
func (s *PostService) RecordView(ctx context.Context, postID, viewerID uint64) error {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.Status != models.PostPublished {
		return fmt.Errorf("%w: post %d", ErrNotFound, postID)
	}

	if viewerID > 0 && s.View != nil {
		first, err := s.View.MarkViewed(ctx, postID, viewerID, s.App.ViewDedupWindow())
		if err != nil {
			log.L.Warn("view dedup unavailable", zap.Uint64("post_id", postID), zap.Error(err))
		} else if !first {
			return nil
		}
	}

	if _, err := s.PostDAO.IncrViewCount(ctx, postID); err != nil {
		return wrapInternal("record view", err, zap.Uint64("post_id", postID))
	}
	return nil
}

func (s *PostService) ShareCode(postID uint64) (string, error) {
	return s.HashID.Encode(postID)
}

func (s *PostService) ResolveShareCode(code string) (uint64, error) {
	id, err := s.HashID.Decode(code)
	if err != nil {
		return 0, fmt.Errorf("%w: share code", ErrNotFound)
	}
	return id, nil
}

func (s *PostService) getPost(ctx context.Context, postID uint64) (*models.Post, error) {
	post, err := s.PostDAO.GetByID(ctx, postID)
	if dao.IsNotFound(err) {
		return nil, fmt.Errorf("%w: post %d", ErrNotFound, postID)
	}
	if err != nil {
		return nil, wrapInternal("get post", err, zap.Uint64("post_id", postID))
	}
	return post, nil
}

func (s *PostService) publishPost(ctx context.Context, post *models.Post) {
	publish(ctx, s.Publisher, EventPostPublished, strconv.FormatUint(post.ID, 10), map[string]any{
		"post_id": strconv.FormatUint(post.ID, 10),
		"user_id": strconv.FormatUint(post.UserID, 10),
		"title":   post.Title,
	})
}
