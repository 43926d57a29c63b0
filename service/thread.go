package service

import (
	"Agora/dao"
	"Agora/models"
	"Agora/pkg/log"
	"Agora/pkg/metrics"
	"Agora/pkg/snowflake"
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

// MaxContentRunes 评论/回复最大字数
const MaxContentRunes = 1000

// 状态流转时 CAS 失败后重读的次数上限
const maxTransitionAttempts = 3

var _ IThreadService = (*ThreadService)(nil)

type IThreadService interface {
	CreateComment(ctx context.Context, postID, authorID uint64, content string) (*models.Comment, error)
	CreateReply(ctx context.Context, commentID, authorID, replyToUserID uint64, content string) (*models.Reply, error)
	DeleteComment(ctx context.Context, actor types.Actor, commentID uint64) error
	DeleteReply(ctx context.Context, actor types.Actor, replyID uint64) error
	HideComment(ctx context.Context, actor types.Actor, commentID uint64) error
	RestoreComment(ctx context.Context, actor types.Actor, commentID uint64) error
	HideReply(ctx context.Context, actor types.Actor, replyID uint64) error
	RestoreReply(ctx context.Context, actor types.Actor, replyID uint64) error
	UpdateTop(ctx context.Context, actor types.Actor, commentID uint64, top bool) error
}

type ThreadService struct {
	PostDAO    *dao.PostDAO
	CommentDAO *dao.Comment
	ReplyDAO   *dao.Reply
	Publisher  EventPublisher
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: 内容不能为空", ErrInvalidArgument)
	}
	if utf8.RuneCountInString(content) > MaxContentRunes {
		return "", fmt.Errorf("%w: 内容不能超过%d字", ErrInvalidArgument, MaxContentRunes)
	}
	return content, nil
}

// CreateComment 发表评论，同一事务内帖子评论数 +1
func (s *ThreadService) CreateComment(ctx context.Context, postID, authorID uint64, content string) (*models.Comment, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := &models.Comment{
		ID:        snowflake.GenID(),
		PostID:    postID,
		UserID:    authorID,
		Content:   content,
		Status:    models.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.PostDAO.Transaction(ctx, func(tx *gorm.DB) error {
		postDAO := s.PostDAO.WithDB(tx)

		post, err := postDAO.GetForUpdate(ctx, postID)
		if dao.IsNotFound(err) {
			return fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}
		if err != nil {
			return err
		}
		switch post.Status {
		case models.PostPublished:
		case models.PostArchived:
			return fmt.Errorf("%w: post %d archived", ErrInvalidState, postID)
		default:
			return fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}

		if err := s.CommentDAO.WithDB(tx).Create(ctx, comment); err != nil {
			return err
		}
		rows, err := postDAO.IncrReplyCount(ctx, postID, 1)
		if err != nil {
			return err
		}
		// 文章已被并发删除，回滚评论
		if rows == 0 {
			return fmt.Errorf("%w: post %d", ErrNotFound, postID)
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal("create comment", err, zap.Uint64("post_id", postID), zap.Uint64("user_id", authorID))
	}

	publish(ctx, s.Publisher, EventCommentCreated, strconv.FormatUint(postID, 10), map[string]any{
		"post_id":    strconv.FormatUint(postID, 10),
		"comment_id": strconv.FormatUint(comment.ID, 10),
		"user_id":    strconv.FormatUint(authorID, 10),
	})
	return comment, nil
}

// CreateReply 回复评论，同一事务内评论回复数 +1
func (s *ThreadService) CreateReply(ctx context.Context, commentID, authorID, replyToUserID uint64, content string) (*models.Reply, error) {
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	reply := &models.Reply{
		ID:            snowflake.GenID(),
		CommentID:     commentID,
		UserID:        authorID,
		ReplyToUserID: replyToUserID,
		Content:       content,
		Status:        models.StatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.CommentDAO.Transaction(ctx, func(tx *gorm.DB) error {
		commentDAO := s.CommentDAO.WithDB(tx)

		comment, err := commentDAO.GetForUpdate(ctx, commentID)
		if dao.IsNotFound(err) {
			return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
		}
		if err != nil {
			return err
		}
		switch comment.Status {
		case models.StatusActive:
		case models.StatusHidden:
			return fmt.Errorf("%w: comment %d hidden", ErrInvalidState, commentID)
		default:
			return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
		}

		reply.PostID = comment.PostID
		if reply.ReplyToUserID == 0 {
			reply.ReplyToUserID = comment.UserID
		}
		if err := s.ReplyDAO.WithDB(tx).Create(ctx, reply); err != nil {
			return err
		}
		rows, err := commentDAO.IncrementReplyCount(ctx, commentID, 1)
		if err != nil {
			return err
		}
		if rows == 0 {
			return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
		}
		return nil
	})
	if err != nil {
		return nil, wrapInternal("create reply", err, zap.Uint64("comment_id", commentID), zap.Uint64("user_id", authorID))
	}

	publish(ctx, s.Publisher, EventReplyCreated, strconv.FormatUint(reply.PostID, 10), map[string]any{
		"post_id":    strconv.FormatUint(reply.PostID, 10),
		"comment_id": strconv.FormatUint(commentID, 10),
		"reply_id":   strconv.FormatUint(reply.ID, 10),
		"user_id":    strconv.FormatUint(authorID, 10),
	})
	return reply, nil
}

// DeleteComment 作者或管理员软删除评论
func (s *ThreadService) DeleteComment(ctx context.Context, actor types.Actor, commentID uint64) error {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return err
	}
	if !actor.CanManage(comment.UserID) {
		return fmt.Errorf("%w: delete comment %d", ErrForbidden, commentID)
	}
	return s.transitionComment(ctx, commentID, models.StatusDeleted)
}

// DeleteReply 作者或管理员软删除回复
func (s *ThreadService) DeleteReply(ctx context.Context, actor types.Actor, replyID uint64) error {
	reply, err := s.getReply(ctx, replyID)
	if err != nil {
		return err
	}
	if !actor.CanManage(reply.UserID) {
		return fmt.Errorf("%w: delete reply %d", ErrForbidden, replyID)
	}
	return s.transitionReply(ctx, replyID, models.StatusDeleted)
}

// HideComment 管理员隐藏评论
func (s *ThreadService) HideComment(ctx context.Context, actor types.Actor, commentID uint64) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: hide comment %d", ErrForbidden, commentID)
	}
	return s.transitionComment(ctx, commentID, models.StatusHidden)
}

// RestoreComment 管理员恢复被隐藏的评论
func (s *ThreadService) RestoreComment(ctx context.Context, actor types.Actor, commentID uint64) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: restore comment %d", ErrForbidden, commentID)
	}
	return s.transitionComment(ctx, commentID, models.StatusActive)
}

func (s *ThreadService) HideReply(ctx context.Context, actor types.Actor, replyID uint64) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: hide reply %d", ErrForbidden, replyID)
	}
	return s.transitionReply(ctx, replyID, models.StatusHidden)
}

func (s *ThreadService) RestoreReply(ctx context.Context, actor types.Actor, replyID uint64) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: restore reply %d", ErrForbidden, replyID)
	}
	return s.transitionReply(ctx, replyID, models.StatusActive)
}

// UpdateTop 帖子作者或管理员置顶评论，只改标记
func (s *ThreadService) UpdateTop(ctx context.Context, actor types.Actor, commentID uint64, top bool) error {
	comment, err := s.getComment(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.Status != models.StatusActive {
		return fmt.Errorf("%w: comment %d is %s", ErrInvalidState, commentID, comment.Status)
	}

	post, err := s.PostDAO.GetByID(ctx, comment.PostID)
	if dao.IsNotFound(err) {
		return fmt.Errorf("%w: post %d", ErrNotFound, comment.PostID)
	}
	if err != nil {
		return wrapInternal("update top", err, zap.Uint64("comment_id", commentID))
	}
	if !actor.CanManage(post.UserID) {
		return fmt.Errorf("%w: top comment %d", ErrForbidden, commentID)
	}

	if err := s.CommentDAO.SetTop(ctx, commentID, top); err != nil {
		return wrapInternal("update top", err, zap.Uint64("comment_id", commentID))
	}
	return nil
}

// transitionComment 评论状态流转，父帖评论数按 TransitionDelta 调整
// 加锁读取、CAS 写状态、调整计数在同一事务内完成，并发删除只会减一次
func (s *ThreadService) transitionComment(ctx context.Context, commentID uint64, to models.Status) error {
	var (
		postID uint64
		delta  int64
		moved  bool
	)

	err := s.CommentDAO.Transaction(ctx, func(tx *gorm.DB) error {
		commentDAO := s.CommentDAO.WithDB(tx)

		for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
			comment, err := commentDAO.GetForUpdate(ctx, commentID)
			if dao.IsNotFound(err) {
				return fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
			}
			if err != nil {
				return err
			}

			d, ok := models.TransitionDelta(comment.Status, to)
			if !ok {
				return fmt.Errorf("%w: comment %d %s -> %s", ErrInvalidState, commentID, comment.Status, to)
			}
			if comment.Status == to {
				return nil
			}

			swapped, err := commentDAO.CompareAndSetStatus(ctx, commentID, comment.Status, to)
			if err != nil {
				return err
			}
			if !swapped {
				continue
			}

			postID, delta, moved = comment.PostID, d, true
			if d == 0 {
				return nil
			}
			rows, err := s.PostDAO.WithDB(tx).IncrReplyCount(ctx, comment.PostID, d)
			if err != nil {
				return err
			}
			if rows == 0 {
				log.L.Warn("post reply counter drift", zap.Uint64("post_id", comment.PostID), zap.Int64("delta", d))
			}
			return nil
		}
		return fmt.Errorf("%w: comment %d status keeps changing", ErrConflict, commentID)
	})
	if err != nil {
		return wrapInternal("transition comment", err, zap.Uint64("comment_id", commentID), zap.String("to", to.String()))
	}

	if moved {
		metrics.ThreadTransitions.WithLabelValues("comment", to.String()).Inc()
		publish(ctx, s.Publisher, EventThreadTransition, strconv.FormatUint(postID, 10), map[string]any{
			"kind":       "comment",
			"id":         strconv.FormatUint(commentID, 10),
			"post_id":    strconv.FormatUint(postID, 10),
			"status":     to.String(),
			"count_diff": delta,
		})
	}
	return nil
}

// transitionReply 回复状态流转，父评论回复数按 TransitionDelta 调整
func (s *ThreadService) transitionReply(ctx context.Context, replyID uint64, to models.Status) error {
	var (
		parent *models.Reply
		delta  int64
	)

	err := s.ReplyDAO.Transaction(ctx, func(tx *gorm.DB) error {
		replyDAO := s.ReplyDAO.WithDB(tx)

		for attempt := 0; attempt < maxTransitionAttempts; attempt++ {
			reply, err := replyDAO.GetForUpdate(ctx, replyID)
			if dao.IsNotFound(err) {
				return fmt.Errorf("%w: reply %d", ErrNotFound, replyID)
			}
			if err != nil {
				return err
			}

			d, ok := models.TransitionDelta(reply.Status, to)
			if !ok {
				return fmt.Errorf("%w: reply %d %s -> %s", ErrInvalidState, replyID, reply.Status, to)
			}
			if reply.Status == to {
				return nil
			}

			swapped, err := replyDAO.CompareAndSetStatus(ctx, replyID, reply.Status, to)
			if err != nil {
				return err
			}
			if !swapped {
				continue
			}

			parent, delta = reply, d
			if d == 0 {
				return nil
			}
			rows, err := s.CommentDAO.WithDB(tx).IncrementReplyCount(ctx, reply.CommentID, d)
			if err != nil {
				return err
			}
			if rows == 0 {
				log.L.Warn("comment reply counter drift", zap.Uint64("comment_id", reply.CommentID), zap.Int64("delta", d))
			}
			return nil
		}
		return fmt.Errorf("%w: reply %d status keeps changing", ErrConflict, replyID)
	})
	if err != nil {
		return wrapInternal("transition reply", err, zap.Uint64("reply_id", replyID), zap.String("to", to.String()))
	}

	if parent != nil {
		metrics.ThreadTransitions.WithLabelValues("reply", to.String()).Inc()
		publish(ctx, s.Publisher, EventThreadTransition, strconv.FormatUint(parent.PostID, 10), map[string]any{
			"kind":       "reply",
			"id":         strconv.FormatUint(replyID, 10),
			"comment_id": strconv.FormatUint(parent.CommentID, 10),
			"status":     to.String(),
			"count_diff": delta,
		})
	}
	return nil
}

func (s *ThreadService) getComment(ctx context.Context, commentID uint64) (*models.Comment, error) {
	comment, err := s.CommentDAO.GetByID(ctx, commentID)
	if dao.IsNotFound(err) {
		return nil, fmt.Errorf("%w: comment %d", ErrNotFound, commentID)
	}
	if err != nil {
		return nil, wrapInternal("get comment", err, zap.Uint64("comment_id", commentID))
	}
	return comment, nil
}

func (s *ThreadService) getReply(ctx context.Context, replyID uint64) (*models.Reply, error) {
	reply, err := s.ReplyDAO.GetByID(ctx, replyID)
	if dao.IsNotFound(err) {
		return nil, fmt.Errorf("%w: reply %d", ErrNotFound, replyID)
	}
	if err != nil {
		return nil, wrapInternal("get reply", err, zap.Uint64("reply_id", replyID))
	}
	return reply, nil
}
