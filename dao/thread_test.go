package dao

import (
	"Agora/models"
	"Agora/pkg/snowflake"
	"Agora/pkg/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newComment(t *testing.T, d *Comment, postID uint64, createdAt time.Time) *models.Comment {
	t.Helper()
	comment := &models.Comment{
		ID:        snowflake.GenID(),
		PostID:    postID,
		UserID:    2,
		Content:   "comment",
		Status:    models.StatusActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, d.Create(context.Background(), comment))
	return comment
}

func newReply(t *testing.T, d *Reply, comment *models.Comment, createdAt time.Time) *models.Reply {
	t.Helper()
	reply := &models.Reply{
		ID:        snowflake.GenID(),
		CommentID: comment.ID,
		PostID:    comment.PostID,
		UserID:    3,
		Content:   "reply",
		Status:    models.StatusActive,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, d.Create(context.Background(), reply))
	return reply
}

func TestComment_CursorSameTimestamp(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	comments := NewComment(db)

	// 同一时间戳的评论不能在翻页时丢失
	at := time.Now().UTC()
	want := map[uint64]bool{}
	for i := 0; i < 3; i++ {
		want[newComment(t, comments, 1, at).ID] = true
	}
	newComment(t, comments, 1, at.Add(-time.Second))

	var (
		seen     []uint64
		cursorAt int64
		cursorID uint64
	)
	for {
		page, err := comments.GetCommentsByCursor(ctx, 1, cursorAt, cursorID, 1)
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		require.Len(t, page, 1)
		seen = append(seen, page[0].ID)
		cursorAt, cursorID = page[0].CreatedAt.UnixNano(), page[0].ID
	}

	require.Len(t, seen, 4)
	for _, id := range seen[:3] {
		assert.True(t, want[id])
	}
	assert.Greater(t, seen[0], seen[1])
	assert.Greater(t, seen[1], seen[2])
}

func TestReply_CursorSameTimestamp(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	comment := newComment(t, NewComment(db), 1, time.Now().UTC())
	replies := NewReply(db)

	at := time.Now().UTC()
	var ids []uint64
	for i := 0; i < 3; i++ {
		ids = append(ids, newReply(t, replies, comment, at).ID)
	}

	first, err := replies.GetRepliesByCursor(ctx, comment.ID, 0, 0, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)

	last := first[1]
	rest, err := replies.GetRepliesByCursor(ctx, comment.ID, last.CreatedAt.UnixNano(), last.ID, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)

	assert.ElementsMatch(t, ids, []uint64{first[0].ID, first[1].ID, rest[0].ID})
}

func TestReply_BatchGetLatestReplies(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	comments := NewComment(db)
	replies := NewReply(db)

	base := time.Now().UTC()
	busy := newComment(t, comments, 1, base)
	quiet := newComment(t, comments, 1, base)
	empty := newComment(t, comments, 1, base)

	var busyIDs []uint64
	for i := 0; i < 5; i++ {
		busyIDs = append(busyIDs, newReply(t, replies, busy, base.Add(time.Duration(i)*time.Second)).ID)
	}
	quietReply := newReply(t, replies, quiet, base)
	hidden := newReply(t, replies, quiet, base.Add(time.Minute))
	_, err := replies.CompareAndSetStatus(ctx, hidden.ID, models.StatusActive, models.StatusDeleted)
	require.NoError(t, err)

	got, err := replies.BatchGetLatestReplies(ctx, []uint64{busy.ID, quiet.ID, empty.ID}, 2)
	require.NoError(t, err)

	require.Len(t, got[busy.ID], 2)
	assert.Equal(t, busyIDs[4], got[busy.ID][0].ID)
	assert.Equal(t, busyIDs[3], got[busy.ID][1].ID)
	require.Len(t, got[quiet.ID], 1)
	assert.Equal(t, quietReply.ID, got[quiet.ID][0].ID)
	assert.Empty(t, got[empty.ID])

	got, err = replies.BatchGetLatestReplies(ctx, []uint64{busy.ID}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecount(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()
	posts := NewPostDAO(db)
	comments := NewComment(db)
	replies := NewReply(db)
	likes := NewLikeDAO(db)

	post := newPost(t, posts, models.PostPublished)
	comment := newComment(t, comments, post.ID, time.Now().UTC())
	reply := newReply(t, replies, comment, time.Now().UTC())
	for _, f := range []struct {
		id   uint64
		kind models.TargetKind
	}{{post.ID, models.TargetPost}, {comment.ID, models.TargetComment}, {reply.ID, models.TargetReply}} {
		require.NoError(t, likes.Create(ctx, &models.LikeFact{
			ID: snowflake.GenID(), UserID: 9, TargetID: f.id, TargetKind: f.kind, CreatedAt: time.Now().UTC(),
		}))
	}

	// 计数全为 0，与事实行不一致
	n, err := replies.RecountLikesByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = comments.RecountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, err = posts.Recount(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	p, err := posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.LikeCount)
	assert.EqualValues(t, 1, p.ReplyCount)
	c, err := comments.GetByID(ctx, comment.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, c.LikeCount)
	assert.EqualValues(t, 1, c.ReplyCount)
	r, err := replies.GetByID(ctx, reply.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, r.LikeCount)

	// 已一致时不再写
	n, err = posts.Recount(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
	n, err = comments.RecountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Zero(t, n)
}
