package repository

import (
	"Orion_Video/internal/model"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collectionVideoComments = "video_comments"

// 一个视频一篇文档，评论是文档里的数组，数组顺序就是存储顺序
type threadDocument struct {
	VideoID   uint64            `bson:"videoId"`
	NextSeq   uint64            `bson:"nextSeq"`
	Comments  []commentDocument `bson:"comments"`
	CreatedAt time.Time         `bson:"createdAt"`
}

type commentDocument struct {
	ID          string    `bson:"id"`
	Seq         uint64    `bson:"seq"`
	AuthorID    uint64    `bson:"authorId"`
	AuthorName  string    `bson:"authorName"`
	AuthorImage string    `bson:"authorImage"`
	Content     string    `bson:"content"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

// mongoCommentRepository 用文档数据库的原子数组操作（$push/$pull/$set）代替整串读-改-写
type mongoCommentRepository struct {
	coll *mongo.Collection
}

var _ CommentRepository = (*mongoCommentRepository)(nil)

// NewMongoCommentRepository 创建基于MongoDB的评论存储，并确保 videoId 唯一索引存在
func NewMongoCommentRepository(ctx context.Context, db *mongo.Database) (CommentRepository, error) {
	coll := db.Collection(collectionVideoComments)
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "videoId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return &mongoCommentRepository{coll: coll}, nil
}

func (r *mongoCommentRepository) FindThread(ctx context.Context, videoID uint64) (*model.CommentThread, error) {
	var doc threadDocument
	err := r.coll.FindOne(ctx, bson.M{"videoId": videoID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrThreadNotFound
	}
	if err != nil {
		return nil, err
	}
	thread := &model.CommentThread{VideoID: doc.VideoID, NextSeq: doc.NextSeq}
	thread.CreatedAt = doc.CreatedAt
	thread.Comments = make([]model.Comment, 0, len(doc.Comments))
	for _, c := range doc.Comments {
		thread.Comments = append(thread.Comments, c.toModel(videoID))
	}
	return thread, nil
}

func (r *mongoCommentRepository) FindComment(ctx context.Context, videoID uint64, commentID string) (*model.Comment, error) {
	thread, err := r.FindThread(ctx, videoID)
	if errors.Is(err, ErrThreadNotFound) {
		return nil, ErrCommentNotFound
	}
	if err != nil {
		return nil, err
	}
	for i := range thread.Comments {
		if thread.Comments[i].ID == commentID {
			return &thread.Comments[i], nil
		}
	}
	return nil, ErrCommentNotFound
}

// 追加：upsert + $push，文档不存在时由MongoDB原子地创建
func (r *mongoCommentRepository) Append(ctx context.Context, videoID uint64, comment *model.Comment) error {
	// 先原子地领取序号
	var seqDoc struct {
		NextSeq uint64 `bson:"nextSeq"`
	}
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"videoId": videoID},
		bson.M{
			"$inc":         bson.M{"nextSeq": 1},
			"$setOnInsert": bson.M{"createdAt": time.Now(), "comments": bson.A{}},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before),
	).Decode(&seqDoc)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return err
	}

	comment.VideoID = videoID
	comment.Seq = seqDoc.NextSeq
	_, err = r.coll.UpdateOne(ctx,
		bson.M{"videoId": videoID},
		bson.M{"$push": bson.M{"comments": fromModel(comment)}},
	)
	return err
}

func (r *mongoCommentRepository) UpdateContent(ctx context.Context, videoID uint64, commentID, content string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"videoId": videoID, "comments.id": commentID},
		bson.M{"$set": bson.M{
			"comments.$.content":   content,
			"comments.$.updatedAt": time.Now(),
		}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *mongoCommentRepository) Delete(ctx context.Context, videoID uint64, commentID string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"videoId": videoID, "comments.id": commentID},
		bson.M{"$pull": bson.M{"comments": bson.M{"id": commentID}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrCommentNotFound
	}
	return nil
}

func (r *mongoCommentRepository) DeleteThread(ctx context.Context, videoID uint64) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"videoId": videoID})
	return err
}

func fromModel(c *model.Comment) commentDocument {
	return commentDocument{
		ID:          c.ID,
		Seq:         c.Seq,
		AuthorID:    c.AuthorID,
		AuthorName:  c.AuthorName,
		AuthorImage: c.AuthorImage,
		Content:     c.Content,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

func (d commentDocument) toModel(videoID uint64) model.Comment {
	return model.Comment{
		ID:          d.ID,
		VideoID:     videoID,
		Seq:         d.Seq,
		AuthorID:    d.AuthorID,
		AuthorName:  d.AuthorName,
		AuthorImage: d.AuthorImage,
		Content:     d.Content,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}
