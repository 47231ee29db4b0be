package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Post struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Author    string             `bson:"author" json:"author"`
	Caption   string             `bson:"caption" json:"caption"`
	Likes     []string           `bson:"likes" json:"likes"`
	Comments  []string           `bson:"comments" json:"comments"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

type Comment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Text      string             `bson:"text" json:"text"`
	Author    string             `bson:"author" json:"author"`
	Post      string             `bson:"post" json:"post"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}
