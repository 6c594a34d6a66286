package models

import (
	"time"
)

// User is the single admin principal. It is created on the first successful
// login and never updated afterwards.
type User struct {
	ID           string    `json:"id" bson:"id"`
	Email        string    `json:"email" bson:"email"`
	PasswordHash string    `json:"-" bson:"password_hash"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type Album struct {
	ID          string    `json:"id" bson:"id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description" bson:"description"`
	Category    string    `json:"category" bson:"category"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// AlbumInput holds the editable fields of an album.
type AlbumInput struct {
	Name        string `json:"name" form:"name" validate:"required,max=200"`
	Description string `json:"description" form:"description" validate:"max=5000"`
	Category    string `json:"category" form:"category" validate:"required,category"`
}

type Photo struct {
	ID          string `json:"id" bson:"id"`
	AlbumID     string `json:"album_id" bson:"album_id"`
	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`
	// ImageData is a data URI: data:<mime>;base64,<payload>
	ImageData string    `json:"image_data" bson:"image_data"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

// PhotoUpload is a photo as received from a multipart form, before encoding.
type PhotoUpload struct {
	AlbumID     string `json:"album_id" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
	MimeType    string `json:"-"`
	Data        []byte `json:"-"`
}

// PhotoUpdate carries the editable fields of a photo.
type PhotoUpdate struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=5000"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
