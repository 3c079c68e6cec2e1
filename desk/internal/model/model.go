package model

import (
	"io"
	"time"
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleStudent Role = "student"
)

type User struct {
	ID           int64     `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	StudentID    *string   `json:"student_id" db:"student_id"`
	CreatedAt    time.Time `json:"-" db:"created_at"`
}

func (u User) HasRole(r Role) bool {
	return u.Role == r
}

type BookStatus string

const (
	BookAvailable BookStatus = "available"
	BookBorrowed  BookStatus = "borrowed"
)

type Book struct {
	ID            int64      `json:"id" db:"id"`
	Title         string     `json:"title" db:"title"`
	Author        string     `json:"author" db:"author"`
	Description   *string    `json:"description" db:"description"`
	ImageFilename *string    `json:"-" db:"image_filename"`
	ImageURL      *string    `json:"image_url" db:"-"`
	Genre         *string    `json:"genre" db:"genre"`
	Language      *string    `json:"language" db:"language"`
	Barcode       *string    `json:"barcode" db:"barcode"`
	Status        BookStatus `json:"status" db:"status"`
}

type LoanStatus string

const (
	LoanCurrent   LoanStatus = "current"
	LoanCompleted LoanStatus = "completed"
)

// Loan is a lending record. At most one current loan exists per book.
type Loan struct {
	ID             int64      `json:"id"`
	UserID         int64      `json:"user_id"`
	BookID         int64      `json:"book_id"`
	BorrowedAt     time.Time  `json:"borrowed_at"`
	DueDate        time.Time  `json:"due_date"`
	Status         LoanStatus `json:"status"`
	CompletionDate *time.Time `json:"completion_date"`
	Book           LoanBook   `json:"book"`
	User           LoanUser   `json:"user"`
}

type LoanBook struct {
	ID      int64   `json:"id"`
	Title   string  `json:"title"`
	Author  string  `json:"author"`
	Barcode *string `json:"barcode"`
}

type LoanUser struct {
	ID        int64   `json:"id"`
	Username  string  `json:"username"`
	StudentID *string `json:"student_id"`
}

type Review struct {
	ID           int64     `json:"id"`
	ReviewText   string    `json:"review_text"`
	Timestamp    time.Time `json:"timestamp"`
	BookID       int64     `json:"book_id"`
	UserID       int64     `json:"user_id"`
	BookTitle    string    `json:"book_title"`
	ReviewerName string    `json:"reviewer_name"`
	Likes        []int64   `json:"likes"`
}

// ReviewLike is a row of the like relation, unique per (user, review).
type ReviewLike struct {
	UserID   int64 `db:"user_id"`
	ReviewID int64 `db:"review_id"`
}

type SignUpRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Password string `json:"password" validate:"required,max=72"`
	// IsStudent defaults to true when omitted.
	IsStudent *bool  `json:"isStudent"`
	StudentID string `json:"studentId" validate:"max=64"`
}

func (r SignUpRequest) Role() Role {
	if r.IsStudent != nil && !*r.IsStudent {
		return RoleAdmin
	}
	return RoleStudent
}

type SignUpResponse struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      User      `json:"user"`
}

type CreateBookRequest struct {
	Title       string `json:"title" form:"title" validate:"required,max=120"`
	Author      string `json:"author" form:"author" validate:"required,max=80"`
	Description string `json:"description" form:"description"`
	Genre       string `json:"genre" form:"genre" validate:"max=50"`
	Language    string `json:"language" form:"language" validate:"max=50"`
	Barcode     string `json:"barcode" form:"barcode" validate:"max=64"`
	// ImageFilename references an already stored image (used by seeding).
	ImageFilename string `json:"image_filename" form:"-"`
}

// Upload is an image received with a book creation request.
type Upload struct {
	Filename string
	Content  io.Reader
}

type CheckInRequest struct {
	StudentID string `json:"studentId" validate:"required"`
	BookID    int64  `json:"bookId" validate:"required,gt=0"`
}

type CheckOutRequest struct {
	BookID int64 `json:"bookId" validate:"required,gt=0"`
}

type LoanResponse struct {
	Message string `json:"message"`
	Reading Loan   `json:"reading"`
}

type PostReviewRequest struct {
	BookID     int64  `json:"bookId" validate:"required,gt=0"`
	ReviewText string `json:"reviewText" validate:"required"`
}

type LikeResponse struct {
	Message string `json:"message"`
	Review  Review `json:"review"`
}
