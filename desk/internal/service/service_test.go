package service_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Astemirdum/lending-desk/desk/internal/errs"
	mock_events "github.com/Astemirdum/lending-desk/desk/internal/events/mocks"
	"github.com/Astemirdum/lending-desk/desk/internal/imagestore"
	"github.com/Astemirdum/lending-desk/desk/internal/model"
	mock_repository "github.com/Astemirdum/lending-desk/desk/internal/repository/mocks"
	"github.com/Astemirdum/lending-desk/desk/internal/service"
	"github.com/Astemirdum/lending-desk/pkg/auth"
	"github.com/Astemirdum/lending-desk/pkg/kafka"
)

type fixture struct {
	svc       *service.Service
	repo      *mock_repository.MockRepository
	publisher *mock_events.MockPublisher
	uploadDir string
	now       *time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	c := gomock.NewController(t)
	repo := mock_repository.NewMockRepository(c)
	publisher := mock_events.NewMockPublisher(c)

	now := time.Date(2024, 9, 2, 9, 30, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	dir := t.TempDir()
	images, err := imagestore.New(dir, 1<<20, zap.NewNop())
	require.NoError(t, err)

	tokens := auth.NewTokenManager(auth.Config{Secret: "test-secret", TTL: 24 * time.Hour}).WithClock(clock)
	svc := service.NewService(repo, tokens, images, publisher, service.Config{
		PublicURL: "http://127.0.0.1:8080",
		HashCost:  bcrypt.MinCost,
	}, zap.NewNop()).WithClock(clock)

	return &fixture{svc: svc, repo: repo, publisher: publisher, uploadDir: dir, now: &now}
}

func TestService_SignUpLoginResolve(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	var stored model.User
	f.repo.EXPECT().CreateUser(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, u model.User) (model.User, error) {
			require.Equal(t, "alice", u.Username)
			require.Equal(t, model.RoleStudent, u.Role)
			require.NotEqual(t, "pw1", u.PasswordHash)
			require.NotNil(t, u.StudentID)
			require.Equal(t, "S1", *u.StudentID)
			u.ID = 17
			stored = u
			return u, nil
		})

	user, err := f.svc.SignUp(ctx, model.SignUpRequest{Username: "alice", Password: "pw1", StudentID: "S1"})
	require.NoError(t, err)
	require.Equal(t, int64(17), user.ID)
	require.Equal(t, model.RoleStudent, user.Role)

	f.repo.EXPECT().GetUserByUsername(ctx, "alice").Return(stored, nil)
	resp, err := f.svc.Login(ctx, model.LoginRequest{Username: "alice", Password: "pw1"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.Equal(t, f.now.Add(24*time.Hour), resp.ExpiresAt)
	require.Equal(t, int64(17), resp.User.ID)

	f.repo.EXPECT().GetUserByID(ctx, int64(17)).Return(stored, nil)
	resolved, err := f.svc.Resolve(ctx, "Bearer "+resp.Token)
	require.NoError(t, err)
	require.Equal(t, int64(17), resolved.ID)
}

func TestService_SignUpRole(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	isStudent := false

	f.repo.EXPECT().CreateUser(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, u model.User) (model.User, error) {
			require.Equal(t, model.RoleAdmin, u.Role)
			require.Nil(t, u.StudentID)
			u.ID = 1
			return u, nil
		})
	user, err := f.svc.SignUp(ctx, model.SignUpRequest{Username: "root", Password: "pw", IsStudent: &isStudent})
	require.NoError(t, err)
	require.Equal(t, model.RoleAdmin, user.Role)
}

func TestService_SignUpDuplicate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.repo.EXPECT().CreateUser(ctx, gomock.Any()).Return(model.User{}, errs.ErrDuplicateUsername)
	_, err := f.svc.SignUp(ctx, model.SignUpRequest{Username: "alice", Password: "another"})
	require.ErrorIs(t, err, errs.ErrDuplicateUsername)

	_, err = f.svc.SignUp(ctx, model.SignUpRequest{Username: "", Password: "x"})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_SignUpPasswordBytes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	// 72 runes, 144 bytes
	_, err := f.svc.SignUp(ctx, model.SignUpRequest{Username: "zoe", Password: strings.Repeat("é", 72)})
	require.ErrorIs(t, err, errs.ErrValidation)

	f.repo.EXPECT().CreateUser(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, u model.User) (model.User, error) {
			u.ID = 3
			return u, nil
		})
	_, err = f.svc.SignUp(ctx, model.SignUpRequest{Username: "zoe", Password: strings.Repeat("é", 36)})
	require.NoError(t, err)
}

func TestService_LoginUniformFailure(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("right"), bcrypt.MinCost)
	require.NoError(t, err)

	f.repo.EXPECT().GetUserByUsername(ctx, "ghost").Return(model.User{}, errs.ErrNotFound)
	_, errUnknown := f.svc.Login(ctx, model.LoginRequest{Username: "ghost", Password: "right"})

	f.repo.EXPECT().GetUserByUsername(ctx, "bob").Return(model.User{ID: 2, Username: "bob", PasswordHash: string(hash)}, nil)
	_, errWrong := f.svc.Login(ctx, model.LoginRequest{Username: "bob", Password: "wrong"})

	require.ErrorIs(t, errUnknown, errs.ErrInvalidCredentials)
	require.ErrorIs(t, errWrong, errs.ErrInvalidCredentials)
	require.Equal(t, errUnknown.Error(), errWrong.Error())

	f.repo.EXPECT().GetUserByUsername(ctx, "bob").Return(model.User{}, errors.New("db down"))
	_, err = f.svc.Login(ctx, model.LoginRequest{Username: "bob", Password: "right"})
	require.EqualError(t, err, "db down")
}

func TestService_Resolve(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("pw"), bcrypt.MinCost)
	require.NoError(t, err)
	user := model.User{ID: 5, Username: "admin", PasswordHash: string(hash), Role: model.RoleAdmin}
	f.repo.EXPECT().GetUserByUsername(ctx, "admin").Return(user, nil)
	resp, err := f.svc.Login(ctx, model.LoginRequest{Username: "admin", Password: "pw"})
	require.NoError(t, err)

	_, err = f.svc.Resolve(ctx, "")
	require.ErrorIs(t, err, errs.ErrTokenMissing)

	_, err = f.svc.Resolve(ctx, resp.Token)
	require.ErrorIs(t, err, errs.ErrTokenMalformed)

	_, err = f.svc.Resolve(ctx, "Bearer garbage")
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	// user removed after the token was issued
	f.repo.EXPECT().GetUserByID(ctx, int64(5)).Return(model.User{}, errs.ErrNotFound)
	_, err = f.svc.Resolve(ctx, "Bearer "+resp.Token)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)

	*f.now = f.now.Add(24 * time.Hour)
	_, err = f.svc.Resolve(ctx, "Bearer "+resp.Token)
	require.ErrorIs(t, err, errs.ErrTokenInvalid)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()
	require.NoError(t, service.RequireRole(model.User{Role: model.RoleAdmin}, model.RoleAdmin))
	require.ErrorIs(t, service.RequireRole(model.User{Role: model.RoleStudent}, model.RoleAdmin), errs.ErrForbidden)
}

func TestService_CheckIn(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	due := f.now.Add(14 * 24 * time.Hour)

	loan := model.Loan{ID: 1, UserID: 3, BookID: 1, BorrowedAt: *f.now, DueDate: due, Status: model.LoanCurrent}
	f.repo.EXPECT().CheckIn(ctx, "S1", int64(1), *f.now, due).Return(loan, nil)
	f.publisher.EXPECT().Publish(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, e kafka.Event) error {
			require.Equal(t, kafka.EventCheckIn, e.Type)
			require.Equal(t, int64(3), e.UserID)
			require.Equal(t, int64(1), e.BookID)
			require.Equal(t, int64(1), e.LoanID)
			return nil
		})

	got, err := f.svc.CheckIn(ctx, model.CheckInRequest{StudentID: "S1", BookID: 1})
	require.NoError(t, err)
	require.Equal(t, loan, got)
	require.Equal(t, 14*24*time.Hour, got.DueDate.Sub(got.BorrowedAt))
}

func TestService_CheckInFailures(t *testing.T) {
	t.Parallel()
	for _, want := range []error{errs.ErrStudentNotFound, errs.ErrBookNotFound, errs.ErrAlreadyBorrowed} {
		want := want
		t.Run(want.Error(), func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			ctx := context.Background()
			f.repo.EXPECT().CheckIn(ctx, "S1", int64(1), gomock.Any(), gomock.Any()).Return(model.Loan{}, want)
			_, err := f.svc.CheckIn(ctx, model.CheckInRequest{StudentID: "S1", BookID: 1})
			require.ErrorIs(t, err, want)
		})
	}

	f := newFixture(t)
	_, err := f.svc.CheckIn(context.Background(), model.CheckInRequest{BookID: 1})
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_CheckOut(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	completed := *f.now
	loan := model.Loan{ID: 1, UserID: 3, BookID: 1, Status: model.LoanCompleted, CompletionDate: &completed}
	f.repo.EXPECT().CheckOut(ctx, int64(1), *f.now).Return(loan, nil)
	f.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(errors.New("broker down"))

	got, err := f.svc.CheckOut(ctx, model.CheckOutRequest{BookID: 1})
	require.NoError(t, err, "publishing is best effort")
	require.Equal(t, model.LoanCompleted, got.Status)

	f.repo.EXPECT().CheckOut(ctx, int64(2), gomock.Any()).Return(model.Loan{}, errs.ErrNoActiveLoan)
	_, err = f.svc.CheckOut(ctx, model.CheckOutRequest{BookID: 2})
	require.ErrorIs(t, err, errs.ErrNoActiveLoan)

	f.repo.EXPECT().CheckOut(ctx, int64(3), gomock.Any()).Return(model.Loan{}, errs.ErrNotBorrowed)
	_, err = f.svc.CheckOut(ctx, model.CheckOutRequest{BookID: 3})
	require.ErrorIs(t, err, errs.ErrNotBorrowed)
}

func TestService_ToggleLike(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.repo.EXPECT().ToggleLike(ctx, int64(4), int64(1)).Return(model.Review{ID: 4, BookID: 2, Likes: []int64{1}}, true, nil)
	f.publisher.EXPECT().Publish(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, e kafka.Event) error {
			require.Equal(t, kafka.EventReviewLiked, e.Type)
			require.Equal(t, int64(4), e.ReviewID)
			return nil
		})
	review, liked, err := f.svc.ToggleLike(ctx, 4, 1)
	require.NoError(t, err)
	require.True(t, liked)
	require.Equal(t, []int64{1}, review.Likes)

	f.repo.EXPECT().ToggleLike(ctx, int64(4), int64(1)).Return(model.Review{ID: 4, BookID: 2, Likes: []int64{}}, false, nil)
	f.publisher.EXPECT().Publish(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, e kafka.Event) error {
			require.Equal(t, kafka.EventReviewUnliked, e.Type)
			return nil
		})
	review, liked, err = f.svc.ToggleLike(ctx, 4, 1)
	require.NoError(t, err)
	require.False(t, liked)
	require.Empty(t, review.Likes)

	f.repo.EXPECT().ToggleLike(ctx, int64(99), int64(1)).Return(model.Review{}, false, errs.ErrReviewNotFound)
	_, _, err = f.svc.ToggleLike(ctx, 99, 1)
	require.ErrorIs(t, err, errs.ErrReviewNotFound)
}

func TestService_PostReview(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.repo.EXPECT().CreateReview(ctx, model.Review{BookID: 2, UserID: 3, ReviewText: "great", Timestamp: *f.now}).
		Return(model.Review{ID: 8, BookID: 2, UserID: 3, ReviewText: "great", Timestamp: *f.now, Likes: []int64{}}, nil)
	f.publisher.EXPECT().Publish(ctx, gomock.Any()).Return(nil)

	review, err := f.svc.PostReview(ctx, 3, model.PostReviewRequest{BookID: 2, ReviewText: "great"})
	require.NoError(t, err)
	require.Equal(t, int64(8), review.ID)

	_, err = f.svc.PostReview(ctx, 3, model.PostReviewRequest{BookID: 2, ReviewText: "   "})
	require.ErrorIs(t, err, errs.ErrValidation)

	f.repo.EXPECT().CreateReview(ctx, gomock.Any()).Return(model.Review{}, errs.ErrBookNotFound)
	_, err = f.svc.PostReview(ctx, 3, model.PostReviewRequest{BookID: 404, ReviewText: "?"})
	require.ErrorIs(t, err, errs.ErrBookNotFound)
}

func TestService_CreateBook(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	var storedName string
	f.repo.EXPECT().CreateBook(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, b model.Book) (model.Book, error) {
			require.Equal(t, "Dune", b.Title)
			require.NotNil(t, b.ImageFilename)
			require.True(t, strings.HasSuffix(*b.ImageFilename, "_dune_cover.jpg"))
			require.Nil(t, b.Barcode)
			storedName = *b.ImageFilename
			b.ID = 1
			return b, nil
		})
	book, err := f.svc.CreateBook(ctx, model.CreateBookRequest{Title: "Dune", Author: "Frank Herbert"},
		&model.Upload{Filename: "dune cover.jpg", Content: strings.NewReader("img")})
	require.NoError(t, err)
	require.NotNil(t, book.ImageURL)
	require.Equal(t, "http://127.0.0.1:8080/uploads/images/"+storedName, *book.ImageURL)
	_, err = os.Stat(filepath.Join(f.uploadDir, storedName))
	require.NoError(t, err)

	_, err = f.svc.CreateBook(ctx, model.CreateBookRequest{Title: "X", Author: "Y"},
		&model.Upload{Filename: "...", Content: strings.NewReader("img")})
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.svc.CreateBook(ctx, model.CreateBookRequest{Title: "X"}, nil)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestService_CreateBookFailureKeepsOtherImages(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	var first string
	f.repo.EXPECT().CreateBook(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, b model.Book) (model.Book, error) {
			first = *b.ImageFilename
			b.ID = 1
			return b, nil
		})
	_, err := f.svc.CreateBook(ctx, model.CreateBookRequest{Title: "Dune", Author: "Frank Herbert", Barcode: "B001"},
		&model.Upload{Filename: "cover.jpg", Content: strings.NewReader("dune")})
	require.NoError(t, err)

	// same upload name, insert fails on the barcode
	var second string
	f.repo.EXPECT().CreateBook(ctx, gomock.Any()).
		DoAndReturn(func(_ context.Context, b model.Book) (model.Book, error) {
			second = *b.ImageFilename
			return model.Book{}, errs.ErrDuplicateBarcode
		})
	_, err = f.svc.CreateBook(ctx, model.CreateBookRequest{Title: "Emma", Author: "Jane Austen", Barcode: "B001"},
		&model.Upload{Filename: "cover.jpg", Content: strings.NewReader("emma")})
	require.ErrorIs(t, err, errs.ErrDuplicateBarcode)
	require.NotEqual(t, first, second)

	data, err := os.ReadFile(filepath.Join(f.uploadDir, first))
	require.NoError(t, err)
	require.Equal(t, "dune", string(data))

	_, err = os.Stat(filepath.Join(f.uploadDir, second))
	require.True(t, os.IsNotExist(err))
}

func TestService_ListBooksImageURL(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	name := "1984.jpg"

	f.repo.EXPECT().ListBooks(ctx).Return([]model.Book{
		{ID: 1, Title: "1984", ImageFilename: &name, Status: model.BookAvailable},
		{ID: 2, Title: "Emma", Status: model.BookBorrowed},
	}, nil)
	books, err := f.svc.ListBooks(ctx)
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.Equal(t, "http://127.0.0.1:8080/uploads/images/1984.jpg", *books[0].ImageURL)
	require.Nil(t, books[1].ImageURL)

	_, err = f.svc.GetBookByBarcode(ctx, "")
	require.ErrorIs(t, err, errs.ErrBookNotFound)
}
