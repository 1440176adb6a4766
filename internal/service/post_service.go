package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"mamane/internal/model"
	"mamane/internal/pkg"
	"mamane/internal/repository/mysql"
	"mamane/internal/repository/redis"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	PageSize   = 20
	RankingTop = 20

	titleMin, titleMax     = 5, 100
	contentMin, contentMax = 10, 1000
	commentMax             = 500
)

// PostService covers trivia, comments and the public category list.
type PostService struct {
	posts      *mysql.PostRepository
	comments   *mysql.CommentRepository
	categories *mysql.CategoryRepository
	users      *mysql.UserRepository
	cache      *redis.ReactionCacheRepository
}

func NewPostService(db *gorm.DB, rdb *goredis.Client) *PostService {
	s := &PostService{
		posts:      &mysql.PostRepository{DB: db},
		comments:   &mysql.CommentRepository{DB: db},
		categories: &mysql.CategoryRepository{DB: db},
		users:      &mysql.UserRepository{DB: db},
	}
	if rdb != nil {
		s.cache = redis.NewReactionCacheRepository(rdb)
	}
	return s
}

type PostInput struct {
	Title      string
	Content    string
	CategoryID *string
}

// Page is one slice of a newest-first listing.
type Page struct {
	Data    []model.PostDetail `json:"data"`
	HasMore bool               `json:"hasMore"`
}

func (s *PostService) CreatePost(ctx context.Context, authorID string, in PostInput) (*model.Post, error) {
	title, content := strings.TrimSpace(in.Title), strings.TrimSpace(in.Content)
	if n := utf8.RuneCountInString(title); n < titleMin || n > titleMax {
		return nil, pkg.NewError(pkg.KindInvalid, "title must be 5 to 100 characters")
	}
	if n := utf8.RuneCountInString(content); n < contentMin || n > contentMax {
		return nil, pkg.NewError(pkg.KindInvalid, "content must be 10 to 1000 characters")
	}
	if err := s.requireActive(ctx, authorID); err != nil {
		return nil, err
	}

	var categoryID *string
	if in.CategoryID != nil && *in.CategoryID != "" {
		c, err := s.categories.FindByID(ctx, *in.CategoryID)
		if err != nil {
			return nil, pkg.Dependency("failed to load category", err)
		}
		if c == nil {
			return nil, pkg.ErrCategoryNotFound
		}
		categoryID = &c.ID
	}

	post := &model.Post{OwnerID: authorID, CategoryID: categoryID, Title: title, Content: content}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, pkg.Dependency("failed to create trivia", err)
	}
	return post, nil
}

func (s *PostService) Get(ctx context.Context, postID string) (*model.PostDetail, error) {
	if postID == "" {
		return nil, pkg.ErrInvalidID
	}
	list, err := s.posts.ListDetails(ctx, mysql.PostQuery{ID: postID, Limit: 1})
	if err != nil {
		return nil, pkg.Dependency("failed to load trivia", err)
	}
	if len(list) == 0 {
		return nil, pkg.ErrPostNotFound
	}
	return &list[0], nil
}

// List returns page (zero-based) of the newest trivia.
func (s *PostService) List(ctx context.Context, page int) (*Page, error) {
	return s.page(ctx, mysql.PostQuery{}, page)
}

func (s *PostService) ListByCategory(ctx context.Context, slug string, page int) (*model.Category, *Page, error) {
	c, err := s.categories.FindBySlug(ctx, slug)
	if err != nil {
		return nil, nil, pkg.Dependency("failed to load category", err)
	}
	if c == nil {
		return nil, nil, pkg.ErrCategoryNotFound
	}
	p, err := s.page(ctx, mysql.PostQuery{CategorySlug: slug}, page)
	return c, p, err
}

func (s *PostService) ListByOwner(ctx context.Context, ownerID string, page int) (*Page, error) {
	return s.page(ctx, mysql.PostQuery{OwnerID: ownerID}, page)
}

// Search matches title or content, most reacted first.
func (s *PostService) Search(ctx context.Context, q string) ([]model.PostDetail, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []model.PostDetail{}, nil
	}
	return s.details(ctx, mysql.PostQuery{Search: q, ByRanking: true, Limit: PageSize})
}

func (s *PostService) Ranking(ctx context.Context) ([]model.PostDetail, []model.RankedUser, error) {
	posts, err := s.details(ctx, mysql.PostQuery{ByRanking: true, Limit: RankingTop})
	if err != nil {
		return nil, nil, err
	}
	users, err := s.users.Ranking(ctx, RankingTop)
	if err != nil {
		return nil, nil, pkg.Dependency("failed to load ranking", err)
	}
	if users == nil {
		users = []model.RankedUser{}
	}
	return posts, users, nil
}

func (s *PostService) page(ctx context.Context, q mysql.PostQuery, page int) (*Page, error) {
	if page < 0 {
		page = 0
	}
	q.Offset, q.Limit = page*PageSize, PageSize
	list, err := s.details(ctx, q)
	if err != nil {
		return nil, err
	}
	return &Page{Data: list, HasMore: len(list) == PageSize}, nil
}

func (s *PostService) details(ctx context.Context, q mysql.PostQuery) ([]model.PostDetail, error) {
	list, err := s.posts.ListDetails(ctx, q)
	if err != nil {
		return nil, pkg.Dependency("failed to list trivia", err)
	}
	if list == nil {
		list = []model.PostDetail{}
	}
	return list, nil
}

// DeletePost lets the author or an admin remove a post with its reactions, favorites and comments.
func (s *PostService) DeletePost(ctx context.Context, actorID, postID string) error {
	if postID == "" {
		return pkg.ErrInvalidID
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return pkg.Dependency("failed to load trivia", err)
	}
	if post == nil {
		return pkg.ErrPostNotFound
	}
	if post.OwnerID != actorID {
		if err := s.requireAdmin(ctx, actorID); err != nil {
			return err
		}
	}
	if _, err := s.posts.DeleteByID(ctx, postID); err != nil {
		return pkg.Dependency("failed to delete trivia", err)
	}
	if s.cache != nil {
		_ = s.cache.Forget(ctx, postID)
	}
	return nil
}

func (s *PostService) CreateComment(ctx context.Context, authorID, postID, content string) (*model.Comment, error) {
	if postID == "" {
		return nil, pkg.ErrInvalidID
	}
	content = strings.TrimSpace(content)
	if content == "" || utf8.RuneCountInString(content) > commentMax {
		return nil, pkg.NewError(pkg.KindInvalid, "comment must be 1 to 500 characters")
	}
	if err := s.requireActive(ctx, authorID); err != nil {
		return nil, err
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, pkg.Dependency("failed to load trivia", err)
	}
	if post == nil {
		return nil, pkg.ErrPostNotFound
	}

	c := &model.Comment{PostID: postID, AuthorID: authorID, Content: content}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, pkg.Dependency("failed to add comment", err)
	}
	return c, nil
}

// ListComments returns the thread oldest first.
func (s *PostService) ListComments(ctx context.Context, postID string) ([]model.CommentWithAuthor, error) {
	if postID == "" {
		return nil, pkg.ErrInvalidID
	}
	list, err := s.comments.ListByPost(ctx, postID)
	if err != nil {
		return nil, pkg.Dependency("failed to list comments", err)
	}
	if list == nil {
		list = []model.CommentWithAuthor{}
	}
	return list, nil
}

func (s *PostService) DeleteComment(ctx context.Context, actorID, commentID string) error {
	if commentID == "" {
		return pkg.ErrInvalidID
	}
	c, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return pkg.Dependency("failed to load comment", err)
	}
	if c == nil {
		return pkg.ErrCommentNotFound
	}
	if c.AuthorID != actorID {
		if err := s.requireAdmin(ctx, actorID); err != nil {
			return err
		}
	}
	if _, err := s.comments.DeleteByID(ctx, commentID); err != nil {
		return pkg.Dependency("failed to delete comment", err)
	}
	return nil
}

func (s *PostService) Categories(ctx context.Context) ([]model.Category, error) {
	list, err := s.categories.List(ctx)
	if err != nil {
		return nil, pkg.Dependency("failed to list categories", err)
	}
	if list == nil {
		list = []model.Category{}
	}
	return list, nil
}

func (s *PostService) requireActive(ctx context.Context, userID string) error {
	if userID == "" {
		return pkg.ErrUnauthorized
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return pkg.Dependency("failed to load profile", err)
	}
	if u == nil {
		return pkg.ErrUnauthorized
	}
	if u.IsBanned {
		return pkg.ErrBanned
	}
	return nil
}

// requireAdmin is used when the actor is not the author.
func (s *PostService) requireAdmin(ctx context.Context, userID string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return pkg.Dependency("failed to load profile", err)
	}
	if u == nil || !u.IsAdmin {
		return pkg.ErrNotOwner
	}
	return nil
}
