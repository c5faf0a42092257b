package searchhttp

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/theplant/searchspec"
	"github.com/theplant/searchspec/filter"
)

// Repository is what a resource needs from its storage.
// *gormsearch.Repository[T] implements it.
type Repository[T any] interface {
	searchspec.Searcher[T]
	FindAll(ctx context.Context, page, size int) (*searchspec.Page[T], error)
	List(ctx context.Context) ([]T, error)
	FindByID(ctx context.Context, id string) (*T, error)
	Save(ctx context.Context, entity *T) (*T, error)
	Update(ctx context.Context, entity *T) (*T, error)
	Delete(ctx context.Context, id string) error
	DistinctValues(ctx context.Context, key string) ([]any, error)
}

// view serves searches over a read-only source.
type view[T any] struct {
	searcher searchspec.Searcher[T]
	logger   logrus.FieldLogger
}

type resource[T any] struct {
	*view[T]
	repo Repository[T]
}

type pageQuery struct {
	Page *int64 `form:"page"`
	Size *int64 `form:"size"`
}

// Register mounts the search and CRUD routes of repo under /name on r.
func Register[T any](r gin.IRouter, name string, repo Repository[T], logger logrus.FieldLogger) {
	res := &resource[T]{view: &view[T]{searcher: repo, logger: logger}, repo: repo}

	g := r.Group("/" + name)
	g.POST("/search", res.search)
	g.GET("", res.findAll)
	g.GET("/all", res.list)
	g.GET("/unique", res.distinctValues)
	g.GET("/:id", res.findByID)
	g.POST("", res.save)
	g.PUT("", res.update)
	g.DELETE("/:id", res.delete)
}

// RegisterView mounts only the search route of searcher under /name on r.
// Views have no write or lookup routes.
func RegisterView[T any](r gin.IRouter, name string, searcher searchspec.Searcher[T], logger logrus.FieldLogger) {
	v := &view[T]{searcher: searcher, logger: logger}
	r.Group("/"+name).POST("/search", v.search)
}

func (v *view[T]) fail(c *gin.Context, err error) {
	abortWithError(c, v.logger, err)
}

func (v *view[T]) search(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		v.fail(c, invalidRequest(err, "read body"))
		return
	}
	req, err := searchspec.ParseSearchRequest(body)
	if err != nil {
		v.fail(c, err)
		return
	}
	page, err := v.searcher.Search(c.Request.Context(), req)
	if err != nil {
		v.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (res *resource[T]) findAll(c *gin.Context) {
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		res.fail(c, invalidRequest(err, "bind page query"))
		return
	}
	page := lo.FromPtr(searchspec.PtrAs[int64, int](q.Page))
	size := lo.FromPtr(searchspec.PtrAs[int64, int](q.Size))
	result, err := res.repo.FindAll(c.Request.Context(), page, size)
	if err != nil {
		res.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (res *resource[T]) list(c *gin.Context) {
	entities, err := res.repo.List(c.Request.Context())
	if err != nil {
		res.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entities)
}

func (res *resource[T]) distinctValues(c *gin.Context) {
	key := c.Query("field_name")
	if key == "" {
		res.fail(c, filter.Errorf(filter.ErrMissingRequiredValue, "", "field_name is required"))
		return
	}
	values, err := res.repo.DistinctValues(c.Request.Context(), key)
	if err != nil {
		res.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, values)
}

func (res *resource[T]) findByID(c *gin.Context) {
	entity, err := res.repo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		res.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, entity)
}

func (res *resource[T]) bindEntity(c *gin.Context) (*T, bool) {
	entity := new(T)
	if err := c.ShouldBindJSON(entity); err != nil {
		res.fail(c, invalidRequest(err, "bind entity"))
		return nil, false
	}
	return entity, true
}

func (res *resource[T]) save(c *gin.Context) {
	entity, ok := res.bindEntity(c)
	if !ok {
		return
	}
	saved, err := res.repo.Save(c.Request.Context(), entity)
	if err != nil {
		res.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, saved)
}

func (res *resource[T]) update(c *gin.Context) {
	entity, ok := res.bindEntity(c)
	if !ok {
		return
	}
	updated, err := res.repo.Update(c.Request.Context(), entity)
	if err != nil {
		res.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (res *resource[T]) delete(c *gin.Context) {
	if err := res.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		res.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}
