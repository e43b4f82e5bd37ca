package course

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/trezcool/tutorhub/core"
)

// Actor resolves the currently logged-in user, if any.
type Actor interface {
	CurrentUserID() (string, bool)
}

// Controller owns an in-memory list of course records mirroring backend
// state. All five operations share one loading flag and one last-error
// slot, both overwritten on every new call (last-write-wins, no queuing).
// Backend errors never propagate past the controller: callers check the
// returned value and Err().
type Controller struct {
	repo   Repository
	actor  Actor
	logger core.Logger

	mu      sync.RWMutex
	courses []Course
	loading bool
	errMsg  string
}

func NewController(repo Repository, actor Actor, logger core.Logger) *Controller {
	return &Controller{repo: repo, actor: actor, logger: logger}
}

// FetchAll replaces the entire local list with backend results,
// newest-first. On failure the list resets to empty.
func (c *Controller) FetchAll(ctx context.Context) {
	c.fetch(ctx, Filter{})
}

// FetchByOwner is FetchAll restricted to one tutor's courses.
func (c *Controller) FetchByOwner(ctx context.Context, ownerID string) {
	c.fetch(ctx, Filter{OwnerID: ownerID})
}

func (c *Controller) fetch(ctx context.Context, filter Filter) {
	c.begin()
	defer c.end()

	courses, err := c.repo.QueryCourses(ctx, filter)
	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger.Error("fetching courses: "+err.Error(), err)
		c.errMsg = err.Error()
		c.courses = []Course{}
		return
	}
	if courses == nil {
		courses = []Course{}
	}
	c.courses = courses
}

// FetchByID is a read-through: it does not mutate the cached list.
// Not-found and backend failures surface through the error slot and a nil
// result.
func (c *Controller) FetchByID(ctx context.Context, id string) *Course {
	c.begin()
	defer c.end()

	crs, err := c.repo.GetCourse(ctx, id)
	if err != nil {
		c.logger.Error("fetching course by ID: "+err.Error(), err)
		c.setErr(err.Error())
		return nil
	}
	return &crs
}

// Create inserts a course owned by the current user and prepends the new
// record to the local list; no re-fetch.
func (c *Controller) Create(ctx context.Context, nc NewCourse) *Course {
	c.begin()
	defer c.end()

	userID, ok := c.actor.CurrentUserID()
	if !ok {
		c.setErr(ErrNotAuthenticated.Error())
		return nil
	}

	// the backend assigns the id
	crs, err := c.repo.CreateCourse(ctx, Course{
		Title:       nc.Title,
		Description: nc.Description,
		ImageURL:    nc.ImageURL,
		Duration:    nc.Duration,
		Topics:      nc.Topics,
		UserID:      userID,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		c.logger.Error("adding course: "+err.Error(), err)
		c.setErr(err.Error())
		return nil
	}

	c.mu.Lock()
	c.courses = append([]Course{crs}, c.courses...)
	c.mu.Unlock()
	return &crs
}

// Update writes the overlaid record and replaces the matching cached
// record in place. When the record vanished under a concurrent delete the
// local list is left unchanged; the caller must re-fetch to resync.
func (c *Controller) Update(ctx context.Context, id string, uc UpdateCourse) *Course {
	c.begin()
	defer c.end()

	orig, err := c.repo.GetCourse(ctx, id)
	if err != nil {
		c.logger.Error("updating course: "+err.Error(), err)
		c.setErr(err.Error())
		return nil
	}
	crs, err := c.repo.UpdateCourse(ctx, uc.Apply(orig))
	if err != nil {
		c.logger.Error("updating course: "+err.Error(), err)
		c.setErr(err.Error())
		return nil
	}

	c.mu.Lock()
	for i := range c.courses {
		if c.courses[i].ID == id {
			c.courses[i] = crs
			break
		}
	}
	c.mu.Unlock()
	return &crs
}

// Delete removes the record from the backend and, on success, from the
// local list.
func (c *Controller) Delete(ctx context.Context, id string) bool {
	c.begin()
	defer c.end()

	if err := c.repo.DeleteCourse(ctx, id); err != nil {
		c.logger.Error("deleting course: "+err.Error(), err)
		c.setErr(err.Error())
		return false
	}

	c.mu.Lock()
	kept := c.courses[:0]
	for _, crs := range c.courses {
		if crs.ID != id {
			kept = append(kept, crs)
		}
	}
	c.courses = kept
	c.mu.Unlock()
	return true
}

// Popular orders the cached list by topic count, ties broken newest-first.
// limit <= 0 returns all.
func (c *Controller) Popular(limit int) []Course {
	courses := c.Courses()
	sort.SliceStable(courses, func(i, j int) bool {
		if len(courses[i].Topics) != len(courses[j].Topics) {
			return len(courses[i].Topics) > len(courses[j].Topics)
		}
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
	if limit > 0 && len(courses) > limit {
		courses = courses[:limit]
	}
	return courses
}

func (c *Controller) begin() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = true
	c.errMsg = ""
}

func (c *Controller) end() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false
}

func (c *Controller) setErr(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.errMsg = msg
}

// Accessors

// Courses returns a copy of the cached list.
func (c *Controller) Courses() []Course {
	c.mu.RLock()
	defer c.mu.RUnlock()
	courses := make([]Course, len(c.courses))
	copy(courses, c.courses)
	return courses
}

func (c *Controller) Loading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loading
}

// Err returns the last error message; empty when the last operation
// succeeded.
func (c *Controller) Err() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.errMsg
}
