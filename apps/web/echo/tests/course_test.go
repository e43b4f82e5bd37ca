package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/tutorhub/core/course"
	"github.com/trezcool/tutorhub/core/profile"
	testutil "github.com/trezcool/tutorhub/tests"
)

type courseListData struct {
	Courses []course.Course `json:"courses"`
	Error   string          `json:"error"`
}

func decodeCourseList(t *testing.T, body []byte) courseListData {
	t.Helper()
	var data courseListData
	require.NoError(t, json.Unmarshal(body, &data))
	return data
}

func Test_courseCRUD(t *testing.T) {
	tutorAcct := testutil.CreateAccount(t, accountRepo, "crud-tutor@test.cd", "adequately0k")
	testutil.CreateProfile(t, profileRepo, tutorAcct.ID, "Crud Tutor", profile.RoleTutor)
	tutorToken := signIn(t, "crud-tutor@test.cd", "adequately0k")

	studentAcct := testutil.CreateAccount(t, accountRepo, "crud-student@test.cd", "adequately0k")
	testutil.CreateProfile(t, profileRepo, studentAcct.ID, "Crud Student", profile.RoleStudent)
	studentToken := signIn(t, "crud-student@test.cd", "adequately0k")

	var created course.Course

	t.Run("create page renders for teaching roles", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/admin/create-course", tutorToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		req, rec = newAuthRequest(http.MethodGet, "/admin/create-course", studentToken)
		app.ServeHTTP(rec, req)
		checkRedirect(t, rec, "/student/dashboard")
	})

	t.Run("create requires a title", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"description": "no title"})
		req, rec := newAuthRequest(http.MethodPost, "/admin/create-course", tutorToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("student cannot create", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{"title": "Sneaky"})
		req, rec := newAuthRequest(http.MethodPost, "/admin/create-course", studentToken, body)
		app.ServeHTTP(rec, req)
		checkRedirect(t, rec, "/student/dashboard")
	})

	t.Run("tutor creates", func(t *testing.T) {
		body := marchallObj(t, map[string]interface{}{
			"title":       "Algebra I",
			"description": "From zero",
			"duration":    "6 weeks",
			"topics":      []map[string]string{{"name": "Linear equations"}},
		})
		req, rec := newAuthRequest(http.MethodPost, "/admin/create-course", tutorToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
		assert.NotEmpty(t, created.ID)
		assert.Equal(t, tutorAcct.ID, created.UserID)
	})

	t.Run("any role lists courses with the owner joined", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/courses", studentToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		data := decodeCourseList(t, rec.Body.Bytes())
		assert.Empty(t, data.Error)

		var found bool
		for _, crs := range data.Courses {
			if crs.ID == created.ID {
				found = true
				require.NotNil(t, crs.Owner)
				assert.Equal(t, "Crud Tutor", crs.Owner.FullName)
			}
		}
		assert.True(t, found, "created course missing from list")
	})

	t.Run("retrieve", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/courses/"+created.ID, studentToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var crs course.Course
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crs))
		assert.Equal(t, "Algebra I", crs.Title)

		req, rec = newAuthRequest(http.MethodGet, "/courses/nope", studentToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("my courses", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/admin/my-courses", tutorToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		data := decodeCourseList(t, rec.Body.Bytes())
		require.NotEmpty(t, data.Courses)
		for _, crs := range data.Courses {
			assert.Equal(t, tutorAcct.ID, crs.UserID)
		}
	})

	t.Run("update keeps unspecified fields", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"title": "Algebra I (revised)"})
		req, rec := newAuthRequest(http.MethodPut, "/admin/my-courses/edit/"+created.ID, tutorToken, body)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var crs course.Course
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &crs))
		assert.Equal(t, "Algebra I (revised)", crs.Title)
		assert.Equal(t, "From zero", crs.Description)
		assert.Equal(t, "6 weeks", crs.Duration)
	})

	t.Run("update missing course", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"title": "Ghost"})
		req, rec := newAuthRequest(http.MethodPut, "/admin/my-courses/edit/nope", tutorToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/admin/my-courses/edit/"+created.ID, tutorToken)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusNoContent, rec.Code)

		req, rec = newAuthRequest(http.MethodGet, "/courses/"+created.ID, tutorToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func Test_courseOwnership(t *testing.T) {
	ownerAcct := testutil.CreateAccount(t, accountRepo, "owner-tutor@test.cd", "adequately0k")
	testutil.CreateProfile(t, profileRepo, ownerAcct.ID, "Owner Tutor", profile.RoleTutor)

	otherAcct := testutil.CreateAccount(t, accountRepo, "other-tutor@test.cd", "adequately0k")
	testutil.CreateProfile(t, profileRepo, otherAcct.ID, "Other Tutor", profile.RoleTutor)
	otherToken := signIn(t, "other-tutor@test.cd", "adequately0k")

	adminAcct := testutil.CreateAccount(t, accountRepo, "owner-admin@test.cd", "adequately0k")
	testutil.CreateProfile(t, profileRepo, adminAcct.ID, "Owner Admin", profile.RoleAdmin)
	adminToken := signIn(t, "owner-admin@test.cd", "adequately0k")

	crs := testutil.CreateCourse(t, courseRepo, ownerAcct.ID, "Protected Course")

	t.Run("non-owner tutor cannot edit", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"title": "Hijacked"})
		req, rec := newAuthRequest(http.MethodPut, "/admin/my-courses/edit/"+crs.ID, otherToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("non-owner tutor cannot delete", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, "/admin/my-courses/edit/"+crs.ID, otherToken)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin can edit any course", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"title": "Moderated"})
		req, rec := newAuthRequest(http.MethodPut, "/admin/my-courses/edit/"+crs.ID, adminToken, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})
}

func Test_popularCourses(t *testing.T) {
	acct := testutil.CreateAccount(t, accountRepo, "popular-tutor@test.cd", "adequately0k")
	testutil.CreateProfile(t, profileRepo, acct.ID, "Popular Tutor", profile.RoleTutor)
	token := signIn(t, "popular-tutor@test.cd", "adequately0k")

	testutil.CreateCourse(t, courseRepo, acct.ID, "Sparse")
	rich := testutil.CreateCourse(t, courseRepo, acct.ID, "Rich",
		course.Topic{Name: "a"}, course.Topic{Name: "b"}, course.Topic{Name: "c"})

	req, rec := newAuthRequest(http.MethodGet, "/popular-courses?limit=1", token)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	data := decodeCourseList(t, rec.Body.Bytes())
	require.Len(t, data.Courses, 1)
	assert.Equal(t, rich.ID, data.Courses[0].ID)
}
