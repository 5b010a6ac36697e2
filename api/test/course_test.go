package test

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/educast/catalog/core/content"
	"github.com/educast/catalog/core/course"
	"github.com/educast/catalog/core/user"
	"github.com/google/go-cmp/cmp"
)

type courseTest struct {
	*TestEnv
}

func (ct *courseTest) baseFields(categoryID string) map[string]string {
	return map[string]string{
		"courseName":        "Distributed Systems",
		"courseDescription": "Consensus, replication and failure",
		"whatYouWillLearn":  "Raft, vector clocks",
		"price":             "999",
		"tag":               `["systems", "backend"]`,
		"category":          categoryID,
		"status":            "Published",
		"instructions":      `["read the Raft paper first"]`,
	}
}

func (ct *courseTest) createCourseOK(t *testing.T, categoryID string) course.Course {
	t.Helper()

	body, cType := courseForm(t, ct.baseFields(categoryID), true)
	w := ct.do(t, http.MethodPost, "/courses", body, cType)
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create course: status code %s", w.Status)
	}
	return decode[course.Course](t, w)
}

func (ct *courseTest) listPublishedOK(t *testing.T) []course.View {
	t.Helper()

	w := ct.do(t, http.MethodGet, "/courses", nil, "")
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't list courses: status code %s", w.Status)
	}
	return decode[[]course.View](t, w)
}

func (ct *courseTest) fullDetailsOK(t *testing.T, courseID string) course.FullDetails {
	t.Helper()

	w := ct.do(t, http.MethodGet, "/courses/"+courseID+"/full", nil, "")
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't get full course details: status code %s", w.Status)
	}
	return decode[course.FullDetails](t, w)
}

func (ct *courseTest) enrollOK(t *testing.T, courseID string) {
	t.Helper()

	w := ct.do(t, http.MethodPost, "/courses/"+courseID+"/enroll", nil, "")
	defer w.Body.Close()
	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't enroll: status code %s", w.Status)
	}
}

type contentTest struct {
	*TestEnv
}

func (ck *contentTest) createSectionOK(t *testing.T, courseID, name string) content.Section {
	t.Helper()

	w := ck.postJSON(t, "/sections", map[string]string{
		"courseId":    courseID,
		"sectionName": name,
	})
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create section: status code %s", w.Status)
	}
	return decode[content.Section](t, w)
}

func (ck *contentTest) createSubSectionOK(t *testing.T, sectionID, title, duration string) content.SubSection {
	t.Helper()

	w := ck.postJSON(t, "/subsections", map[string]string{
		"sectionId":    sectionID,
		"title":        title,
		"videoUrl":     "https://cdn.test/" + title + ".mp4",
		"timeDuration": duration,
	})
	if w.StatusCode != http.StatusCreated {
		t.Fatalf("can't create subsection: status code %s", w.Status)
	}
	return decode[content.SubSection](t, w)
}

func TestCourse(t *testing.T) {
	env := NewTestEnv(t)
	ct := &courseTest{env}
	ck := &contentTest{env}

	inst := env.signupOK(t, "Marta", "marta@edu.test", user.RoleInstructor)
	cat := env.createCategoryOK(t, "Backend")

	// A missing required field rejects the request before anything is written.
	fields := ct.baseFields(cat.ID)
	delete(fields, "price")
	body, cType := courseForm(t, fields, true)
	w := env.do(t, http.MethodPost, "/courses", body, cType)
	if resp := decodeErr(t, w, http.StatusBadRequest); resp.Code != course.CodeMissingField {
		t.Fatalf("error code %q, want %q", resp.Code, course.CodeMissingField)
	}
	if n := env.countRows(t, "courses"); n != 0 {
		t.Fatalf("rejected creation left %d course rows", n)
	}
	if n := len(env.Uploader.Uploads()); n != 0 {
		t.Fatalf("rejected creation uploaded %d files", n)
	}

	// Same for a category reference that resolves to nothing.
	body, cType = courseForm(t, ct.baseFields("00000000-0000-4000-8000-000000000000"), true)
	w = env.do(t, http.MethodPost, "/courses", body, cType)
	if resp := decodeErr(t, w, http.StatusNotFound); resp.Code != course.CodeCategoryNotFound {
		t.Fatalf("error code %q, want %q", resp.Code, course.CodeCategoryNotFound)
	}
	if n := env.countRows(t, "courses"); n != 0 {
		t.Fatalf("rejected creation left %d course rows", n)
	}

	// A price that does not parse is its own failure mode, distinct from an
	// absent field.
	fields = ct.baseFields(cat.ID)
	fields["price"] = "free"
	body, cType = courseForm(t, fields, true)
	w = env.do(t, http.MethodPost, "/courses", body, cType)
	if resp := decodeErr(t, w, http.StatusBadRequest); resp.Code != course.CodeBadFieldEncoding {
		t.Fatalf("error code %q, want %q", resp.Code, course.CodeBadFieldEncoding)
	}

	// A failing upload surfaces as a gateway error and writes nothing.
	env.Uploader.Err = errors.New("bucket unavailable")
	body, cType = courseForm(t, ct.baseFields(cat.ID), true)
	w = env.do(t, http.MethodPost, "/courses", body, cType)
	if resp := decodeErr(t, w, http.StatusBadGateway); resp.Code != course.CodeUploadFailed {
		t.Fatalf("error code %q, want %q", resp.Code, course.CodeUploadFailed)
	}
	if n := env.countRows(t, "courses"); n != 0 {
		t.Fatalf("failed upload left %d course rows", n)
	}
	env.Uploader.Err = nil

	c := ct.createCourseOK(t, cat.ID)
	if c.InstructorID != inst.ID {
		t.Errorf("instructor_id = %s, want %s", c.InstructorID, inst.ID)
	}
	if !strings.HasPrefix(c.ThumbnailURL, "https://cdn.test/") {
		t.Errorf("thumbnail url %q not served from upload storage", c.ThumbnailURL)
	}

	views := ct.listPublishedOK(t)
	if len(views) != 1 || views[0].ID != c.ID {
		t.Fatalf("published list = %+v, want just course %s", views, c.ID)
	}
	if views[0].Instructor == nil || views[0].Instructor.ID != inst.ID {
		t.Errorf("published view did not resolve the instructor: %+v", views[0].Instructor)
	}

	// A partial edit touches only the named field.
	w = env.putJSON(t, "/courses/"+c.ID, map[string]any{"price": 499})
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't edit course: status code %s", w.Status)
	}
	edited := decode[course.View](t, w)
	if edited.Price != 499 {
		t.Errorf("price = %d, want 499", edited.Price)
	}
	if edited.Name != c.Name || edited.Description != c.Description {
		t.Errorf("edit clobbered untouched fields: %+v", edited.Course)
	}

	w = env.putJSON(t, "/courses/"+c.ID, map[string]any{"tag": "not json"})
	if resp := decodeErr(t, w, http.StatusBadRequest); resp.Code != course.CodeBadFieldEncoding {
		t.Fatalf("error code %q, want %q", resp.Code, course.CodeBadFieldEncoding)
	}

	secA := ck.createSectionOK(t, c.ID, "Foundations")
	secB := ck.createSectionOK(t, c.ID, "Consensus")
	sub1 := ck.createSubSectionOK(t, secA.ID, "intro", "1800")
	ck.createSubSectionOK(t, secA.ID, "clocks", "1800")
	ck.createSubSectionOK(t, secB.ID, "raft", "61")

	// Another instructor cannot author on a course they do not own.
	env.signupOK(t, "Noor", "noor@edu.test", user.RoleInstructor)
	w = env.postJSON(t, "/sections", map[string]string{"courseId": c.ID, "sectionName": "hijack"})
	decodeErr(t, w, http.StatusForbidden)

	studentA := env.signupOK(t, "Avery", "avery@edu.test", user.RoleStudent)
	ct.enrollOK(t, c.ID)

	// Enrolling is add-if-absent: repeating it changes nothing.
	ct.enrollOK(t, c.ID)
	if n := env.countRows(t, "enrollments"); n != 1 {
		t.Fatalf("%d enrollment rows after re-enrolling, want 1", n)
	}

	// Retracting a pair that was never added is a no-op, not an error.
	if err := user.Unenroll(context.Background(), env.DB, c.ID, inst.ID); err != nil {
		t.Fatalf("unenrolling absent pair: %v", err)
	}
	if n := env.countRows(t, "enrollments"); n != 1 {
		t.Fatalf("%d enrollment rows after absent retraction, want 1", n)
	}

	fd := ct.fullDetailsOK(t, c.ID)
	if fd.TotalDuration != "1h 1m 1s" {
		t.Errorf("total duration = %q, want %q", fd.TotalDuration, "1h 1m 1s")
	}
	if len(fd.CompletedVideos) != 0 {
		t.Errorf("fresh student has completed videos: %v", fd.CompletedVideos)
	}
	if len(fd.Course.Content) != 2 || fd.Course.Content[0].ID != secA.ID || fd.Course.Content[1].ID != secB.ID {
		t.Errorf("content tree out of order: %+v", fd.Course.Content)
	}
	if len(fd.Course.Content[0].SubSections) != 2 || fd.Course.Content[0].SubSections[0].ID != sub1.ID {
		t.Errorf("subsections out of order: %+v", fd.Course.Content[0].SubSections)
	}

	w = env.postJSON(t, "/progress", map[string]string{"courseId": c.ID, "subSectionId": sub1.ID})
	w.Body.Close()
	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't mark progress: status code %s", w.Status)
	}

	fd = ct.fullDetailsOK(t, c.ID)
	if diff := cmp.Diff([]string{sub1.ID}, fd.CompletedVideos); diff != "" {
		t.Errorf("completed videos (-want +got):\n%s", diff)
	}

	// Progress is tracked per user: a second student starts from empty.
	studentB := env.signupOK(t, "Bao", "bao@edu.test", user.RoleStudent)
	ct.enrollOK(t, c.ID)
	if fd := ct.fullDetailsOK(t, c.ID); len(fd.CompletedVideos) != 0 {
		t.Errorf("second student inherited progress: %v", fd.CompletedVideos)
	}

	env.loginOK(t, "marta@edu.test")
	w = env.do(t, http.MethodGet, "/courses/owned", nil, "")
	if w.StatusCode != http.StatusOK {
		t.Fatalf("can't list owned courses: status code %s", w.Status)
	}
	owned := decode[[]course.View](t, w)
	if len(owned) != 1 {
		t.Fatalf("owned list has %d courses, want 1", len(owned))
	}
	wantStudents := map[string]bool{studentA.ID: true, studentB.ID: true}
	if len(owned[0].Students) != 2 || !wantStudents[owned[0].Students[0]] || !wantStudents[owned[0].Students[1]] {
		t.Errorf("enrolled students = %v, want %v", owned[0].Students, wantStudents)
	}

	// Cascade deletion takes out sections, subsections and enrollments.
	w = env.do(t, http.MethodDelete, "/courses/"+c.ID, nil, "")
	w.Body.Close()
	if w.StatusCode != http.StatusNoContent {
		t.Fatalf("can't delete course: status code %s", w.Status)
	}
	for _, table := range []string{"courses", "sections", "subsections", "enrollments"} {
		if n := env.countRows(t, table); n != 0 {
			t.Errorf("%d rows left in %s after cascade deletion", n, table)
		}
	}

	// A second deletion reports the course as gone.
	w = env.do(t, http.MethodDelete, "/courses/"+c.ID, nil, "")
	if resp := decodeErr(t, w, http.StatusNotFound); resp.Code != course.CodeCourseNotFound {
		t.Fatalf("error code %q, want %q", resp.Code, course.CodeCourseNotFound)
	}

	if views := ct.listPublishedOK(t); len(views) != 0 {
		t.Errorf("published list still carries %d courses", len(views))
	}
}

func TestCourseRequiresInstructor(t *testing.T) {
	env := NewTestEnv(t)

	env.signupOK(t, "Sam", "sam@edu.test", user.RoleStudent)

	body, cType := courseForm(t, map[string]string{"courseName": "x"}, true)
	w := env.do(t, http.MethodPost, "/courses", body, cType)
	w.Body.Close()
	if w.StatusCode != http.StatusForbidden && w.StatusCode != http.StatusUnauthorized {
		t.Fatalf("student created a course: status code %s", w.Status)
	}
}

func TestOrphanedSubSectionFailsClosed(t *testing.T) {
	env := NewTestEnv(t)
	ct := &courseTest{env}
	ck := &contentTest{env}

	env.signupOK(t, "Pia", "pia@edu.test", user.RoleInstructor)
	cat := env.createCategoryOK(t, "Ops")
	c := ct.createCourseOK(t, cat.ID)
	sec := ck.createSectionOK(t, c.ID, "Only")
	sub := ck.createSubSectionOK(t, sec.ID, "lone", "60")

	// Orphan the subsection the way an interrupted cascade would.
	if _, err := env.DB.Exec("DELETE FROM sections WHERE section_id = $1", sec.ID); err != nil {
		t.Fatalf("orphaning subsection: %v", err)
	}

	// With the parent gone ownership cannot be resolved, so edits are refused
	// even for an authenticated instructor.
	env.signupOK(t, "Quinn", "quinn@edu.test", user.RoleInstructor)

	w := env.putJSON(t, "/subsections/"+sub.ID, map[string]string{"title": "hijack"})
	decodeErr(t, w, http.StatusNotFound)

	w = env.do(t, http.MethodDelete, "/subsections/"+sub.ID, nil, "")
	decodeErr(t, w, http.StatusNotFound)

	if n := env.countRows(t, "subsections"); n != 1 {
		t.Fatalf("%d subsection rows, want the orphan kept", n)
	}
}

func TestSubSectionRejectsBadDuration(t *testing.T) {
	env := NewTestEnv(t)
	ct := &courseTest{env}
	ck := &contentTest{env}

	env.signupOK(t, "Iris", "iris@edu.test", user.RoleInstructor)
	cat := env.createCategoryOK(t, "Data")
	c := ct.createCourseOK(t, cat.ID)
	sec := ck.createSectionOK(t, c.ID, "Only")

	for _, dur := range []string{"ten", "-5", ""} {
		w := env.postJSON(t, "/subsections", map[string]string{
			"sectionId":    sec.ID,
			"title":        "bad " + strconv.Quote(dur),
			"timeDuration": dur,
		})
		w.Body.Close()
		if w.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("duration %q accepted: status code %s", dur, w.Status)
		}
	}
}
