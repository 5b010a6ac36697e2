package course

import (
	"errors"
	"net/url"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testCourse() Course {
	return Course{
		ID:           "11111111-1111-4111-8111-111111111111",
		Name:         "Intro to Networks",
		Description:  "Packets from first principles",
		Outcomes:     "Subnetting, routing",
		Price:        999,
		Tags:         []string{"networking"},
		ThumbnailURL: "https://cdn.test/thumb.png",
		Status:       StatusDraft,
		Instructions: []string{"bring a laptop"},
		InstructorID: "22222222-2222-4222-8222-222222222222",
		CategoryID:   "33333333-3333-4333-8333-333333333333",
	}
}

func TestApplyPatchSingleField(t *testing.T) {
	before := testCourse()
	c := before

	price := 499
	if err := c.ApplyPatch(CourseUp{Price: &price}); err != nil {
		t.Fatalf("applying patch: %v", err)
	}

	if c.Price != 499 {
		t.Errorf("price = %d, want 499", c.Price)
	}

	// Every other field keeps its prior value.
	c.Price = before.Price
	if diff := cmp.Diff(before, c); diff != "" {
		t.Errorf("patch clobbered untouched fields (-want +got):\n%s", diff)
	}
}

func TestApplyPatchDecodesSerializedFields(t *testing.T) {
	c := testCourse()

	tags := `["go", "backend"]`
	instructions := `["install docker"]`
	if err := c.ApplyPatch(CourseUp{Tags: &tags, Instructions: &instructions}); err != nil {
		t.Fatalf("applying patch: %v", err)
	}

	if diff := cmp.Diff([]string{"go", "backend"}, []string(c.Tags)); diff != "" {
		t.Errorf("tags (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"install docker"}, []string(c.Instructions)); diff != "" {
		t.Errorf("instructions (-want +got):\n%s", diff)
	}
}

func TestApplyPatchBadEncoding(t *testing.T) {
	for _, raw := range []string{"not json", `{"a":1}`, `"plain"`} {
		c := testCourse()
		before := c

		err := c.ApplyPatch(CourseUp{Tags: &raw})
		if !errors.Is(err, ErrBadFieldEncoding) {
			t.Fatalf("tags %q: got err %v, want ErrBadFieldEncoding", raw, err)
		}

		if diff := cmp.Diff(before.Tags, c.Tags); diff != "" {
			t.Errorf("tags were assigned despite decode failure:\n%s", diff)
		}
	}
}

func TestPatchFromFormAllowList(t *testing.T) {
	form := url.Values{
		"courseName": {"New name"},
		"price":      {"100"},
		"tag":        {`["a"]`},
	}

	up, err := PatchFromForm(form)
	if err != nil {
		t.Fatalf("building patch: %v", err)
	}
	if up.Name == nil || *up.Name != "New name" {
		t.Errorf("name not picked up: %+v", up)
	}
	if up.Price == nil || *up.Price != 100 {
		t.Errorf("price not picked up: %+v", up)
	}
	if up.Description != nil || up.Status != nil {
		t.Errorf("absent fields must stay nil: %+v", up)
	}
}

func TestPatchFromFormRejectsUnknownKeys(t *testing.T) {
	form := url.Values{
		"courseName":    {"ok"},
		"courseContent": {`["section-id"]`},
	}

	if _, err := PatchFromForm(form); err == nil {
		t.Fatal("unknown key was accepted")
	}
}

func TestPatchFromFormRejectsBadPrice(t *testing.T) {
	if _, err := PatchFromForm(url.Values{"price": {"free"}}); err == nil {
		t.Fatal("non-integer price was accepted")
	}
}
