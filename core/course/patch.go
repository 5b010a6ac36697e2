package course

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
)

// ErrBadFieldEncoding marks a patch field whose serialized value could not be
// decoded.
var ErrBadFieldEncoding = errors.New("field is not a valid JSON array")

// CourseUp is the allow-list of editable fields. Tag and instructions arrive
// as serialized JSON arrays and are decoded during application; every other
// field is a literal replacement of the stored value.
type CourseUp struct {
	Name         *string `json:"courseName"`
	Description  *string `json:"courseDescription"`
	Outcomes     *string `json:"whatYouWillLearn"`
	Price        *int    `json:"price" validate:"omitempty,gte=0"`
	Tags         *string `json:"tag"`
	Status       *string `json:"status" validate:"omitempty,oneof=Draft Published"`
	Instructions *string `json:"instructions"`
	CategoryID   *string `json:"category" validate:"omitempty,uuid4"`
}

// PatchFromForm builds a patch from form values, rejecting keys outside the
// allow-list instead of assigning them blindly.
func PatchFromForm(form url.Values) (CourseUp, error) {
	var up CourseUp

	for key := range form {
		vals := form[key]
		if len(vals) == 0 || vals[0] == "" {
			continue
		}
		val := vals[0]

		switch key {
		case "courseName":
			up.Name = &val
		case "courseDescription":
			up.Description = &val
		case "whatYouWillLearn":
			up.Outcomes = &val
		case "price":
			p, err := strconv.Atoi(val)
			if err != nil {
				return CourseUp{}, fmt.Errorf("price is not an integer: %w", err)
			}
			up.Price = &p
		case "tag":
			up.Tags = &val
		case "status":
			up.Status = &val
		case "instructions":
			up.Instructions = &val
		case "category":
			up.CategoryID = &val
		default:
			return CourseUp{}, fmt.Errorf("field %q is not editable", key)
		}
	}

	return up, nil
}

// ApplyPatch folds the present fields of up into the course. Untouched fields
// keep their prior values; the caller persists the result in a single save.
func (c *Course) ApplyPatch(up CourseUp) error {
	if up.Name != nil {
		c.Name = *up.Name
	}
	if up.Description != nil {
		c.Description = *up.Description
	}
	if up.Outcomes != nil {
		c.Outcomes = *up.Outcomes
	}
	if up.Price != nil {
		c.Price = *up.Price
	}
	if up.Status != nil {
		c.Status = Status(*up.Status)
	}
	if up.CategoryID != nil {
		c.CategoryID = *up.CategoryID
	}

	if up.Tags != nil {
		var tags []string
		if err := json.Unmarshal([]byte(*up.Tags), &tags); err != nil {
			return fmt.Errorf("%w: tag", ErrBadFieldEncoding)
		}
		c.Tags = tags
	}
	if up.Instructions != nil {
		var instructions []string
		if err := json.Unmarshal([]byte(*up.Instructions), &instructions); err != nil {
			return fmt.Errorf("%w: instructions", ErrBadFieldEncoding)
		}
		c.Instructions = instructions
	}

	return nil
}
