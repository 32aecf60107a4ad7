package catalog

import (
	"net/url"
	"strings"
	"time"

	"github.com/plateshare/plateshare/internal/imaging"
	"github.com/plateshare/plateshare/internal/model"
)

func validateFields(f *model.Food) error {
	required := []struct {
		field, value string
	}{
		{"name", f.Name},
		{"quantity", f.Quantity},
		{"pickup_location", f.PickupLocation},
		{"expire_date", f.ExpireDate},
	}
	for _, r := range required {
		if r.value == "" {
			return model.Invalid(r.field, "is required")
		}
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(model.DateLayout, s)
	if err != nil {
		return time.Time{}, model.Invalid("expire_date", "must be a date in YYYY-MM-DD form")
	}
	return t, nil
}

// validateExpiry rejects dates before today. Today itself is allowed.
func validateExpiry(s string, today time.Time) error {
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	if t.Before(today) {
		return model.Invalid("expire_date", "must not be in the past")
	}
	return nil
}

// setImage gives f exactly one image source.
func setImage(f *model.Food, imageURL string, data []byte) error {
	imageURL = strings.TrimSpace(imageURL)

	switch {
	case len(data) > 0:
		img, err := imaging.Process(data)
		if err != nil {
			return model.Invalid("image", err.Error())
		}
		f.ImageURL = ""
		f.Image = img.Data
		f.ImageMIME = img.MIME
	case imageURL != "":
		u, err := url.Parse(imageURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return model.Invalid("image_url", "must be an absolute http or https URL")
		}
		f.ImageURL = imageURL
		f.Image = nil
		f.ImageMIME = ""
	default:
		return model.Invalid("image", "an image URL or image data is required")
	}
	return nil
}
