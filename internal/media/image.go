// Package media attaches an illustration and a narration track to slides.
package media

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	imageWidth  = 800
	imageHeight = 500

	placeholderTitleRunes = 30
)

// ErrEmptyDescription is returned for a blank image description.
var ErrEmptyDescription = errors.New("image description is empty")

// Images builds image references. The image service renders on request, so
// building the URL is all that is needed; no call is made here.
type Images struct {
	base        *url.URL
	placeholder string
}

// NewImages validates the image and placeholder base URLs.
func NewImages(baseURL, placeholderURL string) (*Images, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid image base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("image base URL %q must be absolute", baseURL)
	}
	return &Images{base: u, placeholder: strings.TrimSuffix(placeholderURL, "/")}, nil
}

// URL returns a generated medical illustration for description.
func (im *Images) URL(description string) (string, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return "", ErrEmptyDescription
	}

	prompt := "medical educational illustration, " + description +
		", clean professional diagram, labeled anatomy, textbook style, white background, high quality, detailed, scientific accuracy"

	q := url.Values{}
	q.Set("width", fmt.Sprint(imageWidth))
	q.Set("height", fmt.Sprint(imageHeight))
	q.Set("nologo", "true")

	return im.base.String() + "/" + url.PathEscape(prompt) + "?" + q.Encode(), nil
}

// Placeholder returns a static image labelled with the start of title.
func (im *Images) Placeholder(title string) string {
	r := []rune(title)
	if len(r) > placeholderTitleRunes {
		r = r[:placeholderTitleRunes]
	}
	return im.placeholder + "?text=" + strings.ReplaceAll(url.QueryEscape(string(r)), "+", "%20")
}
