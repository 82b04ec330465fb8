package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// CourseID is a catalog identifier. The catalog and the cart are independent
// sources and may disagree on numeric vs string ids, so ids are always kept
// and compared in their string form.
type CourseID string

func (id *CourseID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = CourseID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = CourseID(n.String())
	return nil
}

func (id CourseID) String() string {
	return string(id)
}

// Paise is an amount in minor currency units. Values that are missing or not
// numeric decode to zero instead of failing the whole catalog response.
type Paise int64

func (p *Paise) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	raw := strings.Trim(string(data), `"`)
	if raw == "" || raw == "null" {
		*p = 0
		return nil
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*p = Paise(n)
		return nil
	}

	// Whole amounts written as floats ("25000.0", "2.5e4") are accepted;
	// fractional or out-of-range amounts are not prices.
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		*p = 0
		return nil
	}
	*p = Paise(int64(f))
	return nil
}

type Course struct {
	ID               CourseID `json:"id"`
	Title            string   `json:"title,omitempty"`
	Description      string   `json:"description,omitempty"`
	ShortDescription string   `json:"shortDescription,omitempty"`
	Price            Paise    `json:"price"`
	OriginalPrice    Paise    `json:"originalPrice,omitempty"`
	Discount         string   `json:"discount,omitempty"`
	Duration         string   `json:"duration,omitempty"`
	Level            string   `json:"level,omitempty"`
	Category         string   `json:"category,omitempty"`
	Instructor       string   `json:"instructor,omitempty"`
	Image            string   `json:"image,omitempty"`
	CoverImage       string   `json:"coverImage,omitempty"`
	ImageURL         string   `json:"imageUrl,omitempty"`
	Features         []string `json:"features,omitempty"`
	IsActive         bool     `json:"isActive"`
}

// Thumbnail picks the first image the catalog supplied.
func (c Course) Thumbnail() string {
	for _, src := range []string{c.Image, c.CoverImage, c.ImageURL} {
		if src != "" {
			return src
		}
	}
	return "/placeholder.png"
}

type CourseList struct {
	Courses []Course `json:"courses"`
}

type CourseEnvelope struct {
	Course *Course `json:"course"`
}

// FeaturedCourse is the home page card for the advertised course.
type FeaturedCourse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Price           int64    `json:"price"`
	DisplayPrice    string   `json:"display_price"`
	OriginalPrice   string   `json:"original_price,omitempty"`
	DiscountPercent int      `json:"discount_percent,omitempty"`
	Duration        string   `json:"duration,omitempty"`
	Level           string   `json:"level,omitempty"`
	Image           string   `json:"image"`
	Features        []string `json:"features,omitempty"`
}
