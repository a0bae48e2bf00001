// Package points classifies EuroBonus transactions into base (status) and
// use (redeemable) point contributions.
package points

import (
	"strings"

	"github.com/yurifrl/ebcrawler/pkg/models"
)

type Category int

const (
	Unknown Category = iota
	StatusPoints
	MastercardStatusPoints
	BasicPoints
	SwedishDomestic
	ExtraPoints
	PointsReturned
	PointsUsed
	PointsExpired
)

var categories = map[string]Category{
	"status points":            StatusPoints,
	"mastercard status points": MastercardStatusPoints,
	"basic points":             BasicPoints,
	"swedish domestic":         SwedishDomestic,
	"extra points":             ExtraPoints,
	"points returned":          PointsReturned,
	"points used":              PointsUsed,
	"points expired":           PointsExpired,
}

// Activity types that earn use points on top of base points.
var earningActivities = map[string]bool{
	"Flightactivity":   true,
	"Flight Activity":  true,
	"Special Activity": true,
}

// CorrectionActivity is a base points activity that legitimately earns no use
// points, e.g. old style Amex transfers.
const CorrectionActivity = "Transactioncorrection"

// UnknownCategoryError is returned for a points type outside the table.
// Category holds the normalized (lower case) label.
type UnknownCategoryError struct {
	Category string
}

func (e *UnknownCategoryError) Error() string {
	return "Unknown points type: " + e.Category
}

func normalize(label string) string {
	return strings.ToLower(label)
}

// ParseCategory matches label case-insensitively against the known points types.
func ParseCategory(label string) (Category, error) {
	c, ok := categories[normalize(label)]
	if !ok {
		return Unknown, &UnknownCategoryError{Category: normalize(label)}
	}
	return c, nil
}

var names = [...]string{
	Unknown:                "unknown",
	StatusPoints:           "status points",
	MastercardStatusPoints: "mastercard status points",
	BasicPoints:            "basic points",
	SwedishDomestic:        "swedish domestic",
	ExtraPoints:            "extra points",
	PointsReturned:         "points returned",
	PointsUsed:             "points used",
	PointsExpired:          "points expired",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(names) {
		return "unknown"
	}
	return names[c]
}

// Contribution returns the base and use points of amount for this category.
// activity only matters for basic points and swedish domestic. ok is false
// for a category outside the table.
func (c Category) Contribution(amount int64, activity string) (base, use int64, ok bool) {
	switch c {
	case StatusPoints, MastercardStatusPoints:
		return amount, 0, true
	case BasicPoints, SwedishDomestic:
		if earningActivities[activity] {
			return amount, amount, true
		}
		return amount, 0, true
	case ExtraPoints, PointsReturned:
		return 0, amount, true
	case PointsUsed, PointsExpired:
		return 0, -amount, true
	default:
		return 0, 0, false
	}
}

// IsEarningActivity reports whether a base points activity also earns use points.
func IsEarningActivity(activity string) bool {
	return earningActivities[activity]
}

// Classify turns a transaction into its export row.
func Classify(t models.Transaction) (models.Row, error) {
	c, err := ParseCategory(t.PointType)
	if err != nil {
		return models.Row{}, err
	}
	base, use, ok := c.Contribution(t.Amount.Int(), t.Activity)
	if !ok {
		return models.Row{}, &UnknownCategoryError{Category: normalize(t.PointType)}
	}
	return models.Row{
		Date:        t.Date(),
		PointType:   t.PointType,
		Description: t.Text(),
		BasePoints:  base,
		UsePoints:   use,
	}, nil
}
