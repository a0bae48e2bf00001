package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Number is a JSON integer that the API sometimes sends quoted.
type Number int64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(bytes.TrimSpace(data), `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	i, err := strconv.ParseInt(string(data), 10, 64)
	if err == nil {
		*n = Number(i)
		return nil
	}
	// Integral floats such as 1200.0 are fine, fractions are not.
	f, ferr := strconv.ParseFloat(string(data), 64)
	if ferr != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return fmt.Errorf("invalid integer %q: %w", data, err)
	}
	*n = Number(f)
	return nil
}

func (n Number) Int() int64 {
	return int64(n)
}

// Transaction is a single entry of the EuroBonus transaction history.
type Transaction struct {
	DatePerformed string `json:"datePerformed"`
	PointType     string `json:"basicPointsAfterTransaction"`
	Amount        Number `json:"availablePointsAfterTransaction"`
	Activity      string `json:"typeOfTransaction"`
	Description1  string `json:"description1"`
	Description2  string `json:"description2"`
}

// Date returns the date portion of DatePerformed, everything before the first T.
func (t *Transaction) Date() string {
	date, _, _ := strings.Cut(t.DatePerformed, "T")
	return date
}

// Text joins the two description fields.
func (t *Transaction) Text() string {
	return t.Description1 + " " + t.Description2
}

// TransactionHistory is one page of history as returned by the API.
type TransactionHistory struct {
	TotalNumberOfPages Number        `json:"totalNumberOfPages"`
	Transactions       []Transaction `json:"transaction"`
}

// AccountInfo holds the point balances and the transaction history.
type AccountInfo struct {
	PointsAvailable   Number             `json:"pointsAvailable"`
	TotalPointsForUse Number             `json:"totalPointsForUse"`
	History           TransactionHistory `json:"transactionHistory"`
}

// Profile is what the profile page hands back from loadProfileInfo.
type Profile struct {
	EuroBonus AccountInfo `json:"eurobonus"`
}

// DecodeProfile parses a profile JSON document.
func DecodeProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return &p, nil
}

// Row is one classified line of the export.
type Row struct {
	Date        string `json:"date"`
	PointType   string `json:"pointtype"`
	Description string `json:"description"`
	BasePoints  int64  `json:"base_points"`
	UsePoints   int64  `json:"points"`
}
