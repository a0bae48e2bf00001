package csv

import (
	"bytes"
	"encoding/base64"
	"strconv"

	"github.com/yurifrl/ebcrawler/pkg/models"
)

const (
	Filename  = "eb.csv"
	MediaType = "text/csv"
	Header    = "Date,Pointtype,Description,Base points,Points"
)

// Create renders rows below the header, one per line, with no trailing
// newline. Only the description is quoted and nothing is escaped.
func Create(rows []models.Row) []byte {
	var buf bytes.Buffer
	buf.WriteString(Header)
	for _, r := range rows {
		buf.WriteByte('\n')
		buf.WriteString(r.Date)
		buf.WriteByte(',')
		buf.WriteString(r.PointType)
		buf.WriteString(`,"`)
		buf.WriteString(r.Description)
		buf.WriteString(`",`)
		buf.WriteString(strconv.FormatInt(r.BasePoints, 10))
		buf.WriteByte(',')
		buf.WriteString(strconv.FormatInt(r.UsePoints, 10))
	}
	return buf.Bytes()
}

// DataURI encodes data as a base64 data URI of the given media type.
func DataURI(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
