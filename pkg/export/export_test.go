package export

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurifrl/ebcrawler/pkg/csv"
	"github.com/yurifrl/ebcrawler/pkg/models"
	"github.com/yurifrl/ebcrawler/pkg/points"
)

type fakeProvider struct {
	profile *models.Profile
	err     error
}

func (p *fakeProvider) LoadProfileInfo(context.Context) (*models.Profile, error) {
	return p.profile, p.err
}

type download struct {
	filename  string
	mediaType string
	data      []byte
}

type fakeDownloader struct {
	downloads []download
	err       error
}

func (d *fakeDownloader) Download(_ context.Context, filename, mediaType string, data []byte) error {
	if d.err != nil {
		return d.err
	}
	d.downloads = append(d.downloads, download{filename, mediaType, data})
	return nil
}

type fakeAlerter struct {
	messages []string
}

func (a *fakeAlerter) Alert(_ context.Context, message string) error {
	a.messages = append(a.messages, message)
	return nil
}

func profileOf(txs ...models.Transaction) *models.Profile {
	return &models.Profile{EuroBonus: models.AccountInfo{
		PointsAvailable:   12000,
		TotalPointsForUse: 34000,
		History:           models.TransactionHistory{TotalNumberOfPages: 1, Transactions: txs},
	}}
}

func tx(date, category string, amount int64, activity string) models.Transaction {
	return models.Transaction{
		DatePerformed: date,
		PointType:     category,
		Amount:        models.Number(amount),
		Activity:      activity,
		Description1:  "SK 1415",
		Description2:  "ARN-CPH",
	}
}

func newExporter(p Provider) (*Exporter, *fakeDownloader, *fakeAlerter) {
	d := &fakeDownloader{}
	a := &fakeAlerter{}
	return New(log.New(os.Stderr), p, d, a), d, a
}

func TestExportEmptyHistory(t *testing.T) {
	e, d, a := newExporter(&fakeProvider{profile: profileOf()})

	data, err := e.Export(context.Background())
	require.NoError(t, err)
	assert.Equal(t, csv.Header, string(data))

	require.Len(t, d.downloads, 1)
	assert.Equal(t, "eb.csv", d.downloads[0].filename)
	assert.Equal(t, "text/csv", d.downloads[0].mediaType)
	assert.Empty(t, a.messages)
}

func TestExportRows(t *testing.T) {
	e, d, _ := newExporter(&fakeProvider{profile: profileOf(
		tx("2024-01-02T08:00:00.000Z", "Points Used", 500, "Award"),
		tx("2024-01-05T18:30:00.000Z", "Basic Points", 1000, "Flight Activity"),
		tx("2024-01-06T18:30:00.000Z", "Basic Points", 1000, "Other"),
	)})

	data, err := e.Export(context.Background())
	require.NoError(t, err)

	expected := csv.Header + "\n" +
		`2024-01-02,Points Used,"SK 1415 ARN-CPH",0,-500` + "\n" +
		`2024-01-05,Basic Points,"SK 1415 ARN-CPH",1000,1000` + "\n" +
		`2024-01-06,Basic Points,"SK 1415 ARN-CPH",1000,0`
	assert.Equal(t, expected, string(data))
	require.Len(t, d.downloads, 1)
	assert.Equal(t, expected, string(d.downloads[0].data))
}

func TestExportUnknownCategoryAborts(t *testing.T) {
	e, d, a := newExporter(&fakeProvider{profile: profileOf(
		tx("2024-01-02T08:00:00.000Z", "Extra Points", 50, ""),
		tx("2024-01-03T08:00:00.000Z", "Lounge Voucher", 1, ""),
		tx("2024-01-04T08:00:00.000Z", "Status Points", 20, ""),
	)})
	var seen []string
	e.OnRecord = func(t models.Transaction) { seen = append(seen, t.PointType) }

	data, err := e.Export(context.Background())
	require.Error(t, err)
	assert.Nil(t, data)

	var unknown *points.UnknownCategoryError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "lounge voucher", unknown.Category)

	assert.Empty(t, d.downloads, "no artifact on unknown category")
	assert.Equal(t, []string{"Unknown points type: lounge voucher"}, a.messages)
	assert.Equal(t, []string{"Extra Points", "Lounge Voucher"}, seen, "records after the unknown one are never classified")
}

func TestUnknownCategoryReportedOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.InfoLevel})
	e := New(logger, &fakeProvider{profile: profileOf(
		tx("2024-01-03T08:00:00.000Z", "Lounge Voucher", 1, ""),
	)}, &fakeDownloader{}, nil)

	_, err := e.Collect(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Unknown points type: lounge voucher", err.Error())
	assert.NotContains(t, buf.String(), "lounge voucher", "the caller reports the error, the exporter does not log it too")
}

func TestExportProviderFailure(t *testing.T) {
	boom := errors.New("network down")
	e, d, a := newExporter(&fakeProvider{err: boom})

	_, err := e.Export(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Empty(t, d.downloads)
	assert.Empty(t, a.messages)
}

func TestExportNoContentRegion(t *testing.T) {
	e, d, a := newExporter(&fakeProvider{profile: profileOf()})
	d.err = ErrNoContentRegion

	_, err := e.Export(context.Background())
	require.ErrorIs(t, err, ErrNoContentRegion)
	assert.Equal(t, []string{noContentRegionAlert}, a.messages)
}

func TestExportTwiceDeliversFreshArtifact(t *testing.T) {
	provider := &fakeProvider{profile: profileOf(tx("2024-01-02T08:00:00.000Z", "Extra Points", 50, ""))}
	e, d, _ := newExporter(provider)

	_, err := e.Export(context.Background())
	require.NoError(t, err)

	provider.profile = profileOf()
	_, err = e.Export(context.Background())
	require.NoError(t, err)

	require.Len(t, d.downloads, 2)
	assert.Equal(t, csv.Header, string(d.downloads[1].data))
}

func TestCollectReport(t *testing.T) {
	e, d, _ := newExporter(&fakeProvider{profile: profileOf(
		tx("2024-03-01T00:00:00.000Z", "Mastercard Status Points", 120, "Transactioncorrection"),
	)})

	report, err := e.Collect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12000), report.PointsAvailable)
	assert.Equal(t, int64(34000), report.TotalPointsForUse)
	require.Len(t, report.Rows, 1)
	assert.Equal(t, models.Row{Date: "2024-03-01", PointType: "Mastercard Status Points", Description: "SK 1415 ARN-CPH", BasePoints: 120}, report.Rows[0])
	assert.Empty(t, d.downloads, "collect never downloads")
}

func TestFileDownloader(t *testing.T) {
	dir := t.TempDir()

	t.Chdir(dir)

	d := &FileDownloader{}
	require.NoError(t, d.Download(context.Background(), "eb.csv", "text/csv", []byte("x")))
	got, err := os.ReadFile(filepath.Join(dir, "eb.csv"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(got))

	explicit := filepath.Join(dir, "history.csv")
	d = &FileDownloader{Path: explicit}
	require.NoError(t, d.Download(context.Background(), "eb.csv", "text/csv", []byte("y")))
	got, err = os.ReadFile(explicit)
	require.NoError(t, err)
	assert.Equal(t, "y", string(got))
}
